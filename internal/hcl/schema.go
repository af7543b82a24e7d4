package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Blocks []*blockSchema `hcl:"block,block"`
	Remain hcl.Body       `hcl:",remain"`
}

// blockSchema is one `block "<scope>"` definition.
type blockSchema struct {
	Scope    string           `hcl:"scope,label"`
	Settings []*settingSchema `hcl:"setting,block"`
	Remain   hcl.Body         `hcl:",remain"`
}

// settingSchema carries a key that is not a valid HCL identifier.
type settingSchema struct {
	Key   string         `hcl:"key,label"`
	Value hcl.Expression `hcl:"value,attr"`
}
