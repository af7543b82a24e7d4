package resolver

// DefaultRoot is the block that holds defaultConfig, productFlavors and
// buildTypes in an Android build description.
const DefaultRoot = "android"

// VariantChain returns the scope chain of an Android build variant in
// increasing precedence: defaultConfig, then each product flavor in the
// given order, then the build type.
func VariantChain(root, buildType string, flavors ...string) []string {
	if root == "" {
		root = DefaultRoot
	}
	chain := []string{root + ".defaultConfig"}
	for _, f := range flavors {
		chain = append(chain, root+".productFlavors."+f)
	}
	if buildType != "" {
		chain = append(chain, root+".buildTypes."+buildType)
	}
	return chain
}
