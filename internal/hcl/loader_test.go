package hcl

import (
	"path/filepath"
	"testing"

	"github.com/specialistvlad/buildvariant/internal/config"
	"github.com/specialistvlad/buildvariant/internal/testutil"
	"github.com/specialistvlad/buildvariant/internal/vars"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func keysOf(b config.Block) []string {
	out := make([]string, len(b.Settings))
	for i, s := range b.Settings {
		out[i] = s.Key
	}
	return out
}

func TestLoad_BlocksAndOrder(t *testing.T) {
	// --- Arrange ---
	ctx, logs := testutil.Context(t)
	root := testutil.WriteFiles(t, map[string]string{
		"layers/base.hcl": `
block "android.defaultConfig" {
  applicationId = "com.example.medrhythms"
  targetSdk     = flutter.targetSdkVersion
  manifestPlaceholders = {
    redirectSchemeName = "medrhythms"
    redirectHostName   = "auth"
  }
  setting "implementation:com.google.code.gson:gson" {
    value = "2.10.1"
  }
  minSdk = 26
}

block "android.defaultConfig" {
  targetSdk = 35
}
`,
	})
	v := vars.New()
	require.NoError(t, v.ParseAssignments([]string{"flutter.targetSdkVersion=34"}))

	// --- Act ---
	model, err := NewLoader(v).Load(ctx, filepath.Join(root, "layers"))

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, model.Blocks, 2)

	first := model.Blocks[0]
	assert.Equal(t, []string{
		"applicationId",
		"targetSdk",
		"manifestPlaceholders.redirectHostName",
		"manifestPlaceholders.redirectSchemeName",
		"implementation:com.google.code.gson:gson",
		"minSdk",
	}, keysOf(first))
	assert.True(t, cty.NumberIntVal(34).RawEquals(first.Settings[1].Value))
	assert.Equal(t, 4, first.Settings[1].Pos.Line)
	assert.True(t, cty.StringVal("2.10.1").RawEquals(first.Settings[4].Value))

	second := model.Blocks[1]
	assert.Equal(t, "android.defaultConfig", second.Scope)
	assert.True(t, cty.NumberIntVal(35).RawEquals(second.Settings[0].Value))

	assert.Contains(t, logs.String(), "file="+filepath.Join(root, "layers", "base.hcl"))
}

func TestLoad_Errors(t *testing.T) {
	testCases := map[string]string{
		"syntax error":       `block "a" {`,
		"unknown block type": `other "a" {}`,
		"duplicate attr":     "block \"a\" {\n  x = 1\n  x = 2\n}\n",
		"unknown variable":   `block "a" { x = flutter.versionName }`,
		"nested block":       `block "a" { inner { x = 1 } }`,
	}
	for name, src := range testCases {
		t.Run(name, func(t *testing.T) {
			ctx, _ := testutil.Context(t)
			root := testutil.WriteFiles(t, map[string]string{"main.hcl": src})

			_, err := NewLoader(nil).Load(ctx, root)
			assert.Error(t, err)
		})
	}
}

func TestLoad_IgnoresOtherExtensions(t *testing.T) {
	ctx, _ := testutil.Context(t)
	root := testutil.WriteFiles(t, map[string]string{"build.gradle.kts": "android {}"})

	model, err := NewLoader(nil).Load(ctx, root)
	require.NoError(t, err)
	assert.Empty(t, model.Blocks)
}
