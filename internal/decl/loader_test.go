package decl

import (
	"path/filepath"
	"testing"

	"github.com/specialistvlad/buildvariant/internal/config"
	"github.com/specialistvlad/buildvariant/internal/resolver"
	"github.com/specialistvlad/buildvariant/internal/testutil"
	"github.com/specialistvlad/buildvariant/internal/vars"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func findBlock(t *testing.T, m *config.Model, scope string) config.Block {
	t.Helper()
	for _, b := range m.Blocks {
		if b.Scope == scope {
			return b
		}
	}
	require.Failf(t, "block not found", "scope %q", scope)
	return config.Block{}
}

func findSetting(t *testing.T, b config.Block, key string) config.Setting {
	t.Helper()
	for _, s := range b.Settings {
		if s.Key == key {
			return s
		}
	}
	require.Failf(t, "setting not found", "key %q in %q", key, b.Scope)
	return config.Setting{}
}

func keys(b config.Block) []string {
	out := make([]string, len(b.Settings))
	for i, s := range b.Settings {
		out[i] = s.Key
	}
	return out
}

func TestLoad_AppBuildFile(t *testing.T) {
	// --- Arrange ---
	ctx, _ := testutil.Context(t)
	v := vars.New()
	require.NoError(t, v.ParseAssignments([]string{
		"flutter.targetSdkVersion=34",
		"flutter.versionCode=12",
		"flutter.versionName=\"1.4.2\"",
	}))

	// --- Act ---
	model, err := NewLoader(v).Load(ctx, filepath.Join("testdata", "app", "build.gradle.kts"))

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{
		"plugins",
		"dependencies",
		"android",
		"android.compileOptions",
		"android.kotlinOptions",
		"android.defaultConfig",
		"android.buildTypes.release",
		"android.lintOptions",
		"flutter",
	}, model.Scopes())

	plugins := findBlock(t, model, "plugins")
	assert.Equal(t, []string{
		"id:com.android.application",
		"id:kotlin-android",
		"id:com.google.gms.google-services",
		"id:dev.flutter.flutter-gradle-plugin",
	}, keys(plugins))

	deps := findBlock(t, model, "dependencies")
	bom := findSetting(t, deps, "implementation.platform:com.google.firebase:firebase-bom")
	assert.True(t, cty.StringVal("33.9.0").RawEquals(bom.Value))
	spotify := findSetting(t, deps, "implementation:com.github.spotify.android-sdk:app-remote-lib")
	assert.True(t, cty.StringVal("v0.8.0-appremote_v2.1.0-auth").RawEquals(spotify.Value))

	android := findBlock(t, model, "android")
	assert.True(t, cty.NumberIntVal(35).RawEquals(findSetting(t, android, "compileSdk").Value))
	assert.True(t, cty.StringVal("27.0.12077973").RawEquals(findSetting(t, android, "ndkVersion").Value))

	defaults := findBlock(t, model, "android.defaultConfig")
	assert.True(t, cty.NumberIntVal(34).RawEquals(findSetting(t, defaults, "targetSdk").Value))
	assert.True(t, cty.NumberIntVal(12).RawEquals(findSetting(t, defaults, "versionCode").Value))
	assert.True(t, cty.StringVal("1.4.2").RawEquals(findSetting(t, defaults, "versionName").Value))
	assert.True(t, cty.StringVal("auth").RawEquals(findSetting(t, defaults, "manifestPlaceholders.redirectHostName").Value))
	assert.Equal(t, 34, findSetting(t, defaults, "targetSdk").Pos.Line)

	compile := findBlock(t, model, "android.compileOptions")
	source := findSetting(t, compile, "sourceCompatibility")
	assert.True(t, source.Raw)
	assert.Empty(t, source.Unresolved, "JavaVersion is not an external root")
	assert.True(t, cty.StringVal("JavaVersion.VERSION_11").RawEquals(source.Value))

	release := findBlock(t, model, "android.buildTypes.release")
	assert.Equal(t, []string{"isMinifyEnabled", "isShrinkResources", "proguardFiles"}, keys(release))
	assert.True(t, cty.False.RawEquals(findSetting(t, release, "isShrinkResources").Value))
}

func TestLoad_UnresolvedExternalReferences(t *testing.T) {
	ctx, _ := testutil.Context(t)

	model, err := NewLoader(nil).Load(ctx, filepath.Join("testdata", "pinned.gradle.kts"))
	require.NoError(t, err)

	defaults := findBlock(t, model, "android.defaultConfig")
	var targetSdks []config.Setting
	for _, s := range defaults.Settings {
		if s.Key == "targetSdk" {
			targetSdks = append(targetSdks, s)
		}
	}
	require.Len(t, targetSdks, 2)
	assert.True(t, targetSdks[0].Raw)
	assert.Equal(t, []string{"flutter.targetSdkVersion"}, targetSdks[0].Unresolved)
	assert.True(t, cty.NumberIntVal(35).RawEquals(targetSdks[1].Value))
	assert.Less(t, targetSdks[0].Index, targetSdks[1].Index)
}

func TestLoad_PartiallySuppliedRoot(t *testing.T) {
	ctx, _ := testutil.Context(t)
	v := vars.New()
	require.NoError(t, v.ParseAssignments([]string{"flutter.targetSdkVersion=34"}))

	model, err := NewLoader(v).Load(ctx, filepath.Join("testdata", "pinned.gradle.kts"))
	require.NoError(t, err)

	compileSdk := findSetting(t, findBlock(t, model, "android"), "compileSdk")
	assert.True(t, compileSdk.Raw)
	assert.Equal(t, []string{"flutter.compileSdkVersion"}, compileSdk.Unresolved)
}

func TestLoad_DependencyPinsShareKeys(t *testing.T) {
	ctx, _ := testutil.Context(t)

	model, err := NewLoader(nil).Load(ctx, filepath.Join("testdata", "pinned.gradle.kts"))
	require.NoError(t, err)

	deps := findBlock(t, model, "dependencies")
	assert.Equal(t, []string{
		`implementation:files("libs/spotify-app-remote-release-0.7.2.aar")`,
		"implementation:com.google.code.gson:gson",
		"implementation.platform:com.google.firebase:firebase-bom",
		"implementation.platform:com.google.firebase:firebase-bom",
		"implementation:com.google.code.gson:gson",
	}, keys(deps))
}

func TestLoad_SigningAndBuildTypes(t *testing.T) {
	ctx, _ := testutil.Context(t)

	model, err := NewLoader(nil).Load(ctx, filepath.Join("testdata", "pinned.gradle.kts"))
	require.NoError(t, err)

	signing := findBlock(t, model, "android.signingConfigs.release")
	assert.True(t, cty.StringVal("upload").RawEquals(findSetting(t, signing, "keyAlias").Value))

	debug := findBlock(t, model, "android.buildTypes.debug")
	sc := findSetting(t, debug, "signingConfig")
	assert.True(t, sc.Raw)
	assert.True(t, cty.StringVal(`signingConfigs.getByName("debug")`).RawEquals(sc.Value))
}

func TestLoad_RootBuildFile(t *testing.T) {
	ctx, _ := testutil.Context(t)

	model, err := NewLoader(nil).Load(ctx, filepath.Join("testdata", "build.gradle.kts"))
	require.NoError(t, err)

	classpath := findBlock(t, model, "buildscript.dependencies")
	assert.Equal(t, []string{
		"classpath:com.android.tools.build:gradle",
		"classpath:org.jetbrains.kotlin:kotlin-gradle-plugin",
		"classpath:com.google.gms:google-services",
	}, keys(classpath))

	maven := findBlock(t, model, "allprojects.repositories.maven")
	url := findSetting(t, maven, "url")
	assert.True(t, cty.StringVal(`uri("https://jitpack.io")`).RawEquals(url.Value))

	root := findBlock(t, model, "")
	assert.Equal(t, "rootProject.buildDir", root.Settings[0].Key)

	clean := findBlock(t, model, "clean")
	assert.Equal(t, []string{"delete"}, keys(clean))
}

func TestLoad_Directory(t *testing.T) {
	ctx, _ := testutil.Context(t)
	root := testutil.WriteFiles(t, map[string]string{
		"a/build.gradle.kts": "android { compileSdk = 34 }\n",
		"b/build.gradle.kts": "android { compileSdk = 35 }\n",
		"notes.txt":          "ignored",
	})

	model, err := NewLoader(nil).Load(ctx, root)
	require.NoError(t, err)
	require.Len(t, model.Blocks, 2)
	assert.True(t, cty.NumberIntVal(35).RawEquals(model.Blocks[1].Settings[0].Value))
}

func TestParse_Statements(t *testing.T) {
	ctx, _ := testutil.Context(t)
	src := `
defaultConfig {
    val local = 3
    manifestPlaceholders += mapOf("a" to "b")
    resValue("string", "app_name", "MedRhythms")
    multiDexEnabled true
    enabled = versionCode == 3
}
`
	model, err := NewLoader(nil).Parse(ctx, "inline.kts", []byte(src))
	require.NoError(t, err)

	b := findBlock(t, model, "defaultConfig")
	assert.Equal(t, []string{"local", "manifestPlaceholders", "resValue", "multiDexEnabled true", "enabled"}, keys(b))
	assert.True(t, cty.NumberIntVal(3).RawEquals(b.Settings[0].Value))
	assert.True(t, cty.StringVal(`+= mapOf("a" to "b")`).RawEquals(b.Settings[1].Value))
	assert.True(t, cty.StringVal(`"string", "app_name", "MedRhythms"`).RawEquals(b.Settings[2].Value))
	assert.True(t, b.Settings[4].Raw)
}

func TestParse_NestedBlockSplitsParent(t *testing.T) {
	ctx, _ := testutil.Context(t)
	src := `android {
    compileSdk = 34
    defaultConfig { minSdk = 21 }
    compileSdk = 35
}`
	model, err := NewLoader(nil).Parse(ctx, "split.kts", []byte(src))
	require.NoError(t, err)

	require.Len(t, model.Blocks, 3)
	assert.Equal(t, "android", model.Blocks[0].Scope)
	assert.Equal(t, "android.defaultConfig", model.Blocks[1].Scope)
	assert.Equal(t, "android", model.Blocks[2].Scope)
}

func TestParse_Errors(t *testing.T) {
	ctx, _ := testutil.Context(t)
	testCases := map[string]string{
		"unclosed block":   "android {\n compileSdk = 35\n",
		"unexpected close": "compileSdk = 35\n}\n",
		"scanner error":    "x = \"open\n",
	}
	for name, src := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := NewLoader(nil).Parse(ctx, "broken.kts", []byte(src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "broken.kts")
		})
	}
}

func TestLoad_MissingPath(t *testing.T) {
	ctx, _ := testutil.Context(t)
	_, err := NewLoader(nil).Load(ctx, filepath.Join(t.TempDir(), "missing.gradle.kts"))
	assert.Error(t, err)
}

const releaseSigning = `
val keystoreProperties = Properties().apply {
    load(FileInputStream(rootProject.file("key.properties")))
}

android {
    signingConfigs {
        create("release") {
            keyAlias = keystoreProperties["keyAlias"] as String
            storeFile = keystoreProperties["storeFile"]?.let { file(it) }
            storePassword = "x"
        }
    }
    buildTypes {
        getByName("release") {
            isMinifyEnabled = true
            if (System.getenv("CI") != null) {
                signingConfig = signingConfigs.getByName("debug")
            } else {
                signingConfig = signingConfigs.getByName("release")
            }
        }
    }
}
`

func TestParse_LambdaValuesStayInAssignment(t *testing.T) {
	// --- Arrange ---
	ctx, logs := testutil.Context(t)

	// --- Act ---
	model, err := NewLoader(nil).Parse(ctx, "signing.kts", []byte(releaseSigning))

	// --- Assert ---
	require.NoError(t, err)
	assert.NotContains(t, model.Scopes(), "android.signingConfigs.release.storeFile")
	assert.NotContains(t, model.Scopes(), "keystoreProperties")

	signing := findBlock(t, model, "android.signingConfigs.release")
	assert.Equal(t, []string{"keyAlias", "storeFile", "storePassword"}, keys(signing))
	storeFile := findSetting(t, signing, "storeFile")
	assert.True(t, storeFile.Raw)
	assert.Equal(t, `keystoreProperties["storeFile"]?.let { file(it) }`, storeFile.Value.AsString())

	props := findSetting(t, findBlock(t, model, ""), "keystoreProperties")
	assert.Equal(t, `Properties().apply { load(FileInputStream(rootProject.file("key.properties"))) }`, props.Value.AsString())
	assert.Equal(t, 2, props.Pos.Line)

	assert.Contains(t, logs.String(), "file=signing.kts")
}

func TestParse_ControlFlowKeepsEnclosingScope(t *testing.T) {
	// --- Arrange ---
	ctx, _ := testutil.Context(t)

	// --- Act ---
	model, err := NewLoader(nil).Parse(ctx, "signing.kts", []byte(releaseSigning))
	require.NoError(t, err)
	effective := resolver.ResolveVariant(model.Blocks, resolver.VariantChain("android", "release")...)

	// --- Assert ---
	assert.Equal(t, []string{"", "android.signingConfigs.release", "android.buildTypes.release"}, model.Scopes())
	assert.True(t, cty.True.RawEquals(effective["isMinifyEnabled"].Value))
	assert.True(t, cty.StringVal(`signingConfigs.getByName("release")`).RawEquals(effective["signingConfig"].Value))
	assert.True(t, effective["signingConfig"].Conditional)
	assert.False(t, effective["isMinifyEnabled"].Conditional)

	var conditional int
	for _, w := range resolver.Lint(model.Blocks) {
		if w.Kind == resolver.KindConditional {
			conditional++
			assert.Equal(t, "android.buildTypes.release", w.Scope)
		}
	}
	assert.Equal(t, 2, conditional)
}

func TestParse_WhenBranchesAreTransparent(t *testing.T) {
	ctx, _ := testutil.Context(t)
	src := `android {
    defaultConfig {
        when (flavor) {
            "free" -> {
                applicationIdSuffix = ".free"
            }
            else -> {
                applicationIdSuffix = ".paid"
            }
        }
    }
}`
	model, err := NewLoader(nil).Parse(ctx, "when.kts", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, []string{"android.defaultConfig"}, model.Scopes())
	assert.Len(t, model.Blocks, 2)
}
