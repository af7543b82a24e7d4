// Package decl reads build descriptions written in a Gradle-Kotlin-like
// declaration dialect and translates them into the format-agnostic
// config.Model.
//
// The dialect is a sequence of statements grouped by nested blocks:
//
//	android {
//	    compileSdk = 35
//	    defaultConfig {
//	        targetSdk = flutter.targetSdkVersion
//	        targetSdk = 35
//	        manifestPlaceholders["redirectHostName"] = "auth"
//	    }
//	    buildTypes {
//	        getByName("release") { isMinifyEnabled = false }
//	    }
//	}
//	dependencies {
//	    implementation(platform("com.google.firebase:firebase-bom:33.9.0"))
//	}
//
// Unlike HCL, a key may be assigned several times within one block; every
// assignment is kept, in order, for the resolver to fold. Right-hand sides
// are evaluated as HCL expressions against the injected variables. Anything
// that cannot be evaluated is kept verbatim as an opaque string.
package decl
