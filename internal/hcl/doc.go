// Package hcl provides the concrete HCL implementation of the config.Loader
// interface. It reads layered build descriptions such as
//
//	block "android.defaultConfig" {
//	  targetSdk = flutter.targetSdkVersion
//	  manifestPlaceholders = {
//	    redirectHostName = "auth"
//	  }
//	  setting "implementation:com.google.code.gson:gson" {
//	    value = "2.10.1"
//	  }
//	}
//
// HCL does not allow an attribute to be defined twice in one body, so
// overrides are expressed by repeating a block for the same scope.
package hcl
