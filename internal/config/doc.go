// Package config defines the format-agnostic build configuration model
// (settings grouped into scoped blocks) together with the Loader interface
// implemented by the concrete declaration and HCL readers.
//
// The `config.Model` is the single input of the `resolver` package. Concrete
// implementations of the Loader interface live in separate packages.
package config
