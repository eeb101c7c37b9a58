// Package config defines the format-agnostic restructuring plan model for the
// application, along with the Loader interface for reading a plan from disk.
//
// The `config.Plan` is the single source of truth for the pipeline phases.
// Concrete loader implementations, such as for HCL, are provided in separate
// packages.
package config
