// Package hcl implements the config.Loader interface for HCL plan files. It
// discovers and parses plan files, decodes them into the schema structures,
// and translates the result into the format-agnostic config model.
package hcl
