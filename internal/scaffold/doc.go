// Package scaffold materializes the plan's directory layout and generates
// its documentation files. All operations are idempotent: applying the same
// plan twice leaves the tree in the same state as applying it once.
package scaffold
