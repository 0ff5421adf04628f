// Package cli implements the command-line interface using cobra.
//
// Commands receive their services through package-level variables set
// by the wiring in Run (or injected directly in tests); a command run
// without its service configured fails with a clear error.
package cli
