// Package transformers converts downloaded file content into records
// ready for embedding. Each format lives in its own subpackage; the
// registry dispatches by pipeline and file extension.
package transformers
