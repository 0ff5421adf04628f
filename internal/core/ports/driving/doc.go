// Package driving provides interfaces for use cases entering the core
// (primary/inbound ports): running pipelines, scheduling them and
// searching the indexed collections.
package driving
