// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): the remote drive, the extraction and
// embedding services, the hybrid vector store and the run store.
package driven
