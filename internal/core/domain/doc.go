// Package domain contains the core business entities for driftsync.
//
// The domain layer has no dependencies on infrastructure. It defines the
// remote file snapshots, indexed records, run summaries and retrieval
// types that the services and adapters exchange.
package domain
