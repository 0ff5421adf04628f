// Package services implements the core use cases: running ingestion
// pipelines, scheduling them periodically, encoding sparse lexical
// vectors and answering hybrid search queries.
package services
