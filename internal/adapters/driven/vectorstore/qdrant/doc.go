// Package qdrant implements the hybrid vector store against the Qdrant
// REST API: named dense ("dense") and sparse ("lexical") vectors per
// point, idempotent collection creation, full-replace upserts and
// client-side reciprocal rank fusion for hybrid queries.
package qdrant
