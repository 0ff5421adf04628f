package driven

import (
	"context"

	"github.com/halyard-labs/driftsync/internal/core/domain"
)

// SourceClient lists and downloads files from the remote drive.
// Implementations follow pagination until exhausted: a successful
// ListFolder never returns partial results.
type SourceClient interface {
	// ListFolder returns metadata for every file directly under the
	// folder path. A listing failure aborts the whole sync run.
	ListFolder(ctx context.Context, folderPath string) ([]domain.RemoteFile, error)

	// GetContent downloads the raw bytes of a file by its drive item id.
	GetContent(ctx context.Context, fileID string) ([]byte, error)
}
