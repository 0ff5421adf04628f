package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// RemoteFile is an immutable snapshot of a file in the remote drive,
// fetched per listing call and never persisted locally.
type RemoteFile struct {
	// ID is the drive item identifier.
	ID string

	// Name is the file name including extension.
	Name string

	// LastModified is the remote modification timestamp. It is the only
	// signal used for change detection and is mirrored verbatim into the
	// payload of every record the file produces.
	LastModified time.Time

	// Size is the file size in bytes.
	Size int64

	// WebURL is the browser link to the file, carried for citation display.
	WebURL string
}

// Ext returns the lower-case file extension including the leading dot.
func (f RemoteFile) Ext() string {
	return strings.ToLower(filepath.Ext(f.Name))
}

// Changed reports whether the remote file is newer than the stored
// timestamp. A nil stored timestamp means the record has never been
// indexed. Equal timestamps are treated as unchanged: clients must bump
// the modification time to force reprocessing.
func (f RemoteFile) Changed(stored *time.Time) bool {
	if stored == nil {
		return true
	}
	return f.LastModified.After(*stored)
}
