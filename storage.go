package hyrcania

import "os"

// DiffResult explains broadly explains the difference between the remote and local versions of a file
type DiffResult uint8

const (
	// DiffResultMatch means both files exist and have the same content
	DiffResultMatch = DiffResult(iota)

	// DiffResultMismatch mean both files exist, but their content does not match
	DiffResultMismatch

	// DiffResultOnlyExistsRemote means the file only exists on the remote machine
	DiffResultOnlyExistsRemote

	// DiffResultOnlyExistsLocal means that the file only exists on the local machine
	DiffResultOnlyExistsLocal
)

func (d DiffResult) String() string {
	switch d {
	case DiffResultMatch:
		return "MATCH"
	case DiffResultMismatch:
		return "MISMATCH"
	case DiffResultOnlyExistsRemote:
		return "REMOTE"
	case DiffResultOnlyExistsLocal:
		return "LOCAL"
	}
	return "UNKNOWN"
}

// WalkDiffsCallback is the callback function type in StorageService.WalkDiffs
type WalkDiffsCallback func(string, DiffResult) error

// SkipCallback gives the name and info of a local file, and should return true if that file is to be skipped in the walk
type SkipCallback func(string, os.FileInfo) bool

// StorageService is a application that allows users to store files remotely (e.g. Dropbox)
type StorageService interface {
	// WalkDiffs compares the files directly inside a local and a remote folder
	WalkDiffs(local, remote string, skip SkipCallback, callback WalkDiffsCallback) error

	// Upload uploads a local file, "local" to a remote file "remote"
	Upload(local, remote string) error

	// Download downloads a remote file "remote" to a local file "local"
	Download(local, remote string) error

	// Delete removes a file from the storage service
	Delete(remote string) error
}
