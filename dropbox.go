package hyrcania

import (
	"io"
	"os"
	"path/filepath"

	humanize "github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	dropbox "github.com/tj/go-dropbox"
)

var (
	// ErrMissingDropboxToken is returned when no Dropbox access token is configured
	ErrMissingDropboxToken = errors.New("No dropbox token found, set [dropbox] token in hyrcania.toml or $HYRCANIA_DROPBOX_TOKEN")

	// ErrUploadTooLarge is returned for files over the single request upload limit
	ErrUploadTooLarge = errors.New("file is larger than the 150 MB Dropbox upload limit")
)

// MaxUploadSize is the largest file Dropbox accepts in one upload request
const MaxUploadSize = 150 * 1024 * 1024

type Dropbox struct {
	client *dropbox.Client
}

func NewDropbox(token string) (*Dropbox, error) {
	if token == "" {
		return nil, ErrMissingDropboxToken
	}
	return &Dropbox{
		client: dropbox.New(dropbox.NewConfig(token)),
	}, nil
}

func (db *Dropbox) WalkDiffs(local, remote string, skip SkipCallback, cb WalkDiffsCallback) error {
	folders, err := db.client.Files.ListFolder(&dropbox.ListFolderInput{
		Path:             remote,
		Recursive:        false,
		IncludeMediaInfo: false,
		IncludeDeleted:   false,
	})

	if err != nil {
		dbErr, ok := err.(*dropbox.Error)
		// 409 (Not found) is ok, the folder is created by the first upload
		if !ok || dbErr.StatusCode != 409 {
			return errors.WithMessage(err, "failed to list remote folder")
		}

		folders = &dropbox.ListFolderOutput{
			Entries: []*dropbox.Metadata{},
		}
	}

	remoteFiles := make(map[string]*dropbox.Metadata, len(folders.Entries))
	for {
		for _, ent := range folders.Entries {
			if ent.Tag == "file" {
				remoteFiles[ent.Name] = ent
			}
		}
		if !folders.HasMore {
			break
		}

		logrus.WithField("Cursor", folders.Cursor).Debug("Listing next page")
		folders, err = db.client.Files.ListFolderContinue(&dropbox.ListFolderContinueInput{
			Cursor: folders.Cursor,
		})
		if err != nil {
			return errors.WithMessage(err, "failed to list remote folder")
		}
	}

	entries, err := os.ReadDir(local)
	if err != nil {
		return err
	}

	for _, ent := range entries {
		info, err := ent.Info()
		if err != nil {
			return err
		}

		name := ent.Name()
		if skip != nil && skip(name, info) {
			continue
		}
		logrus.Debugf("Comparing %q", name)

		metadata, exists := remoteFiles[name]
		if !exists {
			err = cb(name, DiffResultOnlyExistsLocal)
		} else {
			delete(remoteFiles, name)

			hash, hashErr := HashFile(filepath.Join(local, name))
			if hashErr != nil {
				return hashErr
			}

			if metadata.ContentHash != hash {
				err = cb(name, DiffResultMismatch)
			} else {
				err = cb(name, DiffResultMatch)
			}
		}
		if err != nil {
			return err
		}
	}

	for name := range remoteFiles {
		if err = cb(name, DiffResultOnlyExistsRemote); err != nil {
			return err
		}
	}
	return nil
}

func (db *Dropbox) Delete(remote string) (err error) {
	_, err = db.client.Files.Delete(&dropbox.DeleteInput{
		Path: remote,
	})
	return
}

func (db *Dropbox) Upload(local, remote string) (err error) {
	f, err := os.Open(local)
	if err != nil {
		return err
	}

	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() > MaxUploadSize {
		return errors.Wrapf(ErrUploadTooLarge, "%s (%s)", local, humanize.Bytes(uint64(info.Size())))
	}

	_, err = db.client.Files.Upload(&dropbox.UploadInput{
		Path:       remote,
		Mode:       dropbox.WriteModeOverwrite,
		AutoRename: false,
		Mute:       true,
		Reader:     f,
	})
	return
}

func (db *Dropbox) Download(local, remote string) (err error) {
	result, err := db.client.Files.Download(&dropbox.DownloadInput{
		Path: remote,
	})
	if err != nil {
		return
	}
	defer result.Body.Close()

	partial := local + ".part"
	f, err := os.Create(partial)
	if err != nil {
		return
	}

	if _, err = io.Copy(f, result.Body); err != nil {
		f.Close()
		os.Remove(partial)
		return
	}
	if err = f.Close(); err != nil {
		os.Remove(partial)
		return
	}
	return os.Rename(partial, local)
}

// HashFile computes the Dropbox content hash of a local file
func HashFile(file string) (hash string, err error) {
	f, err := os.Open(file)
	if err != nil {
		return
	}

	defer f.Close()

	return dropbox.ContentHash(f)
}
