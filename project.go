package hyrcania

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

const projectFolderPerm = 0775

// Project is the working directory the container mounts and backups snapshot
type Project struct {
	baseFolder string
}

func NewProject(base string) (*Project, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, err
	}
	return &Project{baseFolder: abs}, nil
}

// Path joins name onto the project root
func (p *Project) Path(name ...string) string {
	return filepath.Join(append([]string{p.baseFolder}, name...)...)
}

// Exists reports whether name is present in the project root
func (p *Project) Exists(name string) bool {
	_, err := os.Stat(p.Path(name))
	return err == nil
}

// EnsureDirectories creates the bind-mounted directories the container expects
func (p *Project) EnsureDirectories(dirs ...string) error {
	for _, dir := range dirs {
		folder := p.Path(dir)
		if _, err := os.Stat(folder); err == nil {
			continue
		}

		logrus.Debugf("Making directory %s", folder)
		if err := os.MkdirAll(folder, projectFolderPerm); err != nil {
			return err
		}
	}
	return nil
}

func isArchiveFile(name string) bool {
	_, ok := ParseArchiveName(name)
	return ok && strings.HasSuffix(name, ArchiveExt)
}

func skipNonArchives(name string, info os.FileInfo) bool {
	return info.IsDir() || !isArchiveFile(name)
}

// Push uploads the archives the remote folder is missing or holds a different copy of.
// Archives that only exist remotely are deleted when prune is set, and kept otherwise.
func (p *Project) Push(s StorageService, remoteFolder string, prune bool) (uploaded, deleted []string, err error) {
	err = s.WalkDiffs(p.Path(), remoteFolder, skipNonArchives,
		func(file string, diff DiffResult) (err error) {
			logrus.WithField("Diff", diff.String()).Debugf("Comparing %q", file)
			remoteFile := path.Join(remoteFolder, file)

			switch diff {
			case DiffResultMatch:
				// Do nothing
			case DiffResultOnlyExistsRemote:
				if !prune || !isArchiveFile(file) {
					return nil
				}
				logrus.Debugf("(DELETE) %q", remoteFile)
				if err = s.Delete(remoteFile); err == nil {
					deleted = append(deleted, file)
				}
			case DiffResultMismatch, DiffResultOnlyExistsLocal:
				localFile := p.Path(file)
				logrus.Debugf("(UPLOAD) %q -> %q", localFile, remoteFile)
				if err = s.Upload(localFile, remoteFile); err == nil {
					uploaded = append(uploaded, file)
				}
			}
			return
		})
	return
}

// Pull downloads the archives that only exist remotely. Local archives are never overwritten.
func (p *Project) Pull(s StorageService, remoteFolder string) (downloaded []string, err error) {
	err = s.WalkDiffs(p.Path(), remoteFolder, skipNonArchives,
		func(file string, diff DiffResult) (err error) {
			logrus.WithField("Diff", diff.String()).Debugf("Comparing %q", file)

			switch diff {
			case DiffResultMatch, DiffResultOnlyExistsLocal:
				// Do nothing
			case DiffResultMismatch:
				logrus.WithField("Archive", file).Warn("Local and remote copies differ, keeping the local one")
			case DiffResultOnlyExistsRemote:
				if !isArchiveFile(file) {
					return nil
				}
				localFile := p.Path(file)
				remoteFile := path.Join(remoteFolder, file)
				logrus.Debugf("(DOWNLOAD) %q -> %q", remoteFile, localFile)
				if err = s.Download(localFile, remoteFile); err == nil {
					downloaded = append(downloaded, file)
				}
			}
			return
		})
	return
}
