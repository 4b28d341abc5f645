package hyrcania

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/otiai10/copy"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	ArchivePrefix = "hyrcania_backup_"
	ArchiveExt    = ".tar.gz"

	archiveTimeFormat = "20060102_150405"
	unknownValue      = "unknown"
)

var (
	ErrArchiveNotFound     = errors.New("backup archive not found")
	ErrBackupExists        = errors.New("a backup with this timestamp already exists")
	ErrRequiredPathMissing = errors.New("required path missing")
	ErrInvalidArchiveRoot  = errors.New("archive root directory is not usable")
	ErrRestoreConflict     = errors.New("archive root directory already exists in the project")
)

type BackupService interface {
	// Backup snapshots the project into a new archive
	Backup(ctx context.Context) (*Archive, error)

	// Restore copies the known paths of an archive back into the project
	Restore(ctx context.Context, archive string) (*RestoreReport, error)

	// List returns the project's archives, oldest first
	List() ([]Archive, error)
}

// Archive is a backup tarball in the project root
type Archive struct {
	Name    string
	Path    string
	Size    int64
	Created time.Time

	// Skipped holds the optional paths that were missing when the archive was made
	Skipped []string
}

func (a Archive) FileName() string {
	return a.Name + ArchiveExt
}

// RestoreReport says which known paths came back from an archive
type RestoreReport struct {
	Root     string
	Restored []string
	Missing  []string
}

// Partial is true when some known path was absent from the archive or could not be copied
func (r *RestoreReport) Partial() bool {
	return len(r.Missing) > 0
}

// ArchiveName is the base name of an archive created at t
func ArchiveName(t time.Time) string {
	return ArchivePrefix + t.Format(archiveTimeFormat)
}

// ParseArchiveName extracts the creation time from an archive file or base name
func ParseArchiveName(file string) (time.Time, bool) {
	name := strings.TrimSuffix(filepath.Base(file), ArchiveExt)
	if !strings.HasPrefix(name, ArchivePrefix) {
		return time.Time{}, false
	}

	t, err := time.ParseInLocation(archiveTimeFormat, strings.TrimPrefix(name, ArchivePrefix), time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// TarArchiver keeps project snapshots as gzipped tarballs next to the project files
type TarArchiver struct {
	project *Project
	config  *Config
	runner  Runner
	now     func() time.Time
}

func NewTarArchiver(project *Project, cfg *Config, runner Runner) *TarArchiver {
	return &TarArchiver{
		project: project,
		config:  cfg,
		runner:  runner,
		now:     time.Now,
	}
}

// symlinks are copied as links, their targets are resolved by whoever reads the project
var copyOptions = copy.Options{
	OnSymlink:     func(string) copy.SymlinkAction { return copy.Shallow },
	Skip:          replaceLink,
	PreserveTimes: true,
}

// replaceLink removes a file or link at dest when a link is copied over it, and a link at
// dest when a file is, so restored entries never go through links already in the project
func replaceLink(info os.FileInfo, src, dest string) (bool, error) {
	existing, err := os.Lstat(dest)
	if err != nil || existing.IsDir() {
		return false, nil
	}
	if info.Mode()&os.ModeSymlink != 0 || existing.Mode()&os.ModeSymlink != 0 {
		return false, os.Remove(dest)
	}
	return false, nil
}

func (a *TarArchiver) Backup(ctx context.Context) (archive *Archive, err error) {
	created := a.now()
	name := ArchiveName(created)
	staging := a.project.Path(name)
	archive = &Archive{
		Name:    name,
		Path:    staging + ArchiveExt,
		Created: created,
	}

	if a.project.Exists(name) || a.project.Exists(archive.FileName()) {
		return nil, errors.Wrapf(ErrBackupExists, "%s", name)
	}

	logrus.WithField("Staging", staging).Debug("Creating staging directory")
	if err = os.Mkdir(staging, projectFolderPerm); err != nil {
		return nil, errors.Wrap(err, "failed to create staging directory")
	}
	defer os.RemoveAll(staging)

	for _, p := range a.config.Backup.Required {
		missing, err := a.stage(p, staging)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to copy %s", p)
		}
		if missing {
			return nil, errors.Wrapf(ErrRequiredPathMissing, "%s", p)
		}
	}

	for _, p := range a.config.Backup.Optional {
		missing, err := a.stage(p, staging)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to copy %s", p)
		}
		if missing {
			logrus.WithField("Path", p).Warn("Optional path not found, skipping")
			archive.Skipped = append(archive.Skipped, p)
		}
	}

	manifest := &Manifest{
		Created:  created,
		Root:     name,
		Version:  a.version(ctx),
		DataSize: a.dataSize(),
	}
	if err = writeManifest(filepath.Join(staging, ManifestName), manifest); err != nil {
		return nil, errors.Wrap(err, "failed to write manifest")
	}

	logrus.WithField("Archive", archive.Path).Debug("Compressing")
	if err = compressDir(ctx, staging, archive.Path); err != nil {
		return nil, errors.Wrap(err, "failed to compress backup")
	}

	info, err := os.Stat(archive.Path)
	if err != nil {
		return nil, err
	}
	archive.Size = info.Size()
	return archive, nil
}

// stage copies one project path into the staging directory. missing is only set when
// the path itself is absent from the project, copy failures are returned as errors.
func (a *TarArchiver) stage(p, staging string) (missing bool, err error) {
	src := a.project.Path(p)
	if _, err = os.Lstat(src); os.IsNotExist(err) {
		return true, nil
	} else if err != nil {
		return false, err
	}

	logrus.Debugf("(COPY) %q -> %q", src, filepath.Join(staging, p))
	return false, copy.Copy(src, filepath.Join(staging, p), copyOptions)
}

func writeManifest(file string, m *Manifest) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}

	if _, err = m.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// version is a best-effort tag of the project's git checkout
func (a *TarArchiver) version(ctx context.Context) string {
	if a.runner == nil {
		return unknownValue
	}

	tag, err := a.runner.Output(ctx, "git", "-C", a.project.Path(), "describe", "--tags", "--always")
	if err != nil || tag == "" {
		logrus.WithError(err).Debug("Could not determine version")
		return unknownValue
	}
	return tag
}

// dataSize is a best-effort human readable size of the first required path
func (a *TarArchiver) dataSize() string {
	if len(a.config.Backup.Required) == 0 {
		return unknownValue
	}

	size, err := treeSize(a.project.Path(a.config.Backup.Required[0]))
	if err != nil {
		return unknownValue
	}
	return humanize.Bytes(uint64(size))
}

func treeSize(root string) (size int64, err error) {
	err = filepath.WalkDir(root, func(_ string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		size += info.Size()
		return nil
	})
	return
}

func (a *TarArchiver) Restore(ctx context.Context, file string) (report *RestoreReport, err error) {
	info, err := os.Stat(file)
	if os.IsNotExist(err) || (err == nil && info.IsDir()) {
		return nil, errors.Wrapf(ErrArchiveNotFound, "%s", file)
	} else if err != nil {
		return nil, err
	}

	root, err := archiveRoot(file)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read archive")
	}
	if err = a.validateRoot(root); err != nil {
		return nil, err
	}

	staging := a.project.Path(root)
	if _, err = os.Lstat(staging); err == nil {
		return nil, errors.Wrapf(ErrRestoreConflict, "%s", root)
	}

	logrus.WithField("Archive", file).WithField("Root", root).Debug("Extracting")
	defer os.RemoveAll(staging)
	if err = extractArchive(ctx, file, a.project.Path(), root); err != nil {
		return nil, errors.Wrap(err, "failed to extract archive")
	}

	report = &RestoreReport{Root: root}
	for _, p := range a.config.KnownPaths() {
		src := filepath.Join(staging, p)
		info, err := os.Lstat(src)
		if err != nil {
			logrus.WithField("Path", p).Warn("Not found in backup, skipping")
			report.Missing = append(report.Missing, p)
			continue
		}

		logrus.Debugf("(RESTORE) %q -> %q", src, a.project.Path(p))
		if _, err := replaceLink(info, src, a.project.Path(p)); err != nil {
			logrus.WithError(err).WithField("Path", p).Warn("Failed to restore, skipping")
			report.Missing = append(report.Missing, p)
			continue
		}
		if err := copy.Copy(src, a.project.Path(p), copyOptions); err != nil {
			logrus.WithError(err).WithField("Path", p).Warn("Failed to restore, skipping")
			report.Missing = append(report.Missing, p)
			continue
		}
		report.Restored = append(report.Restored, p)
	}
	return report, nil
}

// validateRoot refuses roots that would make the cleanup step delete project files
func (a *TarArchiver) validateRoot(root string) error {
	if root == "" || root == "." || root == ".." || strings.ContainsAny(root, `/\`) {
		return errors.Wrapf(ErrInvalidArchiveRoot, "%q", root)
	}
	for _, p := range a.config.KnownPaths() {
		if strings.TrimSuffix(p, "/") == root {
			return errors.Wrapf(ErrInvalidArchiveRoot, "%q is a project path", root)
		}
	}
	return nil
}

func (a *TarArchiver) List() (archives []Archive, err error) {
	matches, err := filepath.Glob(a.project.Path(ArchivePrefix + "*" + ArchiveExt))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	archives = make([]Archive, 0, len(matches))
	for _, file := range matches {
		info, err := os.Stat(file)
		if err != nil || info.IsDir() {
			continue
		}

		created, _ := ParseArchiveName(file)
		archives = append(archives, Archive{
			Name:    strings.TrimSuffix(filepath.Base(file), ArchiveExt),
			Path:    file,
			Size:    info.Size(),
			Created: created,
		})
	}
	return archives, nil
}
