package hyrcania

import (
	"archive/tar"
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrEmptyArchive       = errors.New("archive has no entries")
	ErrUnsafeArchiveEntry = errors.New("archive entry escapes the destination directory")
)

// compressDir writes src as a gzipped tarball whose entries all live under filepath.Base(src).
// The archive only appears at dest once it has been written completely.
func compressDir(ctx context.Context, src, dest string) (err error) {
	partial := dest + ".part"
	f, err := os.Create(partial)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(partial)
		}
	}()

	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)

	parent := filepath.Dir(src)
	err = filepath.WalkDir(src, func(file string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(parent, file)
		if err != nil {
			return errors.WithMessage(err, "failed to make archive path relative")
		}
		return addToTar(tw, file, filepath.ToSlash(rel), d)
	})

	if err == nil {
		err = tw.Close()
	}
	if err == nil {
		err = gw.Close()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	return os.Rename(partial, dest)
}

func addToTar(tw *tar.Writer, file, name string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}

	link := ""
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		if link, err = os.Readlink(file); err != nil {
			return err
		}
		link = filepath.ToSlash(link)
		if !linkInsideRoot(name, link) {
			logrus.WithField("File", file).WithField("Target", link).Warn("Symlink points outside the backup, skipping")
			return nil
		}
	case !info.IsDir() && !info.Mode().IsRegular():
		logrus.WithField("File", file).Warn("Skipping special file")
		return nil
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return err
	}
	hdr.Name = name
	if info.IsDir() {
		hdr.Name += "/"
	}

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(tw, f)
	return err
}

// linkInsideRoot reports whether a relative link stored at name resolves inside the
// top-level directory of name
func linkInsideRoot(name, link string) bool {
	if link == "" || path.IsAbs(link) {
		return false
	}
	root := strings.SplitN(name, "/", 2)[0]
	resolved := path.Join(path.Dir(name), link)
	return resolved == root || strings.HasPrefix(resolved, root+"/")
}

// walkArchive calls fn for every entry of a gzipped tarball; fn may read the entry's content from tr
func walkArchive(file string, fn func(hdr *tar.Header, tr *tar.Reader) (stop bool, err error)) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return errors.Wrap(err, "not a gzip archive")
	}
	defer gr.Close()

	tr := tar.NewReader(gr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		stop, err := fn(hdr, tr)
		if err != nil || stop {
			return err
		}
	}
}

// cleanEntryName strips "./" and leading slashes so entries compare the same however tar wrote them
func cleanEntryName(name string) string {
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}

// archiveRoot finds the directory an archive unpacks into. The Root key of a top-level
// manifest is authoritative; archives without one fall back to the first entry's first segment.
func archiveRoot(file string) (root string, err error) {
	first := ""
	err = walkArchive(file, func(hdr *tar.Header, tr *tar.Reader) (bool, error) {
		name := cleanEntryName(hdr.Name)
		if name == "" {
			return false, nil
		}

		segments := strings.Split(name, "/")
		if first == "" {
			first = segments[0]
		}

		if len(segments) == 2 && segments[1] == ManifestName && hdr.Typeflag == tar.TypeReg {
			m, err := ParseManifest(tr)
			if err != nil {
				logrus.WithError(err).Warn("Unreadable manifest, falling back to entry order")
				return false, nil
			}
			if m.Root != "" {
				root = m.Root
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return "", err
	}

	if root != "" {
		return root, nil
	}
	if first == "" {
		return "", ErrEmptyArchive
	}
	logrus.WithField("Root", first).Debug("No manifest root, using the first entry")
	return first, nil
}

// extractArchive unpacks directories, regular files and relative symlinks into dest.
// Hard links and devices are skipped. When root is set, entries outside of it are left in the archive.
func extractArchive(ctx context.Context, file, dest, root string) error {
	return walkArchive(file, func(hdr *tar.Header, tr *tar.Reader) (bool, error) {
		if err := ctx.Err(); err != nil {
			return true, err
		}

		name := cleanEntryName(hdr.Name)
		if name == "" {
			return false, nil
		}
		if strings.HasPrefix(path.Clean(hdr.Name), "../") || path.Clean(hdr.Name) == ".." {
			return true, errors.Wrapf(ErrUnsafeArchiveEntry, "%q", hdr.Name)
		}
		if root != "" && name != root && !strings.HasPrefix(name, root+"/") {
			logrus.WithField("Entry", hdr.Name).Warn("Entry outside the archive root, skipping")
			return false, nil
		}

		if err := checkNoSymlinks(dest, name); err != nil {
			return true, err
		}

		target := filepath.Join(dest, filepath.FromSlash(name))
		switch hdr.Typeflag {
		case tar.TypeDir:
			return false, os.MkdirAll(target, projectFolderPerm)
		case tar.TypeReg:
			return false, writeEntry(target, hdr, tr)
		case tar.TypeSymlink:
			if !linkInsideRoot(name, hdr.Linkname) {
				return true, errors.Wrapf(ErrUnsafeArchiveEntry, "%q -> %q", hdr.Name, hdr.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(target), projectFolderPerm); err != nil {
				return true, err
			}
			return false, os.Symlink(hdr.Linkname, target)
		default:
			logrus.WithField("Entry", hdr.Name).Warn("Skipping unsupported archive entry")
			return false, nil
		}
	})
}

// checkNoSymlinks refuses entries that would be written through a symlink extracted earlier
func checkNoSymlinks(dest, name string) error {
	dir := dest
	for _, segment := range strings.Split(name, "/") {
		dir = filepath.Join(dir, segment)
		info, err := os.Lstat(dir)
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return errors.Wrapf(ErrUnsafeArchiveEntry, "%q goes through a symlink", name)
		}
	}
	return nil
}

func writeEntry(target string, hdr *tar.Header, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), projectFolderPerm); err != nil {
		return err
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, hdr.FileInfo().Mode().Perm())
	if err != nil {
		return err
	}

	if _, err = io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Chtimes(target, hdr.ModTime, hdr.ModTime)
}
