package hyrcania

import (
	"archive/tar"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

// fakeRunner records every invocation as "name arg1 arg2 ..."
type fakeRunner struct {
	paths  map[string]string
	fail   map[string]error
	output map[string]string
	calls  []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		paths:  map[string]string{},
		fail:   map[string]error{},
		output: map[string]string{},
	}
}

func (f *fakeRunner) record(name string, args []string) (string, error) {
	key := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, key)
	return key, f.fail[key]
}

func (f *fakeRunner) LookPath(file string) (string, error) {
	if p, ok := f.paths[file]; ok {
		return p, nil
	}
	return "", exec.ErrNotFound
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	_, err := f.record(name, args)
	return err
}

func (f *fakeRunner) Quiet(ctx context.Context, name string, args ...string) error {
	_, err := f.record(name, args)
	return err
}

func (f *fakeRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	key, err := f.record(name, args)
	if err != nil {
		return "", err
	}
	out, ok := f.output[key]
	if !ok {
		return "", exec.ErrNotFound
	}
	return out, nil
}

var testTime = time.Date(2026, 10, 16, 12, 30, 45, 0, time.Local)

func writeFile(t *testing.T, file, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0755))
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))
}

// newTestProject creates a project with data/ and the notebook files, but no output/
func newTestProject(t *testing.T) *Project {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "data", "extracted", "N0_fluo.csv"), "wavelength,intensity\n300,0.12\n301,0.15\n")
	writeFile(t, filepath.Join(dir, "data", "raw.bin"), string([]byte{0, 1, 2, 3, 255}))
	writeFile(t, filepath.Join(dir, "visu.ipynb"), `{"cells": [], "nbformat": 4}`)
	writeFile(t, filepath.Join(dir, "pyproject.toml"), "[tool.poetry]\nname = \"hyrcania\"\n")
	writeFile(t, filepath.Join(dir, "poetry.lock"), "# lock\n")

	p, err := NewProject(dir)
	require.NoError(t, err)
	return p
}

func newTestArchiver(p *Project) (*TarArchiver, *fakeRunner) {
	runner := newFakeRunner()
	runner.output["git -C "+p.Path()+" describe --tags --always"] = "v1.2.0"

	a := NewTarArchiver(p, DefaultConfig(), runner)
	a.now = func() time.Time { return testTime }
	return a, runner
}

type testEntry struct {
	name string
	body string
	dir  bool
	link string
}

func writeTestArchive(t *testing.T, file string, entries ...testEntry) {
	t.Helper()
	f, err := os.Create(file)
	require.NoError(t, err)
	defer f.Close()

	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)
	for _, e := range entries {
		hdr := &tar.Header{
			Name:     e.name,
			Mode:     0644,
			Size:     int64(len(e.body)),
			Typeflag: tar.TypeReg,
			ModTime:  testTime,
		}
		switch {
		case e.dir:
			hdr.Mode = 0755
			hdr.Size = 0
			hdr.Typeflag = tar.TypeDir
		case e.link != "":
			hdr.Mode = 0777
			hdr.Size = 0
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = e.link
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if hdr.Typeflag == tar.TypeReg {
			_, err = tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
