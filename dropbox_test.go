package hyrcania

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashFile(t *testing.T) {
	dir := t.TempDir()

	// two blocks of 4 MiB, the second one short
	const block = 4 * 1024 * 1024
	data := bytes.Repeat([]byte("olive"), block/5+7)
	first := sha256.Sum256(data[:block])
	second := sha256.Sum256(data[block:])
	want := sha256.Sum256(append(first[:], second[:]...))

	file := filepath.Join(dir, "archive.tar.gz")
	writeFile(t, file, string(data))
	hash, err := HashFile(file)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%x", want), hash)

	_, err = HashFile(filepath.Join(dir, "missing.tar.gz"))
	assert.True(t, os.IsNotExist(err))
}

func TestNewDropboxRequiresToken(t *testing.T) {
	_, err := NewDropbox("")
	assert.Equal(t, ErrMissingDropboxToken, err)

	db, err := NewDropbox("token")
	require.NoError(t, err)
	assert.NotNil(t, db)
}

func TestDropboxUploadTooLarge(t *testing.T) {
	file := filepath.Join(t.TempDir(), "hyrcania_backup_20260101_000000.tar.gz")
	f, err := os.Create(file)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(MaxUploadSize+1))
	require.NoError(t, f.Close())

	db, err := NewDropbox("token")
	require.NoError(t, err)

	err = db.Upload(file, "/hyrcania/hyrcania_backup_20260101_000000.tar.gz")
	assert.ErrorIs(t, err, ErrUploadTooLarge)
}

func TestDiffResultString(t *testing.T) {
	assert.Equal(t, "MATCH", DiffResultMatch.String())
	assert.Equal(t, "LOCAL", DiffResultOnlyExistsLocal.String())
	assert.Equal(t, "UNKNOWN", DiffResult(42).String())
}

type listFolderTransport struct {
	pages map[string]string
	paths []string
}

func (l *listFolderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	l.paths = append(l.paths, req.URL.Path)
	body, ok := l.pages[req.URL.Path]
	if !ok {
		return nil, fmt.Errorf("unexpected request to %s", req.URL.Path)
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}, nil
}

func TestDropboxWalkDiffsFollowsPages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "hyrcania_backup_20260101_000000.tar.gz"), "same")
	writeFile(t, filepath.Join(dir, "hyrcania_backup_20260103_000000.tar.gz"), "local only")
	hash, err := HashFile(filepath.Join(dir, "hyrcania_backup_20260101_000000.tar.gz"))
	require.NoError(t, err)

	transport := &listFolderTransport{pages: map[string]string{
		"/2/files/list_folder": `{"entries": [
			{".tag": "file", "name": "hyrcania_backup_20260101_000000.tar.gz", "content_hash": "` + hash + `"}
		], "cursor": "page-2", "has_more": true}`,
		"/2/files/list_folder/continue": `{"entries": [
			{".tag": "file", "name": "hyrcania_backup_20260102_000000.tar.gz", "content_hash": "abc"},
			{".tag": "folder", "name": "old"}
		], "cursor": "page-3", "has_more": false}`,
	}}

	db, err := NewDropbox("token")
	require.NoError(t, err)
	db.client.HTTPClient = &http.Client{Transport: transport}

	diffs := map[string]DiffResult{}
	err = db.WalkDiffs(dir, "/hyrcania", skipNonArchives, func(name string, diff DiffResult) error {
		diffs[name] = diff
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"/2/files/list_folder", "/2/files/list_folder/continue"}, transport.paths)
	assert.Equal(t, map[string]DiffResult{
		"hyrcania_backup_20260101_000000.tar.gz": DiffResultMatch,
		"hyrcania_backup_20260102_000000.tar.gz": DiffResultOnlyExistsRemote,
		"hyrcania_backup_20260103_000000.tar.gz": DiffResultOnlyExistsLocal,
	}, diffs)
}
