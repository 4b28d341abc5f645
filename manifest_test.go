package hyrcania

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestFormat(t *testing.T) {
	m := &Manifest{
		Created:  testTime,
		Root:     "hyrcania_backup_20261016_123045",
		Version:  "v1.2.0-3-gabcdef",
		DataSize: "1.2 MB",
	}

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, `Backup created: 2026-10-16 12:30:45
Root: hyrcania_backup_20261016_123045
Version: v1.2.0-3-gabcdef
Data size: 1.2 MB
`, buf.String())

	parsed, err := ParseManifest(&buf)
	require.NoError(t, err)
	assert.Equal(t, m.Root, parsed.Root)
	assert.True(t, parsed.Created.Equal(testTime))
}

func TestParseManifestIgnoresNoise(t *testing.T) {
	m, err := ParseManifest(strings.NewReader("garbage line\nRoot:   spaced_root  \nColour: green\n"))
	require.NoError(t, err)
	assert.Equal(t, "spaced_root", m.Root)
	assert.True(t, m.Created.IsZero())
	assert.Empty(t, m.Version)
}
