package hyrcania

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

// ManifestName is the metadata file stored at the top of every archive
const ManifestName = "backup_info.txt"

const manifestTimeFormat = "2006-01-02 15:04:05"

const (
	manifestKeyCreated  = "Backup created"
	manifestKeyRoot     = "Root"
	manifestKeyVersion  = "Version"
	manifestKeyDataSize = "Data size"
)

// Manifest describes an archive. Only Root is read back when restoring.
type Manifest struct {
	Created  time.Time
	Root     string
	Version  string
	DataSize string
}

func (m *Manifest) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w, "%s: %s\n%s: %s\n%s: %s\n%s: %s\n",
		manifestKeyCreated, m.Created.Format(manifestTimeFormat),
		manifestKeyRoot, m.Root,
		manifestKeyVersion, m.Version,
		manifestKeyDataSize, m.DataSize)
	return int64(n), err
}

// ParseManifest reads "Key: Value" lines, unknown keys and malformed lines are ignored
func ParseManifest(r io.Reader) (*Manifest, error) {
	m := &Manifest{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		parts := strings.SplitN(scanner.Text(), ":", 2)
		if len(parts) != 2 {
			continue
		}

		value := strings.TrimSpace(parts[1])
		switch strings.TrimSpace(parts[0]) {
		case manifestKeyCreated:
			if t, err := time.ParseInLocation(manifestTimeFormat, value, time.Local); err == nil {
				m.Created = t
			}
		case manifestKeyRoot:
			m.Root = value
		case manifestKeyVersion:
			m.Version = value
		case manifestKeyDataSize:
			m.DataSize = value
		}
	}
	return m, scanner.Err()
}
