package execution

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/uuid"
	"github.com/pierrec/lz4"
)

// An InfoArchive persists final stage execution snapshots to disk as
// lz4-compressed JSON, one file per snapshot. Snapshots of long-finished
// stages can be dropped from memory and recovered from the archive.
type InfoArchive struct {
	dir string
}

// CreateInfoArchive is a factory for InfoArchives rooted at the given
// directory, which is created if absent
func CreateInfoArchive(dir string) (*InfoArchive, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &InfoArchive{dir: dir}, nil
}

// Archive writes one snapshot and returns the path of the created file
func (a *InfoArchive) Archive(info *StageExecutionInfo) (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	path := filepath.Join(a.dir, fmt.Sprintf("%s-%s.json.lz4", info.StageExecutionID, id))

	data, err := json.Marshal(info)
	if err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	w := lz4.NewWriter(f)
	if _, err := w.Write(data); err != nil {
		f.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads one archived snapshot back from disk
func (a *InfoArchive) Load(path string) (*StageExecutionInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var info StageExecutionInfo
	if err := json.NewDecoder(lz4.NewReader(f)).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}
