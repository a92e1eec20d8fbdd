package storage

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// DiskStore keeps error reports in a flat directory on local disk.
type DiskStore struct {
	Dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating report directory")
	}
	return &DiskStore{Dir: dir}, nil
}

func (s *DiskStore) Put(name string, content []byte) error {
	return errors.Wrap(os.WriteFile(filepath.Join(s.Dir, name), content, 0o644), "writing report")
}

func (s *DiskStore) Open(name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.Dir, name))
	return f, errors.Wrap(err, "opening report")
}

func (s *DiskStore) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(s.Dir, name))
	return err == nil
}
