package lyc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/ports"
)

const backupSuffix = ".bak"

var _ ports.FamilyStore = (*FileStore)(nil)

// FileStore keeps limit families as .lyc files. Saves go through a temp file
// in the target directory and a rename, so a reader never sees half a file.
type FileStore struct {
	mu         sync.Mutex
	ser        *Serializer
	keepBackup bool
}

func NewFileStore(ser *Serializer, keepBackup bool) *FileStore {
	if ser == nil {
		ser = NewSerializer(true)
	}
	return &FileStore{ser: ser, keepBackup: keepBackup}
}

// WithExt appends the .lyc extension when path has none.
func WithExt(path string) string {
	if filepath.Ext(path) == "" {
		return path + Ext
	}
	return path
}

func (s *FileStore) Save(path string, f *domain.LimitFamily) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.ser.Marshal(f)
	if err != nil {
		return fmt.Errorf("lyc save %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+strings.TrimSuffix(filepath.Base(path), Ext)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := bufio.NewWriter(tmp)
	if _, err := w.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("lyc save %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if s.keepBackup {
		if err := copyFile(path, path+backupSuffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("lyc backup %s: %w", path, err)
		}
	}
	return os.Rename(tmpPath, path)
}

// Load reads and parses a family. Parse failures come back as
// *domain.SerializationError.
func (s *FileStore) Load(path string) (*domain.LimitFamily, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lyc load %s: %w", path, err)
	}
	f, err := s.ser.Deserialize(data)
	if err != nil {
		return nil, fmt.Errorf("lyc load %s: %w", path, err)
	}
	return f, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
