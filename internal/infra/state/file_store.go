// internal/infra/state/file_store.go
package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"econ_release_notifier/internal/apperr"
	"econ_release_notifier/internal/domain/ledger"
)

// FileStore implements ledger.Repository on a single JSON document.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file location, for plan output.
func (s *FileStore) Path() string { return s.path }

// Load reads the ledger. An absent file yields an empty ledger; an unreadable
// or unparseable file is a configuration error, and the file is left exactly
// as it was so the operator can inspect or repair it.
func (s *FileStore) Load(ctx context.Context, now time.Time) (*ledger.Ledger, error) {
	_ = ctx
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return ledger.New(), nil
	}
	if err != nil {
		return nil, apperr.UsageWrap(err,
			fmt.Sprintf("cannot read state file %s", s.path),
			"check the path and its permissions")
	}
	l, err := ledger.Decode(data, now)
	if err != nil {
		return nil, apperr.UsageWrap(err,
			fmt.Sprintf("state file %s is corrupt", s.path),
			"repair or remove the file manually; it will not be overwritten")
	}
	return l, nil
}

// Save writes the ledger to a temporary file in the destination directory and
// renames it over the target, so the file on disk is always either the
// previous complete document or the new one.
func (s *FileStore) Save(ctx context.Context, l *ledger.Ledger) error {
	_ = ctx
	data, err := l.Encode()
	if err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperr.UsageWrap(err,
			fmt.Sprintf("cannot create state directory %s", dir),
			"choose a writable location with --state")
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return apperr.UsageWrap(err,
			fmt.Sprintf("cannot write state file %s", s.path),
			"choose a writable location with --state")
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}
