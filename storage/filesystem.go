package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

type filesystemStore struct {
	dir string
}

// NewFilesystemStore stores snapshots as <dir>/<tournament id>.json.
func NewFilesystemStore(dir string) (SnapshotStore, error) {
	if dir == "" {
		return nil, errors.New("snapshot directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory %s: %w", dir, err)
	}
	return &filesystemStore{dir: dir}, nil
}

func (s *filesystemStore) path(tournamentID uuid.UUID) string {
	return filepath.Join(s.dir, snapshotName(tournamentID))
}

func (s *filesystemStore) Exists(_ context.Context, tournamentID uuid.UUID) (bool, error) {
	_, err := os.Stat(s.path(tournamentID))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to stat snapshot for %s: %w", tournamentID, err)
	}
}

func (s *filesystemStore) Load(ctx context.Context, tournamentID uuid.UUID) ([]byte, error) {
	rc, err := s.Open(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot for %s: %w", tournamentID, err)
	}
	return data, nil
}

func (s *filesystemStore) Open(_ context.Context, tournamentID uuid.UUID) (io.ReadCloser, error) {
	f, err := os.Open(s.path(tournamentID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to open snapshot for %s: %w", tournamentID, err)
	}
	return f, nil
}

// Save writes to a temp file in the same directory and renames it over the
// target, so a crash never leaves a truncated snapshot behind.
func (s *filesystemStore) Save(_ context.Context, tournamentID uuid.UUID, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, "."+tournamentID.String()+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot for %s: %w", tournamentID, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot for %s: %w", tournamentID, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to sync snapshot for %s: %w", tournamentID, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close snapshot for %s: %w", tournamentID, err)
	}
	if err := os.Rename(tmpName, s.path(tournamentID)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot for %s: %w", tournamentID, err)
	}
	return nil
}

func (s *filesystemStore) Delete(_ context.Context, tournamentID uuid.UUID) error {
	err := os.Remove(s.path(tournamentID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete snapshot for %s: %w", tournamentID, err)
	}
	return nil
}

func (s *filesystemStore) Ping(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("snapshot directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("snapshot path %s is not a directory", s.dir)
	}
	return nil
}
