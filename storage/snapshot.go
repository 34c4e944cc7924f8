package storage

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
)

var ErrSnapshotNotFound = errors.New("bracket snapshot not found")

const SnapshotContentType = "application/json"

// SnapshotStore keeps one exported bracket per tournament. Save must replace
// the previous blob atomically: readers see either the old or the new bytes.
type SnapshotStore interface {
	Exists(ctx context.Context, tournamentID uuid.UUID) (bool, error)
	Load(ctx context.Context, tournamentID uuid.UUID) ([]byte, error)
	Open(ctx context.Context, tournamentID uuid.UUID) (io.ReadCloser, error)
	Save(ctx context.Context, tournamentID uuid.UUID, data []byte) error
	Delete(ctx context.Context, tournamentID uuid.UUID) error
	Ping(ctx context.Context) error
}

func snapshotName(tournamentID uuid.UUID) string {
	return tournamentID.String() + ".json"
}
