package domain

import "context"

// SnapshotStore persists normalized snapshot records.
type SnapshotStore interface {
	Insert(ctx context.Context, rec SnapshotRecord) error
	ListRecent(ctx context.Context, limit int) ([]SnapshotRecord, error)
}

// EdgeStore persists computed edge records.
type EdgeStore interface {
	Insert(ctx context.Context, rec EdgeRecord) error
	ListRecent(ctx context.Context, limit int) ([]EdgeRecord, error)
}

// EdgeCache keeps the latest edge per tag for cheap dashboard reads.
type EdgeCache interface {
	SetLatest(ctx context.Context, rec EdgeRecord) error
	GetLatest(ctx context.Context, tag string) (EdgeRecord, error)
}
