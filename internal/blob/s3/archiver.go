package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

// ObjectWriter is the slice of Writer the archiver needs; tests substitute an
// in-memory implementation.
type ObjectWriter interface {
	Put(ctx context.Context, key string, data io.Reader, contentType string) error
}

// Archiver writes batches of edge records to object storage as JSON lines,
// one object per batch under a date-partitioned prefix.
type Archiver struct {
	writer ObjectWriter
}

// NewArchiver creates an Archiver on top of the given writer.
func NewArchiver(w ObjectWriter) *Archiver {
	return &Archiver{writer: w}
}

// Archive uploads recs as one JSONL object. The key is
// "edges/YYYY/MM/DD/<uuid>.json", partitioned by the timestamp of the first
// record. An empty batch is a no-op.
func (a *Archiver) Archive(ctx context.Context, recs []domain.EdgeRecord) error {
	if len(recs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, rec := range recs {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("s3blob: encode edge %s: %w", rec.ID, err)
		}
	}

	ts := recs[0].TS.UTC()
	key := fmt.Sprintf("edges/%04d/%02d/%02d/%s.json",
		ts.Year(), ts.Month(), ts.Day(), uuid.New())

	if err := a.writer.Put(ctx, key, &buf, "application/json"); err != nil {
		return fmt.Errorf("s3blob: archive edges: %w", err)
	}
	return nil
}
