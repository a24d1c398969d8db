package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

// EdgeCache implements domain.EdgeCache using Redis hashes. The latest edge
// for a tag is stored at key "edge:{tag}" with one field per record column;
// the edge value is kept as its exact decimal string.
type EdgeCache struct {
	rdb *redis.Client
}

// NewEdgeCache creates an EdgeCache backed by the given Client.
func NewEdgeCache(c *Client) *EdgeCache {
	return &EdgeCache{rdb: c.Underlying()}
}

func edgeKey(tag string) string {
	return "edge:" + tag
}

// SetLatest stores rec as the latest edge for its tag, replacing any
// previous value.
func (ec *EdgeCache) SetLatest(ctx context.Context, rec domain.EdgeRecord) error {
	fields := map[string]interface{}{
		"id":           rec.ID.String(),
		"yes_exchange": string(rec.YesExchange),
		"no_exchange":  string(rec.NoExchange),
		"edge":         rec.Edge.String(),
		"ts":           strconv.FormatInt(rec.TS.UnixNano(), 10),
	}
	if err := ec.rdb.HSet(ctx, edgeKey(rec.Tag), fields).Err(); err != nil {
		return fmt.Errorf("redis: set latest edge %s: %w", rec.Tag, err)
	}
	return nil
}

// GetLatest retrieves the latest edge for a tag. It returns
// domain.ErrNotFound when no edge has been cached for the tag.
func (ec *EdgeCache) GetLatest(ctx context.Context, tag string) (domain.EdgeRecord, error) {
	vals, err := ec.rdb.HGetAll(ctx, edgeKey(tag)).Result()
	if err != nil {
		return domain.EdgeRecord{}, fmt.Errorf("redis: get latest edge %s: %w", tag, err)
	}
	if len(vals) == 0 {
		return domain.EdgeRecord{}, domain.ErrNotFound
	}
	return edgeFromFields(tag, vals)
}

// GetAll retrieves the latest cached edge for each of the given tags using a
// pipeline. Tags with no cached edge are silently omitted.
func (ec *EdgeCache) GetAll(ctx context.Context, tags []string) (map[string]domain.EdgeRecord, error) {
	if len(tags) == 0 {
		return map[string]domain.EdgeRecord{}, nil
	}

	pipe := ec.rdb.Pipeline()
	cmds := make(map[string]*redis.MapStringStringCmd, len(tags))
	for _, tag := range tags {
		cmds[tag] = pipe.HGetAll(ctx, edgeKey(tag))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis: get all edges pipeline: %w", err)
	}

	result := make(map[string]domain.EdgeRecord, len(tags))
	for tag, cmd := range cmds {
		vals, err := cmd.Result()
		if err != nil || len(vals) == 0 {
			continue
		}
		rec, err := edgeFromFields(tag, vals)
		if err != nil {
			continue
		}
		result[tag] = rec
	}
	return result, nil
}

func edgeFromFields(tag string, vals map[string]string) (domain.EdgeRecord, error) {
	id, err := uuid.Parse(vals["id"])
	if err != nil {
		return domain.EdgeRecord{}, fmt.Errorf("redis: parse edge id for %s: %w", tag, err)
	}
	edge, err := decimal.NewFromString(vals["edge"])
	if err != nil {
		return domain.EdgeRecord{}, fmt.Errorf("redis: parse edge value for %s: %w", tag, err)
	}
	tsNano, err := strconv.ParseInt(vals["ts"], 10, 64)
	if err != nil {
		return domain.EdgeRecord{}, fmt.Errorf("redis: parse edge ts for %s: %w", tag, err)
	}

	return domain.EdgeRecord{
		ID:          id,
		Tag:         tag,
		YesExchange: domain.Exchange(vals["yes_exchange"]),
		NoExchange:  domain.Exchange(vals["no_exchange"]),
		Edge:        edge,
		TS:          time.Unix(0, tsNano).UTC(),
	}, nil
}

// Compile-time interface check.
var _ domain.EdgeCache = (*EdgeCache)(nil)
