package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"scout.app/research/internal/model"
)

const (
	statusKeyPrefix = "scout:job:status:"
	resultKeyPrefix = "scout:job:result:"
	jobIndexKey     = "scout:jobs"
)

// redisRegistry backs the job registry with Redis so job records survive a
// process restart. Records are stored as JSON blobs; a single SET replaces
// the whole status record, which keeps status+current_step updates atomic.
type redisRegistry struct {
	statuses *redisStatusStore
	results  *redisResultStore
}

// NewRedis creates a Redis-backed registry on an established client.
func NewRedis(client *redis.Client) Registry {
	return &redisRegistry{
		statuses: &redisStatusStore{client: client},
		results:  &redisResultStore{client: client},
	}
}

func (r *redisRegistry) Statuses() StatusStore { return r.statuses }
func (r *redisRegistry) Results() ResultStore  { return r.results }

type redisStatusStore struct {
	client *redis.Client
}

func (s *redisStatusStore) Insert(ctx context.Context, status *model.JobStatus) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, statusKeyPrefix+status.JobID, payload, 0)
	pipe.RPush(ctx, jobIndexKey, status.JobID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert status: %w", err)
	}
	return nil
}

func (s *redisStatusStore) Get(ctx context.Context, jobID string) (*model.JobStatus, error) {
	payload, err := s.client.Get(ctx, statusKeyPrefix+jobID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get status: %w", err)
	}

	var status model.JobStatus
	if err := json.Unmarshal(payload, &status); err != nil {
		return nil, fmt.Errorf("unmarshal status: %w", err)
	}
	return &status, nil
}

func (s *redisStatusStore) Update(ctx context.Context, status *model.JobStatus) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}

	// XX: only replace an existing record, never create one on update
	set, err := s.client.SetXX(ctx, statusKeyPrefix+status.JobID, payload, 0).Result()
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if !set {
		return ErrNotFound
	}
	return nil
}

func (s *redisStatusStore) List(ctx context.Context) ([]model.JobStatus, error) {
	jobIDs, err := s.client.LRange(ctx, jobIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	snapshot := make([]model.JobStatus, 0, len(jobIDs))
	for _, jobID := range jobIDs {
		status, err := s.Get(ctx, jobID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		snapshot = append(snapshot, *status)
	}
	return snapshot, nil
}

type redisResultStore struct {
	client *redis.Client
}

func (s *redisResultStore) Write(ctx context.Context, result *model.JobResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	if err := s.client.Set(ctx, resultKeyPrefix+result.JobID, payload, 0).Err(); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

func (s *redisResultStore) Get(ctx context.Context, jobID string) (*model.JobResult, error) {
	payload, err := s.client.Get(ctx, resultKeyPrefix+jobID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}

	var result model.JobResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &result, nil
}
