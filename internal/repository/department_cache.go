package repository

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-triage/internal/domain"
)

const departmentsKey = "triage:departments"

type cachedDepartmentRepository struct {
	next   DepartmentRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedDepartmentRepository keeps the department table in a Redis hash
// (id -> name). Redis failures are logged and the call falls through to next.
// A nil client returns next unchanged.
func NewCachedDepartmentRepository(next DepartmentRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) DepartmentRepository {
	if client == nil || ttl <= 0 {
		return next
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cachedDepartmentRepository{next: next, client: client, ttl: ttl, logger: logger}
}

func (r *cachedDepartmentRepository) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	name, err := r.client.HGet(ctx, departmentsKey, id).Result()
	switch {
	case err == nil:
		return &domain.Department{ID: id, Name: name}, nil
	case errors.Is(err, redis.Nil):
		// Missing ids are never negatively cached.
	default:
		r.logger.Warn("department cache read failed", zap.String("department_id", id), zap.Error(err))
	}

	dept, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.refresh(ctx)
	return dept, nil
}

func (r *cachedDepartmentRepository) List(ctx context.Context) ([]domain.Department, error) {
	cached, err := r.client.HGetAll(ctx, departmentsKey).Result()
	if err != nil {
		r.logger.Warn("department cache read failed", zap.Error(err))
	}
	if len(cached) > 0 {
		result := make([]domain.Department, 0, len(cached))
		for id, name := range cached {
			result = append(result, domain.Department{ID: id, Name: name})
		}
		slices.SortFunc(result, func(a, b domain.Department) int {
			return strings.Compare(a.Name, b.Name)
		})
		return result, nil
	}

	depts, err := r.next.List(ctx)
	if err != nil {
		return nil, err
	}
	r.store(ctx, depts)
	return depts, nil
}

func (r *cachedDepartmentRepository) refresh(ctx context.Context) {
	depts, err := r.next.List(ctx)
	if err != nil {
		r.logger.Warn("department cache refresh failed", zap.Error(err))
		return
	}
	r.store(ctx, depts)
}

func (r *cachedDepartmentRepository) store(ctx context.Context, depts []domain.Department) {
	if len(depts) == 0 {
		return
	}
	fields := make(map[string]any, len(depts))
	for _, d := range depts {
		fields[d.ID] = d.Name
	}
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, departmentsKey)
	pipe.HSet(ctx, departmentsKey, fields)
	pipe.Expire(ctx, departmentsKey, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warn("department cache write failed", zap.Error(err))
	}
}
