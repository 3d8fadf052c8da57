package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
)

// store is the subset of *Cache used by the directory decorator.
type store interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// Source is the directory being cached, usually the postgres repository.
type Source interface {
	academic.Directory
	academic.StaffDirectory
}

// CachedDirectory is a read-through cache in front of a Source. Cache
// failures are logged and the lookup falls through to the source.
type CachedDirectory struct {
	source Source
	cache  store
	logger *slog.Logger

	referenceTTL time.Duration
	rosterTTL    time.Duration
}

var (
	_ academic.Directory      = (*CachedDirectory)(nil)
	_ academic.StaffDirectory = (*CachedDirectory)(nil)
)

// NewCachedDirectory wraps source with cache.
func NewCachedDirectory(source Source, cache *Cache, logger *slog.Logger) *CachedDirectory {
	return newCachedDirectory(source, cache, logger)
}

func newCachedDirectory(source Source, cache store, logger *slog.Logger) *CachedDirectory {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedDirectory{
		source:       source,
		cache:        cache,
		logger:       logger.With("component", "directory_cache"),
		referenceTTL: TTLReference,
		rosterTTL:    TTLRoster,
	}
}

// WithTTL overrides the expiry of reference data and rosters. Zero keeps the default.
func (d *CachedDirectory) WithTTL(reference, roster time.Duration) *CachedDirectory {
	if reference > 0 {
		d.referenceTTL = reference
	}
	if roster > 0 {
		d.rosterTTL = roster
	}
	return d
}

// readThrough serves key from cache or loads it and stores the result.
func readThrough[T any](ctx context.Context, d *CachedDirectory, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var cached T
	err := d.cache.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		d.logger.Warn("cache read failed", "key", key, "error", err)
	}

	value, err := load()
	if err != nil {
		return value, err
	}
	if err := d.cache.Set(ctx, key, value, ttl); err != nil {
		d.logger.Warn("cache write failed", "key", key, "error", err)
	}
	return value, nil
}

func (d *CachedDirectory) ListSchools(ctx context.Context) ([]academic.School, error) {
	return readThrough(ctx, d, schoolsKey(), d.referenceTTL, func() ([]academic.School, error) {
		return d.source.ListSchools(ctx)
	})
}

func (d *CachedDirectory) ListClassGroups(ctx context.Context, schoolID shared.ID) ([]academic.ClassGroup, error) {
	return readThrough(ctx, d, classGroupsKey(schoolID.Int64()), d.referenceTTL, func() ([]academic.ClassGroup, error) {
		return d.source.ListClassGroups(ctx, schoolID)
	})
}

func (d *CachedDirectory) GetClassGroupByID(ctx context.Context, id shared.ID) (academic.ClassGroup, error) {
	return readThrough(ctx, d, classGroupKey(id.Int64()), d.referenceTTL, func() (academic.ClassGroup, error) {
		return d.source.GetClassGroupByID(ctx, id)
	})
}

func (d *CachedDirectory) ListSubjects(ctx context.Context, level academic.EducationLevel) ([]academic.Subject, error) {
	return readThrough(ctx, d, subjectsKey(string(level)), d.referenceTTL, func() ([]academic.Subject, error) {
		return d.source.ListSubjects(ctx, level)
	})
}

func (d *CachedDirectory) ListStudents(ctx context.Context, classGroupID shared.ID) ([]academic.Student, error) {
	return readThrough(ctx, d, rosterKey(classGroupID.Int64()), d.rosterTTL, func() ([]academic.Student, error) {
		return d.source.ListStudents(ctx, classGroupID)
	})
}

func (d *CachedDirectory) ListTeachers(ctx context.Context) ([]academic.Teacher, error) {
	return readThrough(ctx, d, teachersKey(), d.referenceTTL, func() ([]academic.Teacher, error) {
		return d.source.ListTeachers(ctx)
	})
}

func (d *CachedDirectory) ListTeacherAllocations(ctx context.Context, teacherID shared.ID) ([]academic.Allocation, error) {
	return readThrough(ctx, d, allocationsKey(teacherID.Int64()), d.referenceTTL, func() ([]academic.Allocation, error) {
		return d.source.ListTeacherAllocations(ctx, teacherID)
	})
}

// Invalidate drops every cached directory entry, e.g. after reseeding.
func (d *CachedDirectory) Invalidate(ctx context.Context) error {
	return d.cache.DeleteByPattern(ctx, PrefixDirectory+"*")
}
