package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
	"github.com/seduc-pe/academic-hub/internal/infrastructure/provider/fixture"
)

type memStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	failGet bool
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return errors.New("connection refused")
	}
	raw, ok := m.data[key]
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memStore) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	m.ttls[key] = ttl
	return nil
}

func (m *memStore) DeleteByPattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

type countingSource struct {
	Source
	mu    sync.Mutex
	calls map[string]int
}

func (c *countingSource) hit(name string) {
	c.mu.Lock()
	c.calls[name]++
	c.mu.Unlock()
}

func (c *countingSource) ListSchools(ctx context.Context) ([]academic.School, error) {
	c.hit("schools")
	return c.Source.ListSchools(ctx)
}

func (c *countingSource) ListStudents(ctx context.Context, id shared.ID) ([]academic.Student, error) {
	c.hit("students")
	return c.Source.ListStudents(ctx, id)
}

func (c *countingSource) GetClassGroupByID(ctx context.Context, id shared.ID) (academic.ClassGroup, error) {
	c.hit("class_group")
	return c.Source.GetClassGroupByID(ctx, id)
}

func newTestDirectory() (*CachedDirectory, *countingSource, *memStore) {
	src := &countingSource{Source: fixture.New(fixture.WithLatency(0, 0)), calls: map[string]int{}}
	mem := newMemStore()
	return newCachedDirectory(src, mem, nil), src, mem
}

func TestCachedDirectory_ReadThrough(t *testing.T) {
	dir, src, mem := newTestDirectory()
	ctx := context.Background()

	first, err := dir.ListSchools(ctx)
	require.NoError(t, err)
	second, err := dir.ListSchools(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.calls["schools"])
	assert.Equal(t, TTLReference, mem.ttls[schoolsKey()])

	roster, err := dir.ListStudents(ctx, fixture.Class1A)
	require.NoError(t, err)
	require.NotEmpty(t, roster)
	assert.Equal(t, "Ana Beatriz Souza", roster[0].Name)
	assert.Equal(t, TTLRoster, mem.ttls[rosterKey(fixture.Class1A.Int64())])
}

func TestCachedDirectory_ErrorsAreNotCached(t *testing.T) {
	dir, src, _ := newTestDirectory()
	ctx := context.Background()

	_, err := dir.GetClassGroupByID(ctx, 9999)
	assert.ErrorIs(t, err, shared.ErrClassGroupNotFound)
	_, err = dir.GetClassGroupByID(ctx, 9999)
	assert.ErrorIs(t, err, shared.ErrClassGroupNotFound)
	assert.Equal(t, 2, src.calls["class_group"])
}

func TestCachedDirectory_FallsThroughOnCacheFailure(t *testing.T) {
	dir, src, mem := newTestDirectory()
	mem.failGet = true
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		schools, err := dir.ListSchools(ctx)
		require.NoError(t, err)
		assert.Len(t, schools, 3)
	}
	assert.Equal(t, 2, src.calls["schools"])
}

func TestCachedDirectory_Invalidate(t *testing.T) {
	dir, src, _ := newTestDirectory()
	ctx := context.Background()

	_, err := dir.ListSchools(ctx)
	require.NoError(t, err)
	require.NoError(t, dir.Invalidate(ctx))
	_, err = dir.ListSchools(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, src.calls["schools"])
}
