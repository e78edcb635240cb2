package favorites

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/persibuloi/kamenic/internal/catalog"
	pkgerrors "github.com/persibuloi/kamenic/pkg/errors"
)

func TestListDedupAndToggle(t *testing.T) {
	l := &List{}
	a := catalog.Product{ID: "a"}
	assert.True(t, l.Add(a))
	assert.False(t, l.Add(a))
	assert.Equal(t, 1, l.Count())

	assert.False(t, l.Toggle(a))
	assert.False(t, l.Contains("a"))
	assert.True(t, l.Toggle(a))
	assert.True(t, l.Contains("a"))

	assert.False(t, l.Remove("missing"))
	l.Clear()
	assert.Zero(t, l.Count())
}

func TestDecodeDiscardsMalformedAndDuplicates(t *testing.T) {
	assert.Zero(t, Decode([]byte("oops")).Count())
	l := Decode([]byte(`[{"id":"a"},{"id":"a"},{"id":""},{"id":"b"}]`))
	assert.Equal(t, 2, l.Count())
}

type memoryStorage struct {
	data map[string]string
}

func (m *memoryStorage) Lookup(_ context.Context, key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryStorage) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.data[key] = value.(string)
	return nil
}

func (m *memoryStorage) FavoritesKey(sessionID string) string {
	return "kame:favorites:" + sessionID
}

type stubFinder map[string]catalog.Product

func (s stubFinder) Product(_ context.Context, id string) (catalog.Product, error) {
	if p, ok := s[id]; ok {
		return p, nil
	}
	return catalog.Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func TestServicePersistsPerSession(t *testing.T) {
	storage := &memoryStorage{data: map[string]string{}}
	svc, err := NewService(ServiceParams{Storage: storage, Products: stubFinder{"a": {ID: "a", Precio1: 10}, "b": {ID: "b"}}})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.Add(ctx, "s1", "a")
	require.NoError(t, err)
	sum, err := svc.Add(ctx, "s1", "a")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Count)

	ok, err := svc.Contains(ctx, "s1", "a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Contains(ctx, "s2", "a")
	require.NoError(t, err)
	assert.False(t, ok, "favorites are scoped to the session")

	now, sum, err := svc.Toggle(ctx, "s1", "b")
	require.NoError(t, err)
	assert.True(t, now)
	assert.Equal(t, 2, sum.Count)

	now, sum, err = svc.Toggle(ctx, "s1", "a")
	require.NoError(t, err)
	assert.False(t, now)
	assert.Equal(t, 1, sum.Count)

	_, _, err = svc.Toggle(ctx, "s1", "zzz")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	sum, err = svc.Clear(ctx, "s1")
	require.NoError(t, err)
	assert.Zero(t, sum.Count)
	assert.Equal(t, "[]", storage.data["kame:favorites:s1"])
}
