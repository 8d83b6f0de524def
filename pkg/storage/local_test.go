package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(t.TempDir())

	_, err := s.Get(ctx, "azure_pricing.json")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, "azure_pricing.json", []byte(`{"a":1}`)))
	require.NoError(t, s.Put(ctx, "azure_pricing.json", []byte(`{"a":2}`)))

	data, err := s.Get(ctx, "azure_pricing.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(data))

	require.NoError(t, s.Put(ctx, "aws_pricing.json", []byte(`{}`)))
	keys, err := s.List(ctx, "a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"azure_pricing.json", "aws_pricing.json"}, keys)

	require.NoError(t, s.Delete(ctx, "azure_pricing.json"))
	require.NoError(t, s.Delete(ctx, "azure_pricing.json"), "deleting a missing key is not an error")

	_, err = s.Get(ctx, "azure_pricing.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListMissingRoot(t *testing.T) {
	s := NewLocalStore(t.TempDir() + "/missing")
	keys, err := s.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, t.TempDir(), "")
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, s)

	_, err = Open(ctx, "s3:///prefix", "us-east-1")
	assert.Error(t, err)
}
