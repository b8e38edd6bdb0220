package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuhash/docuhash/pkg/hashcode"
	"github.com/docuhash/docuhash/pkg/registry"
)

func newRecord(t *testing.T, code, namespace string) *registry.Record {
	t.Helper()
	parsed := hashcode.MustParse(code)
	return &registry.Record{
		Version: registry.SchemaVersion,
		TraceID: "00000000-0000-0000-0000-000000000000",
		HashInfo: registry.HashInfo{
			HashCode:  parsed,
			ShortCode: parsed.ShortCode(),
			Algorithm: registry.HashAlgorithm,
		},
		UserInfo: registry.UserInfo{UserID: namespace},
		FormData: map[string]any{},
	}
}

func TestStore_Put(t *testing.T) {
	ctx := context.Background()
	store := New()

	location, err := store.Put(ctx, newRecord(t, "CM-A1B2C3D4E5F6", "audit_app"), false)
	require.NoError(t, err)
	assert.Equal(t, "mem://audit_app/CM-A1B2C3D4E5F6", location)
	assert.Equal(t, 1, store.Len())

	t.Run("duplicate code fails across namespaces", func(t *testing.T) {
		_, err := store.Put(ctx, newRecord(t, "CM-A1B2C3D4E5F6", "other_app"), false)
		assert.True(t, registry.IsAlreadyExists(err))
		assert.Equal(t, 1, store.Len())
	})

	t.Run("overwrite moves the record to its new namespace", func(t *testing.T) {
		_, err := store.Put(ctx, newRecord(t, "CM-A1B2C3D4E5F6", "other_app"), true)
		require.NoError(t, err)
		assert.Equal(t, 1, store.Len())

		got, err := store.GetByHashCode(ctx, hashcode.MustParse("CM-A1B2C3D4E5F6"))
		require.NoError(t, err)
		assert.Equal(t, "other_app", got.OwnerNamespace())
	})
}

func TestStore_GetReturnsACopy(t *testing.T) {
	ctx := context.Background()
	store := New()

	_, err := store.Put(ctx, newRecord(t, "CM-A1B2C3D4E5F6", "audit_app"), false)
	require.NoError(t, err)

	got, err := store.GetByHashCode(ctx, hashcode.MustParse("CM-A1B2C3D4E5F6"))
	require.NoError(t, err)
	got.UserInfo.ClientName = "mutated"

	again, err := store.GetByHashCode(ctx, hashcode.MustParse("CM-A1B2C3D4E5F6"))
	require.NoError(t, err)
	assert.Empty(t, again.UserInfo.ClientName)
}

func TestStore_IterateAllOrder(t *testing.T) {
	ctx := context.Background()
	store := New()

	for _, r := range []*registry.Record{
		newRecord(t, "OT-C1B2C3D4E5F6", "beta"),
		newRecord(t, "IA-B1B2C3D4E5F6", "alpha"),
		newRecord(t, "CM-A1B2C3D4E5F6", "beta"),
	} {
		_, err := store.Put(ctx, r, false)
		require.NoError(t, err)
	}

	var seen []string
	require.NoError(t, store.IterateAll(ctx, func(r *registry.Record) (bool, error) {
		seen = append(seen, r.HashCode().String())
		return true, nil
	}))
	assert.Equal(t, []string{"IA-B1B2C3D4E5F6", "CM-A1B2C3D4E5F6", "OT-C1B2C3D4E5F6"}, seen)
}

func TestStore_IterateAllCancelled(t *testing.T) {
	store := New()
	_, err := store.Put(context.Background(), newRecord(t, "CM-A1B2C3D4E5F6", "audit_app"), false)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = store.IterateAll(ctx, func(*registry.Record) (bool, error) {
		return true, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
