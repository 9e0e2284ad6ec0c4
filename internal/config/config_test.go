package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nainya/ndstore/pkg/collection"
	"github.com/nainya/ndstore/pkg/errs"
	"github.com/nainya/ndstore/pkg/storage"
)

const sample = `
log:
  level: debug
collection:
  sort_by: [name]
  indexes:
    byId: id
  hashes:
    byCountry: country
  views:
    withEmail: email
  collations:
    name: de
  update:
    indexes: true
storage:
  backend: sqlite
  path: ":memory:"
  compression: zstd
server:
  addr: "localhost:8080"
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"name"}, cfg.Collection.SortBy)
	assert.Equal(t, map[string]string{"byId": "id"}, cfg.Collection.Indexes)
	assert.True(t, cfg.Collection.Update.Indexes)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "localhost:8080", cfg.Server.Addr)
}

func TestDefaultsSurviveEmptyFile(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ndstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "zstd", cfg.Storage.Compression)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown backend":    "storage: {backend: floppy}",
		"file without path":  "storage: {backend: file}",
		"s3 without bucket":  "storage: {backend: s3}",
		"badger without dir": "storage: {backend: badger}",
		"bad level":          "log: {level: loud}",
		"bad compression":    "storage: {backend: memory, compression: gzip}",
		"bad addr":           "server: {addr: 'nope'}",
		"empty index dim":    "collection: {indexes: {byId: ''}}",
		"malformed yaml":     "storage: [",
	} {
		_, err := Parse([]byte(doc))
		assert.Error(t, err, name)
	}

	_, err := Parse([]byte("storage: {backend: badger, in_memory: true}"))
	assert.NoError(t, err)
}

func TestOptions(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	opts, err := cfg.Collection.Options(nil)
	require.NoError(t, err)
	c := collection.New(opts,
		map[string]any{"id": 2, "name": "zebra", "country": "de"},
		map[string]any{"id": 1, "name": "Ärger", "country": "de", "email": "a@b.c"},
		map[string]any{"id": 3, "name": "apple", "country": "fr"},
	)

	ix, ok := c.Index("byId")
	require.True(t, ok)
	assert.Equal(t, []string{"1", "2", "3"}, ix.Keys())

	h, _ := c.Hash("byCountry")
	de, _ := h.Get("de")
	assert.Equal(t, 2, de.Len())

	v, _ := c.View("withEmail")
	assert.Equal(t, 1, v.Len())

	c.Sort()
	assert.Equal(t, []any{"apple", "Ärger", "zebra"}, c.FetchValues("name")["name"])
}

func TestOptionsErrors(t *testing.T) {
	_, err := CollectionConfig{Collations: map[string]string{"name": "not a tag!"}}.Options(nil)
	assert.ErrorIs(t, err, errs.ErrInvalidComparator)

	_, err = CollectionConfig{Hashes: map[string]string{"sort": "x"}}.Options(nil)
	assert.ErrorIs(t, err, errs.ErrReservedName)
}

func TestOpenStorage(t *testing.T) {
	ctx := context.Background()
	for name, sc := range map[string]StorageConfig{
		"memory":      {Backend: "memory"},
		"file":        {Backend: "file", Path: t.TempDir()},
		"badger":      {Backend: "badger", InMemory: true},
		"sqlite":      {Backend: "sqlite", Path: ":memory:"},
		"memory+lz4":  {Backend: "memory", Compression: "lz4"},
		"sqlite+zstd": {Backend: "sqlite", Path: ":memory:", Compression: "zstd"},
	} {
		t.Run(name, func(t *testing.T) {
			store, err := sc.OpenStorage(ctx, nil)
			require.NoError(t, err)
			defer storage.Close(store)

			require.NoError(t, store.Set(ctx, "k", `[{"a":1}]`))
			text, ok, err := store.Get(ctx, "k")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, `[{"a":1}]`, text)
		})
	}

	_, err := StorageConfig{Backend: "floppy"}.OpenStorage(ctx, nil)
	assert.ErrorIs(t, err, errs.ErrStorageFailure)
}
