package collection

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nainya/ndstore/pkg/errs"
	"github.com/nainya/ndstore/pkg/record"
	"github.com/nainya/ndstore/pkg/rowstream"
	"github.com/nainya/ndstore/pkg/storage"
)

type recordingObserver struct {
	ops     []string
	records int
	bytes   map[string]int
}

func (o *recordingObserver) ObserveOp(op, status string, _ time.Duration) {
	o.ops = append(o.ops, op+":"+status)
}
func (o *recordingObserver) ObserveRecords(n int)         { o.records = n }
func (o *recordingObserver) ObserveRebuild(time.Duration) {}
func (o *recordingObserver) ObserveBytes(op string, n int) {
	if o.bytes == nil {
		o.bytes = make(map[string]int)
	}
	o.bytes[op] += n
}

func TestSaveLoadRestoresTopology(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()

	shared := obj{"v": 1}
	a := obj{"name": "a", "left": shared, "right": shared}
	a["self"] = a

	src := New(Options{Storage: store}, a)
	require.NoError(t, src.Save(ctx, "graph", true))

	dst := New(Options{Storage: store})
	require.NoError(t, dst.Load(ctx, "graph"))
	require.Equal(t, 1, dst.Len())

	got, _ := dst.Get(0)
	m := got.(obj)
	assert.True(t, record.Same(m, m["self"]))
	assert.True(t, record.Same(m["left"], m["right"]))
	assert.False(t, record.Same(m, a))
	assert.Equal(t, "a", m["name"])
}

func TestLoadAppends(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	require.NoError(t, New(Options{Storage: store}, painters()...).Save(ctx, "p", false))

	c := New(Options{Storage: store}, obj{"painter": "Degas"})
	require.NoError(t, c.Load(ctx, "p"))
	assert.Equal(t, 4, c.Len())
}

func TestPersistErrors(t *testing.T) {
	ctx := context.Background()

	bare := New(Options{}, painters()...)
	assert.ErrorIs(t, bare.Save(ctx, "x", true), errs.ErrMissingCollaborator)
	assert.ErrorIs(t, bare.Load(ctx, "x"), errs.ErrMissingCollaborator)

	c := New(Options{Storage: storage.NewMemory()})
	assert.ErrorIs(t, c.Save(ctx, "", true), errs.ErrInvalidArgument)

	err := c.Load(ctx, "missing")
	assert.ErrorIs(t, err, errs.ErrStorageFailure)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, c.Save(cancelled, "x", true), errs.ErrStorageFailure)
}

func TestLoadRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	require.NoError(t, store.Set(ctx, "bad", "{not json"))

	c := New(Options{Storage: store})
	assert.ErrorIs(t, c.Load(ctx, "bad"), errs.ErrStorageFailure)
}

func TestStringify(t *testing.T) {
	c := New(Options{}, obj{"a": 1})
	compact, err := c.Stringify(true)
	require.NoError(t, err)
	assert.Equal(t, `[{"a":1}]`, compact)

	pretty, err := c.Stringify(false)
	require.NoError(t, err)
	assert.Equal(t, "[\n    {\n        \"a\": 1\n    }\n]", pretty)
}

func TestObserverReceivesOperations(t *testing.T) {
	ctx := context.Background()
	obs := &recordingObserver{}
	c := New(Options{Storage: storage.NewMemory(), Observer: obs}, painters()...)
	assert.Equal(t, 3, obs.records)

	require.NoError(t, c.Save(ctx, "p", true))
	_, err := c.Select("year", ">", 1870).Execute()
	require.NoError(t, err)
	_, err = c.Select("year", "?", 1).Execute()
	require.Error(t, err)

	assert.Equal(t, []string{"save:success", "execute:success", "execute:error"}, obs.ops)
	assert.Positive(t, obs.bytes["save"])

	require.NoError(t, c.Remove())
	assert.Equal(t, 0, obs.records)
}

func TestImportStream(t *testing.T) {
	c := New(Options{Indexes: map[string]KeyFunc{"byName": ByDimension("name")}, Update: Update{Indexes: true}})
	src := &rowstream.CSV{R: strings.NewReader("name,age\nada,36\ngrace,85\n"), InferTypes: true}

	require.NoError(t, c.ImportStream(context.Background(), src))
	assert.Equal(t, 2, c.Len())
	mean, _ := c.Mean("age")
	assert.InDelta(t, 60.5, mean, 1e-9)

	ix, _ := c.Index("byName")
	_, ok := ix.Get("grace")
	assert.True(t, ok)
}
