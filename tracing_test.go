package prefixstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gostratum/tracingx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gostratum/prefixstore"
	"github.com/gostratum/prefixstore/internal/testutil"
)

func newTracedStore(t *testing.T, client prefixstore.ObjectClient, tracer tracingx.Tracer) *prefixstore.Store {
	t.Helper()
	return newStore(t, client, "idx", prefixstore.WithInstrumenter(prefixstore.NewInstrumenter(nil, tracer)))
}

func TestStore_TracesOperations(t *testing.T) {
	client := testutil.NewMockObjectClient()
	client.SetPageSize(2)
	tracer := testutil.NewRecordingTracer()
	store := newTracedStore(t, client, tracer)
	ctx := context.Background()

	for _, name := range []string{"notes/a", "notes/b", "notes/c"} {
		require.NoError(t, store.WriteBytes(ctx, name, []byte(name)))
	}
	_, err := store.ReadBytes(ctx, "notes/b")
	require.NoError(t, err)
	names, err := store.List(ctx, "notes")
	require.NoError(t, err)
	require.Len(t, names, 3)

	spans := tracer.Spans()
	require.Len(t, spans, 5)

	for _, span := range spans[:3] {
		assert.Equal(t, "storage.write", span.Name)
		assert.Equal(t, tracingx.SpanKindClient, span.Kind)
		assert.True(t, span.Ended())
	}

	read := spans[3]
	assert.Equal(t, "storage.read", read.Name)
	assert.Equal(t, "notes/b", read.Tag("storage.key"))
	assert.Equal(t, prefixstore.OpRead, read.Tag("storage.operation"))

	list := spans[4]
	assert.Equal(t, "storage.list", list.Name)
	assert.Equal(t, "notes", list.Tag("storage.key"))
	assert.Equal(t, 2, list.Tag("storage.pages"))
	assert.Equal(t, 3, list.Tag("storage.count"))
	assert.NoError(t, list.Err())
	assert.True(t, list.Ended())
}

func TestStore_TracesFailures(t *testing.T) {
	client := testutil.NewMockObjectClient()
	boom := errors.New("put rejected")
	client.FailPut(boom)
	tracer := testutil.NewRecordingTracer()
	store := newTracedStore(t, client, tracer)

	err := store.WriteBytes(context.Background(), "a.txt", []byte("x"))
	require.Error(t, err)

	_, err = store.ReadBytes(context.Background(), "missing.txt")
	require.Error(t, err)

	spans := tracer.Spans()
	require.Len(t, spans, 2)
	assert.ErrorIs(t, spans[0].Err(), boom)
	assert.True(t, prefixstore.IsNotFound(spans[1].Err()))
	assert.True(t, spans[1].Ended())
}

func TestInstrumenter_SpanTagWithoutTracer(t *testing.T) {
	tracer := testutil.NewRecordingTracer()
	ctx, parent := tracer.Start(context.Background(), "caller")
	ctx = tracingx.ContextWithSpan(ctx, parent)

	inst := prefixstore.NewInstrumenter(nil, nil)
	err := inst.ObserveOperation(ctx, prefixstore.OpList, "d", func(ctx context.Context) error {
		inst.SetSpanTag(ctx, "storage.pages", 1)
		return nil
	})
	require.NoError(t, err)

	assert.Len(t, tracer.Spans(), 1)
	assert.Nil(t, tracer.Spans()[0].Tag("storage.pages"), "caller span is left alone")
}
