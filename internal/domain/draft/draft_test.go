package draft

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garageflow/internal/core/apperror"
	"garageflow/internal/core/id"
)

func testKey() Key {
	return Key{GarageID: id.New(), UserID: "u1", FormKey: "invoice.new"}
}

type flakyStore struct {
	*MemoryStore
	mu    sync.Mutex
	fails int
	saves int
}

func (s *flakyStore) Save(ctx context.Context, d *Draft) error {
	s.mu.Lock()
	s.saves++
	if s.fails > 0 {
		s.fails--
		s.mu.Unlock()
		return errors.New("db down")
	}
	s.mu.Unlock()
	return s.MemoryStore.Save(ctx, d)
}

func TestKeyValidate(t *testing.T) {
	k := testKey()
	require.NoError(t, k.Validate())

	k.FormKey = "Bad Key"
	assert.True(t, apperror.HasCode(k.Validate(), apperror.CodeValidation))

	k = testKey()
	k.GarageID = id.ID{}
	assert.True(t, apperror.HasCode(k.Validate(), apperror.CodeForbidden))
}

func TestValidatePayload(t *testing.T) {
	assert.NoError(t, ValidatePayload([]byte(`{"lines":[]}`)))
	assert.Error(t, ValidatePayload(nil))
	assert.Error(t, ValidatePayload([]byte(`{"lines":`)))
	assert.Error(t, ValidatePayload(make([]byte, MaxPayloadSize+1)))
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	k := testKey()

	_, found, err := s.Load(ctx, k)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Save(ctx, &Draft{Key: k, Payload: json.RawMessage(`{"a":1}`)}))
	d, found, err := s.Load(ctx, k)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"a":1}`, string(d.Payload))

	require.NoError(t, s.Clear(ctx, k))
	_, found, _ = s.Load(ctx, k)
	assert.False(t, found)
}

func TestAutosaver_StagesUntilFlush(t *testing.T) {
	ctx := context.Background()
	backing := NewMemoryStore()
	a := NewAutosaver(backing, time.Hour)
	k := testKey()

	require.NoError(t, a.Save(ctx, &Draft{Key: k, Payload: json.RawMessage(`{"v":1}`)}))
	require.NoError(t, a.Save(ctx, &Draft{Key: k, Payload: json.RawMessage(`{"v":2}`)}))

	_, found, _ := backing.Load(ctx, k)
	assert.False(t, found, "nothing written before flush")

	d, found, err := a.Load(ctx, k)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"v":2}`, string(d.Payload))
	assert.Equal(t, 1, a.Pending())

	require.NoError(t, a.Flush(ctx))
	assert.Equal(t, 0, a.Pending())
	d, found, _ = backing.Load(ctx, k)
	require.True(t, found)
	assert.JSONEq(t, `{"v":2}`, string(d.Payload))
}

type blockingStore struct {
	*MemoryStore
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) Save(ctx context.Context, d *Draft) error {
	s.entered <- struct{}{}
	<-s.release
	return s.MemoryStore.Save(ctx, d)
}

func TestAutosaver_LoadDuringFlushSeesStagedSnapshot(t *testing.T) {
	ctx := context.Background()
	backing := &blockingStore{MemoryStore: NewMemoryStore(), entered: make(chan struct{}), release: make(chan struct{})}
	k := testKey()
	require.NoError(t, backing.MemoryStore.Save(ctx, &Draft{Key: k, Payload: json.RawMessage(`{"v":1}`)}))

	a := NewAutosaver(backing, time.Hour)
	require.NoError(t, a.Save(ctx, &Draft{Key: k, Payload: json.RawMessage(`{"v":2}`)}))

	done := make(chan error, 1)
	go func() { done <- a.Flush(ctx) }()
	<-backing.entered

	d, found, err := a.Load(ctx, k)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"v":2}`, string(d.Payload))

	// A newer snapshot staged mid-write survives the flush.
	require.NoError(t, a.Save(ctx, &Draft{Key: k, Payload: json.RawMessage(`{"v":3}`)}))

	close(backing.release)
	require.NoError(t, <-done)

	assert.Equal(t, 1, a.Pending())
	d, _, err = a.Load(ctx, k)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":3}`, string(d.Payload))
}

func TestAutosaver_FailedFlushIsRetried(t *testing.T) {
	ctx := context.Background()
	backing := &flakyStore{MemoryStore: NewMemoryStore(), fails: 1}
	a := NewAutosaver(backing, time.Hour)
	k := testKey()

	require.NoError(t, a.Save(ctx, &Draft{Key: k, Payload: json.RawMessage(`{}`)}))

	assert.Error(t, a.Flush(ctx))
	assert.Equal(t, 1, a.Pending())

	require.NoError(t, a.Flush(ctx))
	assert.Equal(t, 0, a.Pending())
	assert.Equal(t, 2, backing.saves)
}

func TestAutosaver_ClearDropsStagedAndStored(t *testing.T) {
	ctx := context.Background()
	backing := NewMemoryStore()
	a := NewAutosaver(backing, time.Hour)
	k := testKey()

	require.NoError(t, a.Save(ctx, &Draft{Key: k, Payload: json.RawMessage(`{"v":1}`)}))
	require.NoError(t, a.Flush(ctx))
	require.NoError(t, a.Save(ctx, &Draft{Key: k, Payload: json.RawMessage(`{"v":2}`)}))

	require.NoError(t, a.Clear(ctx, k))

	_, found, err := a.Load(ctx, k)
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, a.Flush(ctx))
	_, found, _ = backing.Load(ctx, k)
	assert.False(t, found)
}

func TestAutosaver_RunFlushesOnTickAndShutdown(t *testing.T) {
	backing := NewMemoryStore()
	a := NewAutosaver(backing, 10*time.Millisecond)
	k := testKey()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()

	require.NoError(t, a.Save(ctx, &Draft{Key: k, Payload: json.RawMessage(`{"tick":true}`)}))
	assert.Eventually(t, func() bool {
		_, found, _ := backing.Load(context.Background(), k)
		return found
	}, time.Second, 5*time.Millisecond)

	k2 := testKey()
	require.NoError(t, a.Save(ctx, &Draft{Key: k2, Payload: json.RawMessage(`{"last":true}`)}))
	cancel()
	<-done

	_, found, _ := backing.Load(context.Background(), k2)
	assert.True(t, found)
}

func TestAutosaver_RejectsInvalid(t *testing.T) {
	a := NewAutosaver(NewMemoryStore(), 0)

	err := a.Save(context.Background(), &Draft{Key: testKey(), Payload: json.RawMessage(`nope`)})

	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	assert.Equal(t, DefaultInterval, a.interval)
}
