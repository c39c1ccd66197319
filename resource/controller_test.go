package resource

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Queries(t *testing.T) {
	c := NewController(Config{MaxInFlight: 2})

	r1, err := c.AcquireQuery(context.Background())
	require.NoError(t, err)
	r2, err := c.AcquireQuery(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), c.InFlight())

	// No queue: the third query is shed.
	_, err = c.AcquireQuery(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)

	r1()
	r1() // double release is harmless
	assert.Equal(t, int64(1), c.InFlight())

	r3, err := c.AcquireQuery(context.Background())
	require.NoError(t, err)
	r2()
	r3()
	assert.Equal(t, int64(0), c.InFlight())
}

func TestController_Queue(t *testing.T) {
	c := NewController(Config{MaxInFlight: 1, MaxQueued: 1})

	release, err := c.AcquireQuery(context.Background())
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	admitted := make(chan struct{})
	go func() {
		defer wg.Done()
		r, err := c.AcquireQuery(context.Background())
		if assert.NoError(t, err) {
			close(admitted)
			r()
		}
	}()

	require.Eventually(t, func() bool { return c.Queued() == 1 }, time.Second, time.Millisecond)

	// The queue is full.
	_, err = c.AcquireQuery(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)

	release()
	<-admitted
	wg.Wait()
	assert.Equal(t, int64(0), c.Queued())
}

func TestController_QueueCanceled(t *testing.T) {
	c := NewController(Config{MaxInFlight: 1, MaxQueued: 1})
	release, err := c.AcquireQuery(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = c.AcquireQuery(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int64(0), c.Queued())
}

func TestController_RateLimit(t *testing.T) {
	c := NewController(Config{QueriesPerSec: 0.001, QueryBurst: 1})

	release, err := c.AcquireQuery(context.Background())
	require.NoError(t, err)
	release()

	_, err = c.AcquireQuery(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestController_Builds(t *testing.T) {
	c := NewController(Config{})

	require.NoError(t, c.AcquireBuild(context.Background()))
	assert.False(t, c.TryAcquireBuild())

	c.ReleaseBuild()
	assert.True(t, c.TryAcquireBuild())
	c.ReleaseBuild()
}

func TestController_Nil(t *testing.T) {
	var c *Controller

	release, err := c.AcquireQuery(context.Background())
	require.NoError(t, err)
	release()
	assert.Equal(t, int64(0), c.InFlight())
	require.NoError(t, c.AcquireBuild(context.Background()))
	c.ReleaseBuild()
	assert.False(t, c.LimitsIO())
	require.NoError(t, c.AcquireIO(context.Background(), 1<<30))
}

func TestRateLimitedReader(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})
	require.True(t, c.LimitsIO())

	data := bytes.Repeat([]byte("x"), 2<<20)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	got, err := io.ReadAll(NewRateLimitedReader(ctx, bytes.NewReader(data), c))
	require.NoError(t, err)
	assert.Equal(t, len(data), len(got))
}

func TestRateLimitedReader_Canceled(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 16})
	ctx, cancel := context.WithCancel(context.Background())

	r := NewRateLimitedReader(ctx, bytes.NewReader(make([]byte, 64)), c)
	buf := make([]byte, 64)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 16, n)

	cancel()
	_, err = r.Read(buf)
	assert.Error(t, err)
}
