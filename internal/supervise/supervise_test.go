package supervise

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/suture/v4"
)

func TestSanitizeError(t *testing.T) {
	live := context.Background()

	assert.NoError(t, SanitizeError(live, nil))

	plain := errors.New("socket closed")
	assert.Same(t, plain, SanitizeError(live, plain))

	// A stray context error from a live service must not read as one.
	wrapped := fmt.Errorf("dial: %w", context.DeadlineExceeded)
	got := SanitizeError(live, wrapped)
	assert.NotErrorIs(t, got, context.DeadlineExceeded)
	assert.EqualError(t, got, wrapped.Error())

	stop := fmt.Errorf("%w: %w", suture.ErrDoNotRestart, context.Canceled)
	assert.ErrorIs(t, SanitizeError(live, stop), suture.ErrDoNotRestart)

	done, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SanitizeError(done, plain), context.Canceled)
}

func TestSupervisorRestartsFailingService(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	super := New("test", logger)

	var runs atomic.Int32
	ran := make(chan struct{})
	super.Add(NewServiceFunc("flaky", func(ctx context.Context) error {
		if runs.Add(1) == 1 {
			return errors.New("first run fails")
		}
		close(ran)
		<-ctx.Done()
		return ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- super.Serve(ctx) }()

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("service was not restarted")
	}
	cancel()
	require.NoError(t, <-errCh)
	assert.EqualValues(t, 2, runs.Load())
}

func TestServiceFuncName(t *testing.T) {
	s := NewServiceFunc("reconciler", func(context.Context) error { return nil })
	assert.Equal(t, "reconciler", s.String())
	assert.NoError(t, s.Serve(context.Background()))
}
