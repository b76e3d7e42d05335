package health

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCheck fails with err and optionally sleeps first.
type stubCheck struct {
	name  string
	err   atomic.Value
	sleep time.Duration
}

func newStubCheck(name string, err error) *stubCheck {
	c := &stubCheck{name: name}
	c.setErr(err)
	return c
}

func (s *stubCheck) setErr(err error) {
	s.err.Store(errBox{err})
}

type errBox struct{ err error }

func (s *stubCheck) Name() string {
	return s.name
}

func (s *stubCheck) Check(ctx context.Context) error {
	if s.sleep > 0 {
		select {
		case <-time.After(s.sleep):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.err.Load().(errBox).err
}

func TestNew(t *testing.T) {
	tests := []struct {
		name          string
		opts          []Option
		wantTimeout   time.Duration
		wantThreshold int
	}{
		{name: "defaults", wantTimeout: 5 * time.Second, wantThreshold: 3},
		{name: "custom timeout", opts: []Option{WithTimeout(10 * time.Second)}, wantTimeout: 10 * time.Second, wantThreshold: 3},
		{name: "custom threshold", opts: []Option{WithFailureThreshold(5)}, wantTimeout: 5 * time.Second, wantThreshold: 5},
		{name: "invalid values ignored", opts: []Option{WithFailureThreshold(0), WithTimeout(0)}, wantTimeout: 5 * time.Second, wantThreshold: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(tt.opts...)
			assert.Equal(t, tt.wantTimeout, h.timeout)
			assert.Equal(t, tt.wantThreshold, h.failureThreshold)
		})
	}
}

func TestCheckFunc(t *testing.T) {
	wantErr := errors.New("test error")
	check := NewCheckFunc("test", func(ctx context.Context) error { return wantErr })

	assert.Equal(t, "test", check.Name())
	assert.Equal(t, wantErr, check.Check(context.Background()))
}

func TestHealthChecker_Probes(t *testing.T) {
	tests := []struct {
		name        string
		checks      []Check
		wantHealthy bool
		wantFailed  []string
	}{
		{name: "no checks configured", wantHealthy: true},
		{name: "single passing check", checks: []Check{newStubCheck("store", nil)}, wantHealthy: true},
		{name: "single failing check", checks: []Check{newStubCheck("store", errors.New("down"))}, wantFailed: []string{"store"}},
		{
			name:       "mixed results",
			checks:     []Check{newStubCheck("redis", nil), newStubCheck("database", errors.New("down"))},
			wantFailed: []string{"database"},
		},
	}

	for _, tt := range tests {
		for _, kind := range []string{"liveness", "readiness"} {
			t.Run(tt.name+"/"+kind, func(t *testing.T) {
				h := New(WithFailureThreshold(1))
				for _, c := range tt.checks {
					if kind == "liveness" {
						h.AddLivenessCheck(c)
					} else {
						h.AddReadinessCheck(c)
					}
				}

				var status *HealthStatus
				var err error
				if kind == "liveness" {
					status, err = h.CheckLiveness(context.Background())
				} else {
					status, err = h.CheckReadiness(context.Background())
				}

				assert.Equal(t, tt.wantHealthy, status.Healthy)
				require.Len(t, status.Checks, len(tt.checks))
				if tt.wantHealthy {
					assert.NoError(t, err)
					return
				}
				require.Error(t, err)
				for _, name := range tt.wantFailed {
					assert.Contains(t, err.Error(), name)
				}
			})
		}
	}
}

func TestHealthChecker_FailureThreshold(t *testing.T) {
	t.Run("failure below threshold stays healthy", func(t *testing.T) {
		h := New(WithFailureThreshold(3))
		h.AddLivenessCheck(newStubCheck("test", errors.New("test error")))

		for i := 0; i < 2; i++ {
			status, err := h.CheckLiveness(context.Background())
			require.NoError(t, err)
			assert.True(t, status.Healthy)
		}

		status, err := h.CheckLiveness(context.Background())
		assert.Error(t, err)
		assert.False(t, status.Healthy)
		assert.Equal(t, "test error", status.Checks[0].Error)
	})

	t.Run("recovery resets failure count", func(t *testing.T) {
		h := New(WithFailureThreshold(3))
		check := newStubCheck("test", errors.New("test error"))
		h.AddLivenessCheck(check)

		for i := 0; i < 2; i++ {
			_, _ = h.CheckLiveness(context.Background())
		}

		check.setErr(nil)
		_, err := h.CheckLiveness(context.Background())
		require.NoError(t, err)

		check.setErr(errors.New("test error"))
		status, err := h.CheckLiveness(context.Background())
		assert.NoError(t, err)
		assert.True(t, status.Healthy)
	})
}

func TestHealthChecker_Timeout(t *testing.T) {
	h := New(WithTimeout(50*time.Millisecond), WithFailureThreshold(1))
	slow := newStubCheck("slow", nil)
	slow.sleep = time.Second
	h.AddLivenessCheck(slow)

	start := time.Now()
	status, err := h.CheckLiveness(context.Background())

	assert.Error(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	require.Len(t, status.Checks, 1)
	assert.Contains(t, status.Checks[0].Error, "context deadline exceeded")
}

func TestHealthChecker_ChecksRunConcurrently(t *testing.T) {
	h := New()
	for i := 0; i < 3; i++ {
		c := newStubCheck(fmt.Sprintf("slow-%d", i), nil)
		c.sleep = 100 * time.Millisecond
		h.AddLivenessCheck(c)
	}

	start := time.Now()
	status, err := h.CheckLiveness(context.Background())

	require.NoError(t, err)
	assert.Len(t, status.Checks, 3)
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}
