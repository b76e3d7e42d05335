package checkers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisChecker(t *testing.T) {
	t.Run("uses provided name", func(t *testing.T) {
		client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
		defer client.Close()
		assert.Equal(t, "redis-snapshots", NewRedisChecker(client, "redis-snapshots").Name())
	})

	t.Run("uses default name when empty", func(t *testing.T) {
		client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
		defer client.Close()
		assert.Equal(t, "redis", NewRedisChecker(client, "").Name())
	})

	t.Run("passes against a live server", func(t *testing.T) {
		srv := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
		defer client.Close()

		require.NoError(t, NewRedisChecker(client, "test").Check(context.Background()))
	})

	t.Run("fails once the server goes away", func(t *testing.T) {
		srv := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{
			Addr:        srv.Addr(),
			DialTimeout: 100 * time.Millisecond,
			MaxRetries:  -1,
		})
		defer client.Close()
		srv.Close()

		err := NewRedisChecker(client, "test").Check(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis ping failed")
	})
}

func TestDatabaseChecker(t *testing.T) {
	tests := []struct {
		name    string
		pingErr error
		wantErr bool
	}{
		{name: "healthy", pingErr: nil},
		{name: "unhealthy", pingErr: errors.New("connection refused"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewDatabaseChecker(PingerFunc(func(context.Context) error { return tt.pingErr }), "")
			assert.Equal(t, "database", checker.Name())

			err := checker.Check(context.Background())
			if tt.wantErr {
				assert.ErrorIs(t, err, tt.pingErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
