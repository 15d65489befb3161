package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	s := miniredis.RunT(t)

	client, err := NewClient(context.Background(), Config{
		URL:      fmt.Sprintf("redis://%s/2", s.Addr()),
		PoolSize: 7,
		Timeout:  time.Second,
	})
	require.NoError(t, err)
	defer client.Close()

	opts := client.Options()
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, time.Second, opts.ReadTimeout)
	assert.Equal(t, time.Second, opts.DialTimeout)

	require.NoError(t, client.Set(context.Background(), "wallet:balance:alice", "10.00", 0).Err())
	s.Select(2)
	got, err := s.Get("wallet:balance:alice")
	require.NoError(t, err)
	assert.Equal(t, "10.00", got)
}

func TestNewClientKeepsURLDefaults(t *testing.T) {
	s := miniredis.RunT(t)

	client, err := NewClient(context.Background(), Config{URL: fmt.Sprintf("redis://%s?pool_size=3", s.Addr())})
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, 3, client.Options().PoolSize)
}

func TestNewClientErrors(t *testing.T) {
	down := miniredis.RunT(t)
	downURL := fmt.Sprintf("redis://%s", down.Addr())
	down.Close()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"invalid url", Config{URL: "://bad-url"}},
		{"server down", Config{URL: downURL, Timeout: 200 * time.Millisecond}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(context.Background(), tt.cfg)
			assert.Error(t, err)
		})
	}
}
