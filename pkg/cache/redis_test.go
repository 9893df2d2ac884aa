package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/martial-arts-tracker/pkg/config"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "mat:stats:qigong", Key("stats", "qigong"))
	assert.Equal(t, "mat:stats:*", Key("stats", "*"))
	assert.Equal(t, "mat:", Key())
}

func TestNewRedisUnreachable(t *testing.T) {
	// Port 1 is reserved and never has a listener in test environments.
	_, err := NewRedis(context.Background(), config.RedisConfig{Host: "127.0.0.1", Port: 1})
	require.Error(t, err)
}
