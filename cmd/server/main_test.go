package main

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisRepo "github.com/iho/emart/internal/adapter/repository/redis"
	"github.com/iho/emart/internal/infrastructure/auth"
	"github.com/iho/emart/internal/infrastructure/config"
	"github.com/iho/emart/internal/infrastructure/eventpublisher"
)

func TestNewHTTPServerUsesConfiguredTimeouts(t *testing.T) {
	cfg := &config.Config{
		HTTPPort:         "9090",
		HTTPReadTimeout:  5 * time.Second,
		HTTPWriteTimeout: 7 * time.Second,
		HTTPIdleTimeout:  time.Minute,
	}

	server := newHTTPServer(cfg, nil)

	assert.Equal(t, ":9090", server.Addr)
	assert.Equal(t, 5*time.Second, server.ReadTimeout)
	assert.Equal(t, 7*time.Second, server.WriteTimeout)
	assert.Equal(t, time.Minute, server.IdleTimeout)
}

func TestRedisClientConfigFromEnvConfig(t *testing.T) {
	cfg := &config.Config{
		RedisURL:             "redis://cache:6379/1",
		RedisPoolSize:        12,
		RedisDialTimeout:     2 * time.Second,
		RedisReadTimeout:     time.Second,
		RedisWriteTimeout:    time.Second,
		RedisConnectAttempts: 3,
	}

	rc := redisClientConfig(cfg)

	assert.Equal(t, "redis://cache:6379/1", rc.URL)
	assert.Equal(t, "emart", rc.ClientName)
	assert.Equal(t, 12, rc.PoolSize)
	assert.Equal(t, 2*time.Second, rc.DialTimeout)
	assert.Equal(t, 3, rc.ConnectAttempts)
}

func TestTokenVerifier(t *testing.T) {
	verifier, err := tokenVerifier(&config.Config{AuthEnabled: false, JWTSecret: "s"})
	require.NoError(t, err)
	assert.Nil(t, verifier)

	_, err = tokenVerifier(&config.Config{AuthEnabled: true})
	assert.Error(t, err)

	verifier, err = tokenVerifier(&config.Config{AuthEnabled: true, JWTSecret: "s", JWTExpiration: time.Hour})
	require.NoError(t, err)
	assert.IsType(t, &auth.JWTManager{}, verifier)
}

func TestSelectPublisher(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zerolog.Nop()

	pub := selectPublisher(&config.Config{OutboxChannel: "emart.events"}, client, &logger)
	assert.IsType(t, &redisRepo.EventPublisher{}, pub)

	pub = selectPublisher(&config.Config{OutboxPublishToLogs: true}, client, &logger)
	assert.IsType(t, &eventpublisher.LogPublisher{}, pub)
}
