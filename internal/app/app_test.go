package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stockfeed/internal/config"
)

func TestNewRedisClientAcceptsURLAndAddr(t *testing.T) {
	c, err := newRedisClient("redis://:secret@cache:6380/2")
	require.NoError(t, err)
	require.Equal(t, "cache:6380", c.Options().Addr)
	require.Equal(t, 2, c.Options().DB)
	require.Equal(t, "secret", c.Options().Password)
	require.NoError(t, c.Close())

	c, err = newRedisClient("localhost:6379")
	require.NoError(t, err)
	require.Equal(t, "localhost:6379", c.Options().Addr)
	require.NoError(t, c.Close())

	_, err = newRedisClient("redis://host:notaport/x")
	require.Error(t, err)
}

func TestNewRequiresDatabaseURL(t *testing.T) {
	_, err := New(context.Background(), &config.Config{FeedCharset: "iso-8859-1"}, zap.NewNop())
	require.ErrorContains(t, err, "DATABASE_URL")
}

func TestNewRejectsUnknownCharset(t *testing.T) {
	_, err := New(context.Background(), &config.Config{DatabaseURL: "postgres://x", FeedCharset: "klingon"}, zap.NewNop())
	require.ErrorContains(t, err, "unsupported charset")
}
