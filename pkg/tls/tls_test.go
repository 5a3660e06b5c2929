package tls

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "unix:///run/spire/sockets/agent.sock", cfg.SocketPath)
	assert.Empty(t, cfg.QueryProxyID)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("TLS_ENABLED", "true")
	t.Setenv("SPIRE_SOCKET_PATH", "unix:///tmp/agent.sock")
	t.Setenv("QUERY_PROXY_SPIFFE_ID", "spiffe://creative-energy.net/query-proxy")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "unix:///tmp/agent.sock", cfg.SocketPath)
	assert.Equal(t, "spiffe://creative-energy.net/query-proxy", cfg.QueryProxyID)
}

func TestNewSourceDisabled(t *testing.T) {
	src, err := NewSource(context.Background(), &TLSConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, src)
	assert.NoError(t, src.Close())
}

func TestProxyAuthorizer(t *testing.T) {
	a, err := proxyAuthorizer("")
	require.NoError(t, err)
	assert.NotNil(t, a)

	a, err = proxyAuthorizer("spiffe://creative-energy.net/query-proxy")
	require.NoError(t, err)
	assert.NotNil(t, a)

	_, err = proxyAuthorizer("https://not-a-spiffe-id")
	assert.Error(t, err)
}
