package tls

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spiffe/go-spiffe/v2/spiffeid"
	"github.com/spiffe/go-spiffe/v2/spiffetls/tlsconfig"
	"github.com/spiffe/go-spiffe/v2/workloadapi"
	"go.uber.org/zap"
)

const watchInterval = 30 * time.Second

type TLSConfig struct {
	Enabled    bool   `envconfig:"TLS_ENABLED" default:"false"`
	SocketPath string `envconfig:"SPIRE_SOCKET_PATH" default:"unix:///run/spire/sockets/agent.sock"`
	// 비어 있으면 신뢰 도메인 안의 어떤 ID든 허용
	QueryProxyID string `envconfig:"QUERY_PROXY_SPIFFE_ID"`
}

func LoadConfig() (*TLSConfig, error) {
	var cfg TLSConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Source holds the workload's SVID from the SPIRE agent. It is nil when TLS
// is disabled.
type Source struct {
	x509   *workloadapi.X509Source
	cfg    *TLSConfig
	logger *zap.Logger
}

func NewSource(ctx context.Context, cfg *TLSConfig, logger *zap.Logger) (*Source, error) {
	if !cfg.Enabled {
		logger.Info("TLS is disabled")
		return nil, nil
	}

	// SPIRE Workload API를 통해 X509 소스 생성
	source, err := workloadapi.NewX509Source(
		ctx,
		workloadapi.WithClientOptions(
			workloadapi.WithAddr(cfg.SocketPath),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create X509Source: %w", err)
	}

	logger.Info("SPIRE X509 source ready", zap.String("socket_path", cfg.SocketPath))
	return &Source{x509: source, cfg: cfg, logger: logger}, nil
}

// ServerConfig is the mTLS config for the HTTP server.
func (s *Source) ServerConfig() *tls.Config {
	tlsConfig := tlsconfig.MTLSServerConfig(s.x509, s.x509, tlsconfig.AuthorizeAny())
	tlsConfig.MinVersion = tls.VersionTLS12
	return tlsConfig
}

// ClientConfig is the mTLS config for calls to the query proxy.
func (s *Source) ClientConfig() (*tls.Config, error) {
	authorizer, err := proxyAuthorizer(s.cfg.QueryProxyID)
	if err != nil {
		return nil, err
	}
	tlsConfig := tlsconfig.MTLSClientConfig(s.x509, s.x509, authorizer)
	tlsConfig.MinVersion = tls.VersionTLS12
	return tlsConfig, nil
}

func proxyAuthorizer(id string) (tlsconfig.Authorizer, error) {
	if id == "" {
		return tlsconfig.AuthorizeAny(), nil
	}
	spiffeID, err := spiffeid.FromString(id)
	if err != nil {
		return nil, fmt.Errorf("invalid QUERY_PROXY_SPIFFE_ID %q: %w", id, err)
	}
	return tlsconfig.AuthorizeID(spiffeID), nil
}

// Watch logs the SVID status until ctx is done. SPIRE rotates the
// certificate on its own.
func (s *Source) Watch(ctx context.Context) {
	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svid, err := s.x509.GetX509SVID()
			if err != nil {
				s.logger.Error("Failed to get X509 SVID", zap.Error(err))
				continue
			}
			s.logger.Info("Certificate status",
				zap.String("spiffe_id", svid.ID.String()),
				zap.Time("expiry", svid.Certificates[0].NotAfter),
				zap.Duration("ttl", time.Until(svid.Certificates[0].NotAfter)))
		}
	}
}

func (s *Source) Close() error {
	if s == nil || s.x509 == nil {
		return nil
	}
	return s.x509.Close()
}
