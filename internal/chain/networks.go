package chain

import (
	"github.com/soltrace/soltrace/internal/config"
	"github.com/soltrace/soltrace/pkg/ratelimiter"
)

// FromConfig builds one client per configured network, preserving the
// declared fallback order. All clients share one pooled limiter so each
// endpoint is throttled independently under a single policy.
func FromConfig(cfg *config.Config) []API {
	pool := ratelimiter.NewPooled(
		cfg.Client.RateLimit.RequestsPerSecond,
		cfg.Client.RateLimit.BurstSize,
	)
	opts := ClientOptions{
		Timeout:    cfg.Client.RequestTimeout,
		MaxRetries: cfg.Client.MaxRetries,
		RetryDelay: cfg.Client.RetryDelay,
		Limiter:    pool,
	}

	out := make([]API, 0, len(cfg.Networks))
	for _, n := range cfg.Networks {
		out = append(out, NewClient(n.Name, n.URL, n.Commitment, opts))
	}
	return out
}
