package billpay

import (
	"time"

	"github.com/billmycrypto/billpay/contract"
	"github.com/billmycrypto/billpay/logger"
	"github.com/billmycrypto/billpay/metrics"
	"github.com/billmycrypto/billpay/types"
	"github.com/billmycrypto/billpay/wallet"
)

type options struct {
	logger   logger.Logger
	metrics  metrics.Recorder
	timeout  time.Duration
	provider wallet.Provider
	factory  contract.Factory
}

type Option func(*options)

func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(o *options) {
		o.metrics = r
	}
}

func WithTimeout(t time.Duration) Option {
	return func(o *options) {
		o.timeout = t
	}
}

// WithProvider supplies an already-constructed wallet provider instead of
// dialing one from the configured RPC URL. The caller keeps ownership and
// is responsible for closing it.
func WithProvider(p wallet.Provider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithContractFactory overrides how contract bindings are created.
func WithContractFactory(f contract.Factory) Option {
	return func(o *options) {
		o.factory = f
	}
}

func defaultRecorder(config *types.Config) metrics.Recorder {
	if config.EnableMetrics {
		return metrics.NewPrometheusRecorder()
	}
	return metrics.NoopRecorder{}
}
