package refresh

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config groups all tunables. Values are taken from environment variables
// with the prefix "REFRESH_". Example: REFRESH_QUEUE_SIZE=64 .
type Config struct {
	QueueSize      int           `envconfig:"QUEUE_SIZE"      default:"32"`
	EnqueueTimeout time.Duration `envconfig:"ENQUEUE_TIMEOUT" default:"100ms"`

	// ErrorHandler is called synchronously after a Job exhausts its retries
	// with a non-nil error. Leave nil if you do not care.
	ErrorHandler func(error) `envconfig:"-"`

	MaxAttempts int           `envconfig:"MAX_ATTEMPTS" default:"3"`
	BaseBackoff time.Duration `envconfig:"BASE_BACKOFF" default:"250ms"`
	MaxInterval time.Duration `envconfig:"MAX_INTERVAL" default:"10s"`
}

// LoadConfig populates Config from environment variables (prefix REFRESH_).
func LoadConfig() (Config, error) {
	var c Config
	return c, envconfig.Process("REFRESH", &c)
}
