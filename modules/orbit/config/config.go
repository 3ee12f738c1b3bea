package config

import (
	"time"

	"github.com/ramaorbit/orbit-engine/internal/postgres"
)

type Config struct {
	// Database to store orbit ledger state. `postgres` | `memory`
	Database string          `mapstructure:"database"`
	Postgres postgres.Config `mapstructure:"postgres"`

	// APIHandlers to mount. Currently only `http` is supported.
	APIHandlers []string `mapstructure:"api_handlers"`

	// JoinAmountUSD is the join/repurchase fee as a decimal USD string, e.g. "5.00".
	JoinAmountUSD string `mapstructure:"join_amount_usd"`
	// JoinAmountRAMA is the join/repurchase fee as a decimal RAMA string, e.g. "2.45".
	JoinAmountRAMA string `mapstructure:"join_amount_rama"`

	Cascade CascadeConfig `mapstructure:"cascade"`
}

// CascadeConfig tunes the repurchase scheduler. Timeouts apply only to this
// retry machinery, never to the accounting transactions it dispatches.
type CascadeConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"` // default 5s
	BatchSize    int           `mapstructure:"batch_size"`    // default 32
	MaxAttempts  int32         `mapstructure:"max_attempts"`  // default 10
	RetryBackoff time.Duration `mapstructure:"retry_backoff"` // default 30s
}
