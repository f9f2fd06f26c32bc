package supervisor

import (
	"fmt"
	"time"

	"github.com/sweeney/irrigation-guard/internal/policy"
)

// MinPollInterval is the shortest allowed poll interval.
const MinPollInterval = time.Second

// Config is one monitor's runtime configuration. It is replaced as a whole
// through Supervisor.Update and never modified in place.
type Config struct {
	Enabled      bool
	PollInterval time.Duration
	// Rule is the threshold to enforce; nil polls and records only.
	Rule *policy.Rule
	// FailureAlert sends one notification when this many consecutive reads
	// have failed. Zero disables it.
	FailureAlert int
}

// Validate checks the config before it reaches a running loop.
func (c Config) Validate() error {
	if c.PollInterval < MinPollInterval {
		return fmt.Errorf("poll interval %v: must be at least %v", c.PollInterval, MinPollInterval)
	}
	if c.FailureAlert < 0 {
		return fmt.Errorf("failure alert %d: must not be negative", c.FailureAlert)
	}
	if c.Rule != nil {
		if err := c.Rule.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c Config) clone() *Config {
	if c.Rule != nil {
		r := *c.Rule
		c.Rule = &r
	}
	return &c
}
