// Defines the read and write rate limit tiers.

package ratelimit

import (
	"net/http"
	"time"
)

// Tier is a named limiter.
type Tier struct {
	Name    string
	Limiter *Limiter
}

// Config holds the limiter of each tier. A nil tier is not limited.
type Config struct {
	Read  *Tier
	Write *Tier
}

// NewConfig creates tiers allowing readPerMin GET and writePerMin mutating
// requests per minute per client. A value of 0 disables the tier.
//
// Bursts are a sixth of the per minute rate, so a client can spend ten
// seconds worth of requests at once.
func NewConfig(readPerMin, writePerMin int) *Config {
	return &Config{
		Read:  newTier("read", readPerMin),
		Write: newTier("write", writePerMin),
	}
}

func newTier(name string, perMin int) *Tier {
	if perMin <= 0 {
		return nil
	}
	return &Tier{Name: name, Limiter: NewLimiter(perMin, time.Minute, max(perMin/6, 1))}
}

// Match returns the tier applying to method, or nil when not limited.
func (c *Config) Match(method string) *Tier {
	if c == nil {
		return nil
	}
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return c.Read
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return c.Write
	default:
		return nil
	}
}

// Close stops all limiter cleanup goroutines.
func (c *Config) Close() {
	if c == nil {
		return
	}
	for _, t := range []*Tier{c.Read, c.Write} {
		if t != nil {
			t.Limiter.Close()
		}
	}
}
