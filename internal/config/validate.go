package config

import (
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the settings a command needs. mode is the command name:
// serve, seed, reset, migrate, fetch or export.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		errs = append(errs, c.validateStore()...)
		errs = append(errs, c.validateServer()...)
		if c.Seed.OnStartup {
			errs = append(errs, c.validateSourcePath()...)
		}
	case "seed", "reset":
		errs = append(errs, c.validateStore()...)
		errs = append(errs, c.validateSourcePath()...)
	case "migrate", "export":
		errs = append(errs, c.validateStore()...)
	case "fetch":
		errs = append(errs, c.validateSourcePath()...)
		errs = append(errs, c.validateSourceURL()...)
		if c.Fetch.MaxRetries < 0 {
			errs = append(errs, "fetch.max_retries must be >= 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStore() []string {
	var errs []string
	switch c.Store.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, "store.driver must be postgres or sqlite")
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	return errs
}

func (c *Config) validateServer() []string {
	var errs []string
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be > 0 and <= 65535")
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "server.rate_limit must be >= 0")
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		errs = append(errs, "server.rate_burst must be >= 1 when rate limiting is enabled")
	}
	if c.Server.ResetTimeoutSecs <= 0 {
		errs = append(errs, "server.reset_timeout_secs must be > 0")
	}
	return errs
}

func (c *Config) validateSourcePath() []string {
	if c.Source.Path == "" {
		return []string{"source.path is required"}
	}
	return nil
}

func (c *Config) validateSourceURL() []string {
	if c.Source.URL == "" {
		return []string{"source.url is required"}
	}
	u, err := url.Parse(c.Source.URL)
	if err != nil {
		return []string{"source.url is not a valid URL"}
	}
	switch u.Scheme {
	case "http", "https", "ftp":
		return nil
	default:
		return []string{"source.url scheme must be http, https or ftp"}
	}
}
