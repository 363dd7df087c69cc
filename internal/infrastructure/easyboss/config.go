package easyboss

import (
	"errors"
	"time"
)

// Validation errors for platform configuration
var (
	ErrMissingBaseURL  = errors.New("easyboss: base URL is required")
	ErrMissingMobile   = errors.New("easyboss: account mobile is required")
	ErrMissingPassword = errors.New("easyboss: account password is required")
)

// Config holds the EasyBoss platform connection settings.
type Config struct {
	BaseURL    string
	Mobile     string
	Password   string // plaintext; encrypted per request by the credential cipher
	TemplateID string

	SessionMaxAge  time.Duration
	PollInterval   time.Duration
	PollTimeout    time.Duration
	RequestTimeout time.Duration
	DownloadDir    string
}

// Validate checks required fields and applies defaults for optional ones.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if c.Mobile == "" {
		return ErrMissingMobile
	}
	if c.Password == "" {
		return ErrMissingPassword
	}
	if c.SessionMaxAge <= 0 {
		c.SessionMaxAge = 20 * time.Hour
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 30 * time.Second
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 30 * time.Minute
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.DownloadDir == "" {
		c.DownloadDir = "downloads"
	}
	return nil
}
