package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"opsconsole/internal/account/models"
)

// AdapterKind selects which adapter implementation serves a catalog entry.
type AdapterKind string

const (
	AdapterDirectory  AdapterKind = "directory"
	AdapterStreaming  AdapterKind = "streaming"
	AdapterSubscriber AdapterKind = "subscriber"
	AdapterTracker    AdapterKind = "tracker"
)

// Catalog is the provider catalog read at startup. It never holds secrets,
// only the names of the environment variables that do.
type Catalog struct {
	Defaults  Defaults                  `yaml:"defaults"`
	Providers map[string]ProviderConfig `yaml:"providers"`
}

type Defaults struct {
	Timeout     time.Duration `yaml:"timeout"`
	BusyMarkers []string      `yaml:"busy_markers"`
}

// ProviderConfig describes one upstream.
type ProviderConfig struct {
	Adapter       AdapterKind   `yaml:"adapter"`
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	Auth          AuthConfig    `yaml:"auth"`
	BusyMarkers   []string      `yaml:"busy_markers"`
	PathPrefix    string        `yaml:"path_prefix"`
	ServiceName   string        `yaml:"service_name"`
	ResendChannel string        `yaml:"resend_channel"`
	ProductFamily []int         `yaml:"product_family"`
	TieBreak      string        `yaml:"tie_break"`
	Resync        bool          `yaml:"resync"`
}

// AuthConfig names the environment variables holding the credential.
type AuthConfig struct {
	Kind        string `yaml:"kind"`
	Header      string `yaml:"header"`
	APIKeyEnv   string `yaml:"api_key_env"`
	UsernameEnv string `yaml:"username_env"`
	PasswordEnv string `yaml:"password_env"`
	TokenEnv    string `yaml:"token_env"`
}

// Credentials is an AuthConfig with its secrets resolved.
type Credentials struct {
	Kind     string
	Header   string
	APIKey   string
	Username string
	Password string
	Token    string
}

// adapterTags lists the provider tags each adapter can serve.
var adapterTags = map[AdapterKind][]models.Provider{
	AdapterDirectory:  {models.ProviderDirectory},
	AdapterSubscriber: {models.ProviderSubscriber},
	AdapterTracker:    {models.ProviderAtlassian},
	AdapterStreaming: {
		models.ProviderGloboplay, models.ProviderPremiere, models.ProviderTelecine,
		models.ProviderHBOMax, models.ProviderNotifier,
	},
}

// LoadCatalog reads and validates the YAML catalog at path.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read provider catalog: %w", err)
	}
	return ParseCatalog(raw)
}

// ParseCatalog decodes and validates a catalog document.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse provider catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks every entry and reports all problems at once.
func (c *Catalog) Validate() error {
	if len(c.Providers) == 0 {
		return errors.New("provider catalog: no providers configured")
	}
	var errs []error
	for tag, p := range c.Providers {
		if _, err := models.ParseProvider(tag); err != nil {
			errs = append(errs, fmt.Errorf("provider catalog: %w", err))
			continue
		}
		if allowed, ok := adapterTags[p.Adapter]; !ok {
			errs = append(errs, fmt.Errorf("provider catalog: %s: unknown adapter %q", tag, p.Adapter))
		} else if !slices.Contains(allowed, models.Provider(tag)) {
			errs = append(errs, fmt.Errorf("provider catalog: %s: adapter %q cannot serve this provider", tag, p.Adapter))
		}
		if p.BaseURL == "" {
			errs = append(errs, fmt.Errorf("provider catalog: %s: base_url is required", tag))
		}
		if p.Timeout < 0 {
			errs = append(errs, fmt.Errorf("provider catalog: %s: timeout must be positive", tag))
		}
		switch p.ResendChannel {
		case "", "email", "sms":
		default:
			errs = append(errs, fmt.Errorf("provider catalog: %s: unknown resend_channel %q", tag, p.ResendChannel))
		}
		switch p.Auth.Kind {
		case "", "none", "api_key", "basic", "bearer":
		default:
			errs = append(errs, fmt.Errorf("provider catalog: %s: unknown auth kind %q", tag, p.Auth.Kind))
		}
	}
	if p, ok := c.Providers[string(models.ProviderSubscriber)]; !ok || p.Adapter != AdapterSubscriber {
		for tag, p := range c.Providers {
			if p.Resync {
				errs = append(errs, fmt.Errorf("provider catalog: %s: resync needs a subscriber provider", tag))
			}
		}
	}
	return errors.Join(errs...)
}

// TimeoutFor returns the provider timeout, falling back to the catalog
// default and then to fallback.
func (c *Catalog) TimeoutFor(p ProviderConfig, fallback time.Duration) time.Duration {
	switch {
	case p.Timeout > 0:
		return p.Timeout
	case c.Defaults.Timeout > 0:
		return c.Defaults.Timeout
	default:
		return fallback
	}
}

// sequentialCalls is the most upstream calls one operator action makes in a
// row: a fresh lookup (product and info), the companion profile read, and the
// mutation itself.
const sequentialCalls = 4

// requestSlack covers the audit write and response encoding.
const requestSlack = 5 * time.Second

// RequestBudget is how long an authenticated request may run. It is sized so
// the slowest configured provider can complete every sequential call of an
// action within its own per-call timeout.
func (c *Catalog) RequestBudget(fallback time.Duration) time.Duration {
	longest := c.TimeoutFor(ProviderConfig{}, fallback)
	for _, p := range c.Providers {
		if t := c.TimeoutFor(p, fallback); t > longest {
			longest = t
		}
	}
	return sequentialCalls*longest + requestSlack
}

// BusyMarkersFor returns the provider markers, falling back to the catalog default.
func (c *Catalog) BusyMarkersFor(p ProviderConfig) []string {
	if len(p.BusyMarkers) > 0 {
		return p.BusyMarkers
	}
	return c.Defaults.BusyMarkers
}

// Resolve reads the credential from the environment through getenv. A named
// variable that is empty is an error.
func (a AuthConfig) Resolve(getenv func(string) string) (Credentials, error) {
	creds := Credentials{Kind: a.Kind, Header: a.Header}
	if creds.Kind == "" {
		creds.Kind = "none"
	}
	read := func(name string) (string, error) {
		if name == "" {
			return "", fmt.Errorf("%s auth needs an environment variable name", creds.Kind)
		}
		v := getenv(name)
		if v == "" {
			return "", fmt.Errorf("environment variable %s is empty", name)
		}
		return v, nil
	}
	var err error
	switch creds.Kind {
	case "api_key":
		creds.APIKey, err = read(a.APIKeyEnv)
	case "bearer":
		creds.Token, err = read(a.TokenEnv)
	case "basic":
		if creds.Username, err = read(a.UsernameEnv); err == nil {
			creds.Password, err = read(a.PasswordEnv)
		}
	}
	if err != nil {
		return Credentials{}, err
	}
	return creds, nil
}
