// Package config loads the dashboard settings from the environment, an optional
// .env file and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/checkout"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/money"
)

const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"

	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	Env         string `mapstructure:"env" yaml:"env"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`

	HTTPAddr        string        `mapstructure:"http_addr" yaml:"http_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"-"`
	// Timezone is the IANA zone used for day boundaries and rendered dates.
	Timezone string `mapstructure:"timezone" yaml:"timezone"`

	PagarmeAPIKey   string        `mapstructure:"pagarme_api_key" yaml:"pagarme_api_key"`
	PagarmeV1URL    string        `mapstructure:"pagarme_v1_url" yaml:"pagarme_v1_url"`
	PagarmeV5URL    string        `mapstructure:"pagarme_v5_url" yaml:"pagarme_v5_url"`
	ProviderTimeout time.Duration `mapstructure:"provider_timeout" yaml:"-"`
	PageSize        int           `mapstructure:"page_size" yaml:"page_size"`
	MaxPages        int           `mapstructure:"max_pages" yaml:"max_pages"`

	CacheBackend  string        `mapstructure:"cache_backend" yaml:"cache_backend"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl" yaml:"-"`
	RedisAddr     string        `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password" yaml:"redis_password"`

	CheckoutStore string `mapstructure:"checkout_store" yaml:"checkout_store"`
	DatabaseURL   string `mapstructure:"database_url" yaml:"database_url"`

	ProductAmount       int64  `mapstructure:"product_amount" yaml:"product_amount"`
	ProductDescription  string `mapstructure:"product_description" yaml:"product_description"`
	ProductCode         string `mapstructure:"product_code" yaml:"product_code"`
	StatementDescriptor string `mapstructure:"statement_descriptor" yaml:"statement_descriptor"`

	DashboardUser         string `mapstructure:"dashboard_user" yaml:"dashboard_user"`
	DashboardPasswordHash string `mapstructure:"dashboard_password_hash" yaml:"dashboard_password_hash"`
}

// Validate checks values that would otherwise fail late, at first use.
func (c Config) Validate() error {
	var problems []string
	switch c.CacheBackend {
	case CacheMemory, CacheNone:
	case CacheRedis:
		if c.RedisAddr == "" {
			problems = append(problems, "redis_addr is required for the redis cache")
		}
	default:
		problems = append(problems, fmt.Sprintf("cache_backend %q is not one of memory, redis, none", c.CacheBackend))
	}
	switch c.CheckoutStore {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			problems = append(problems, "database_url is required for the postgres store")
		}
	default:
		problems = append(problems, fmt.Sprintf("checkout_store %q is not one of memory, postgres", c.CheckoutStore))
	}
	if c.PageSize <= 0 {
		problems = append(problems, "page_size must be positive")
	}
	if c.MaxPages < 1 {
		problems = append(problems, "max_pages must be at least 1")
	}
	if c.ProductAmount <= 0 {
		problems = append(problems, "product_amount must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("timezone %q: %v", c.Timezone, err))
	}
	if (c.DashboardUser == "") != (c.DashboardPasswordHash == "") {
		problems = append(problems, "dashboard_user and dashboard_password_hash must be set together")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Location resolves Timezone, falling back to UTC when it cannot be loaded.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) Product() checkout.Product {
	return checkout.Product{
		Amount:              money.Cents(c.ProductAmount),
		Description:         c.ProductDescription,
		Code:                c.ProductCode,
		StatementDescriptor: c.StatementDescriptor,
	}
}

// AuthEnabled reports whether dashboard routes require Basic credentials.
func (c Config) AuthEnabled() bool {
	return c.DashboardUser != "" && c.DashboardPasswordHash != ""
}

// Masked returns a copy safe to print: secrets keep at most a short prefix.
func (c Config) Masked() Config {
	c.PagarmeAPIKey = mask(c.PagarmeAPIKey, 6)
	c.RedisPassword = mask(c.RedisPassword, 0)
	c.DashboardPasswordHash = mask(c.DashboardPasswordHash, 0)
	c.DatabaseURL = maskURLPassword(c.DatabaseURL)
	return c
}

func mask(s string, keep int) string {
	if s == "" {
		return ""
	}
	if keep <= 0 || len(s) <= keep {
		return "****"
	}
	return s[:keep] + "****"
}

// maskURLPassword hides the password of a user:password@host URL.
func maskURLPassword(u string) string {
	scheme, rest, ok := strings.Cut(u, "://")
	if !ok {
		return u
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return u
	}
	user, _, hasPass := strings.Cut(creds, ":")
	if !hasPass {
		return u
	}
	return scheme + "://" + user + ":****@" + host
}
