package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 100, cfg.RateLimit.AuthenticatedLimit)
	assert.Equal(t, 20, cfg.RateLimit.AnonymousLimit)
	assert.Equal(t, 5, cfg.RateLimit.AuthEndpointLimit)
	assert.Equal(t, 9, cfg.App.DefaultPageSize)
	assert.False(t, cfg.AI.Enabled())
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	v.Set("CACHE_TTL", "not-a-duration")
	v.Set("AI_API_KEY", "sk-test")

	cfg := fromViper(v)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.True(t, cfg.AI.Enabled())
}
