/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package config loads process-level configuration from the environment.
package config

import (
	"context"
	"fmt"

	"chainguard.dev/foreman/agentconfig"
	"github.com/sethvargo/go-envconfig"
)

// Config is the process-level configuration. Per-agent settings live in
// the workspace's agent settings document, not here; this holds only what
// the process needs before any project is opened.
type Config struct {
	// AnthropicAPIKey enables the anthropic provider when set.
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`

	// OpenAIAPIKey enables the openai provider when set.
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`

	// ProjectRoot is the workspace directory agents operate in.
	ProjectRoot string `env:"FOREMAN_PROJECT_ROOT,default=."`

	// MaxSteps bounds model turns per conversation.
	MaxSteps int `env:"FOREMAN_MAX_STEPS,default=16"`

	// DefaultProvider and DefaultModel seed newly created agents.
	DefaultProvider string `env:"FOREMAN_DEFAULT_PROVIDER,default=anthropic"`
	DefaultModel    string `env:"FOREMAN_DEFAULT_MODEL,default=claude-sonnet-4-5"`
}

// Validate checks for a runnable configuration.
func (c Config) Validate() error {
	if c.AnthropicAPIKey == "" && c.OpenAIAPIKey == "" {
		return fmt.Errorf("no provider configured: set ANTHROPIC_API_KEY or OPENAI_API_KEY")
	}
	if c.MaxSteps <= 0 {
		return fmt.Errorf("FOREMAN_MAX_STEPS must be positive, got %d", c.MaxSteps)
	}
	switch agentconfig.Provider(c.DefaultProvider) {
	case agentconfig.ProviderAnthropic, agentconfig.ProviderOpenAI:
	default:
		return fmt.Errorf("unknown FOREMAN_DEFAULT_PROVIDER %q", c.DefaultProvider)
	}
	return nil
}

// Process loads configuration from the process environment.
func Process(ctx context.Context) (Config, error) {
	return processWith(ctx, envconfig.OsLookuper())
}

func processWith(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return Config{}, fmt.Errorf("processing config: %w", err)
	}
	return cfg, nil
}
