/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package driver

import (
	"errors"
	"fmt"

	"chainguard.dev/foreman/driver/retry"
	"chainguard.dev/foreman/metrics"
	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
)

// Option is a functional option for configuring the Driver.
type Option func(*Driver) error

// WithAnthropicAPIKey configures the Anthropic client.
func WithAnthropicAPIKey(key string) Option {
	return func(d *Driver) error {
		if key == "" {
			return errors.New("anthropic API key cannot be empty")
		}
		client := anthropic.NewClient(anthropicoption.WithAPIKey(key))
		d.anthropicClient = &client
		return nil
	}
}

// WithAnthropicClient supplies a pre-built Anthropic client. Useful in
// tests to point the driver at a fake server.
func WithAnthropicClient(client anthropic.Client) Option {
	return func(d *Driver) error {
		d.anthropicClient = &client
		return nil
	}
}

// WithOpenAIAPIKey configures the OpenAI client.
func WithOpenAIAPIKey(key string) Option {
	return func(d *Driver) error {
		if key == "" {
			return errors.New("openai API key cannot be empty")
		}
		client := openai.NewClient(openaioption.WithAPIKey(key))
		d.openaiClient = &client
		return nil
	}
}

// WithOpenAIClient supplies a pre-built OpenAI client.
func WithOpenAIClient(client openai.Client) Option {
	return func(d *Driver) error {
		d.openaiClient = &client
		return nil
	}
}

// WithMaxSteps bounds the number of model turns per conversation. When the
// budget runs out the run ends with Result.Truncated set, not an error.
func WithMaxSteps(steps int) Option {
	return func(d *Driver) error {
		if steps <= 0 {
			return fmt.Errorf("max steps must be positive, got %d", steps)
		}
		d.maxSteps = steps
		return nil
	}
}

// WithRetryConfig sets the retry configuration for transient model API
// errors such as 429 rate limits and overload responses.
func WithRetryConfig(cfg retry.Config) Option {
	return func(d *Driver) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		d.retryConfig = cfg
		return nil
	}
}

// WithAttributeEnricher sets a custom attribute enricher for metrics,
// letting the application attach contextual dimensions such as project or
// session identifiers.
func WithAttributeEnricher(enricher metrics.AttributeEnricher) Option {
	return func(d *Driver) error {
		d.genai.SetAttributeEnricher(enricher)
		return nil
	}
}
