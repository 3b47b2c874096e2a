/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package prompt constructs system prompts from templates with typed
// placeholder bindings. Templates must be literal strings; dynamic data
// enters only through encoders, which keeps user content from being
// interpreted as template text.
package prompt

import (
	"fmt"
	"maps"
)

// literal only accepts untyped string constants, so templates and literal
// bindings are always developer-authored.
type literal string

// Prompt is an immutable template with {{name}} placeholders. Binding
// methods return new instances; the original is safe to share.
type Prompt struct {
	template string
	bindings map[string]binding
}

// New parses a template literal and records its placeholders.
func New(template literal) (*Prompt, error) {
	bindings := make(map[string]binding)
	tmpl, err := expand(string(template), func(name string) (string, error) {
		if _, ok := bindings[name]; !ok {
			bindings[name] = &unbound{name: name}
		}
		return fmt.Sprintf("{{%s}}", name), nil
	})
	if err != nil {
		return nil, err
	}
	return &Prompt{template: tmpl, bindings: bindings}, nil
}

// Names returns the set of placeholder names in the template.
func (p *Prompt) Names() map[string]struct{} {
	names := make(map[string]struct{}, len(p.bindings))
	for name := range p.bindings {
		names[name] = struct{}{}
	}
	return names
}

func (p *Prompt) rebind(name string, b binding) (*Prompt, error) {
	prior, ok := p.bindings[name]
	if !ok {
		return nil, fmt.Errorf("binding %q not found in template", name)
	}
	if _, isUnbound := prior.(*unbound); !isUnbound {
		return nil, fmt.Errorf("binding %q already bound", name)
	}
	next := &Prompt{template: p.template, bindings: maps.Clone(p.bindings)}
	next.bindings[name] = b
	return next, nil
}

// BindString binds a developer-authored literal string to a placeholder.
func (p *Prompt) BindString(name string, value literal) (*Prompt, error) {
	return p.rebind(name, &literalBinding{val: string(value)})
}

// BindJSON binds structured data to a placeholder as indented JSON.
func (p *Prompt) BindJSON(name string, data any) (*Prompt, error) {
	return p.rebind(name, &jsonBinding{data: data})
}

// BindYAML binds structured data to a placeholder as YAML.
func (p *Prompt) BindYAML(name string, data any) (*Prompt, error) {
	return p.rebind(name, &yamlBinding{data: data})
}

// Build renders the final prompt. Every placeholder must be bound.
func (p *Prompt) Build() (string, error) {
	values := make(map[string]string, len(p.bindings))
	for name, b := range p.bindings {
		val, err := b.value()
		if err != nil {
			return "", err
		}
		values[name] = val
	}
	return expand(p.template, func(name string) (string, error) {
		if val, ok := values[name]; ok {
			return val, nil
		}
		return "", fmt.Errorf("internal error: binding %q not found", name)
	})
}

// Must panics on error. For package-level template variables.
func Must(p *Prompt, err error) *Prompt {
	if err != nil {
		panic(err)
	}
	return p
}

// MustNew is sugar for Must(New(template)).
func MustNew(template literal) *Prompt {
	return Must(New(template))
}
