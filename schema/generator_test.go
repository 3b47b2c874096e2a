/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package schema_test

import (
	"testing"

	"chainguard.dev/foreman/schema"
)

func TestReflect(t *testing.T) {
	type nested struct {
		Value string `json:"value" jsonschema:"description=Nested value"`
	}
	type sample struct {
		Name   string  `json:"name" jsonschema:"description=Name,required"`
		Count  int     `json:"count,omitempty"`
		Nested *nested `json:"nested,omitempty"`
	}

	s := schema.Reflect(&sample{})
	if s == nil {
		t.Fatal("expected schema")
	}
	if len(s.Required) != 1 || s.Required[0] != "name" {
		t.Fatalf("unexpected required: %#v", s.Required)
	}

	props := s.Properties
	if props == nil {
		t.Fatal("expected properties")
	}
	name, ok := props.Get("name")
	if !ok {
		t.Fatal("missing name property")
	}
	if name.Description != "Name" {
		t.Fatalf("unexpected description: %q", name.Description)
	}
}

func TestMapForType(t *testing.T) {
	type input struct {
		Task    string `json:"task" jsonschema:"description=The task to perform,required"`
		Context string `json:"context,omitempty" jsonschema:"description=Optional extra context"`
	}

	m, err := schema.MapForType[input]()
	if err != nil {
		t.Fatalf("MapForType() = %v", err)
	}
	if m["type"] != "object" {
		t.Errorf("type = %v, want object", m["type"])
	}

	props, ok := m["properties"].(map[string]any)
	if !ok {
		t.Fatalf("properties missing: %#v", m)
	}
	task, ok := props["task"].(map[string]any)
	if !ok {
		t.Fatal("missing task property")
	}
	if task["description"] != "The task to perform" {
		t.Errorf("task description = %v", task["description"])
	}

	required, ok := m["required"].([]any)
	if !ok || len(required) != 1 || required[0] != "task" {
		t.Errorf("required = %#v, want [task]", m["required"])
	}
}
