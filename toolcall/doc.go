/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package toolcall defines the provider-independent tool representation
// shared by the registry, the tool implementations, and the execution
// drivers.
//
// A Tool pairs a Definition (the wire-facing schema the model sees) with a
// single Handler that works with any provider. Conversion to SDK-specific
// definition types happens downstream in the anthropictool and openaitool
// subpackages; tool dispatch stays provider-independent because the driver
// normalizes every provider's tool-use payload into a ToolCall before
// invoking the handler.
package toolcall
