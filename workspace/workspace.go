/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package workspace provides a sandboxed file-access capability scoped to a
// single project root.
//
// Every component that touches project files receives a Workspace by
// reference; nothing in this module reaches for ambient filesystem state.
// All paths are workspace-relative. Paths that escape the root (via "..",
// absolute paths, or symlink-free lexical traversal) are rejected with
// ErrOutsideRoot before any filesystem operation is attempted.
package workspace

import (
	"context"
	"errors"
	"time"
)

// ErrOutsideRoot is returned for any path that resolves outside the
// workspace root.
var ErrOutsideRoot = errors.New("path resolves outside the workspace root")

// ErrNotFound is returned when the target of an operation does not exist.
var ErrNotFound = errors.New("no such file or directory")

// Info describes a single workspace entry.
type Info struct {
	// Name is the base name of the entry.
	Name string `json:"name"`

	// Path is the workspace-relative path of the entry.
	Path string `json:"path"`

	// Dir reports whether the entry is a directory.
	Dir bool `json:"dir"`

	// Size is the entry size in bytes (0 for directories).
	Size int64 `json:"size"`

	// ModTime is the last modification time.
	ModTime time.Time `json:"mod_time"`
}

// Workspace is the file-access capability handed to tool implementations
// and the context store. Implementations must scope every operation to one
// project root.
type Workspace interface {
	// ReadFile returns the full content of the file at path.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile writes data to path, creating the file if it does not
	// exist and replacing its content entirely if it does. Parent
	// directories are created as needed.
	WriteFile(ctx context.Context, path string, data []byte) error

	// Mkdir creates the directory at path, along with any missing
	// parents. Creating an existing directory is not an error.
	Mkdir(ctx context.Context, path string) error

	// Stat returns metadata for the entry at path, or ErrNotFound.
	Stat(ctx context.Context, path string) (Info, error)

	// List returns the entries under path. With recursive set, the full
	// subtree is walked depth-first; otherwise only direct children are
	// returned.
	List(ctx context.Context, path string, recursive bool) ([]Info, error)

	// Remove deletes the file or empty directory at path.
	Remove(ctx context.Context, path string) error

	// Rename moves the entry at oldPath to newPath within the workspace.
	Rename(ctx context.Context, oldPath, newPath string) error
}
