/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Local implements Workspace against a directory on the local filesystem.
type Local struct {
	root string
}

var _ Workspace = (*Local)(nil)

// NewLocal creates a Workspace rooted at the given directory. The directory
// must already exist.
func NewLocal(root string) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("workspace root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root %q is not a directory", root)
	}
	return &Local{root: abs}, nil
}

// Root returns the absolute path of the workspace root.
func (l *Local) Root() string {
	return l.root
}

// resolve maps a workspace-relative path to an absolute path, rejecting
// anything that escapes the root. An empty path or "." refers to the root
// itself.
func (l *Local) resolve(rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	if rel == "" || rel == "." {
		return l.root, nil
	}
	if path.IsAbs(rel) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%q: %w", rel, ErrOutsideRoot)
	}
	cleaned := path.Clean(strings.ReplaceAll(rel, "\\", "/"))
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%q: %w", rel, ErrOutsideRoot)
	}
	return filepath.Join(l.root, filepath.FromSlash(cleaned)), nil
}

// relativize converts an absolute path under the root back to the
// slash-separated workspace-relative form.
func (l *Local) relativize(abs string) string {
	rel, err := filepath.Rel(l.root, abs)
	if err != nil {
		return abs
	}
	return filepath.ToSlash(rel)
}

func (l *Local) ReadFile(_ context.Context, p string) ([]byte, error) {
	abs, err := l.resolve(p)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%q: %w", p, ErrNotFound)
	}
	return data, err
}

func (l *Local) WriteFile(_ context.Context, p string, data []byte) error {
	abs, err := l.resolve(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("creating parent directory for %q: %w", p, err)
	}
	return os.WriteFile(abs, data, 0o644)
}

func (l *Local) Mkdir(_ context.Context, p string) error {
	abs, err := l.resolve(p)
	if err != nil {
		return err
	}
	return os.MkdirAll(abs, 0o755)
}

func (l *Local) Stat(_ context.Context, p string) (Info, error) {
	abs, err := l.resolve(p)
	if err != nil {
		return Info{}, err
	}
	fi, err := os.Stat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return Info{}, fmt.Errorf("%q: %w", p, ErrNotFound)
	}
	if err != nil {
		return Info{}, err
	}
	return l.infoFrom(abs, fi), nil
}

func (l *Local) List(_ context.Context, p string, recursive bool) ([]Info, error) {
	abs, err := l.resolve(p)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%q: %w", p, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%q is not a directory", p)
	}

	var infos []Info
	if recursive {
		err = filepath.WalkDir(abs, func(entry string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry == abs {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			infos = append(infos, l.infoFrom(entry, fi))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %q: %w", p, err)
		}
	} else {
		entries, err := os.ReadDir(abs)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		for _, entry := range entries {
			fi, err := entry.Info()
			if err != nil {
				return nil, err
			}
			infos = append(infos, l.infoFrom(filepath.Join(abs, entry.Name()), fi))
		}
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	return infos, nil
}

func (l *Local) Remove(_ context.Context, p string) error {
	abs, err := l.resolve(p)
	if err != nil {
		return err
	}
	if abs == l.root {
		return fmt.Errorf("refusing to remove the workspace root")
	}
	if err := os.Remove(abs); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%q: %w", p, ErrNotFound)
	} else if err != nil {
		return err
	}
	return nil
}

func (l *Local) Rename(_ context.Context, oldPath, newPath string) error {
	oldAbs, err := l.resolve(oldPath)
	if err != nil {
		return err
	}
	newAbs, err := l.resolve(newPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(newAbs), 0o755); err != nil {
		return fmt.Errorf("creating parent directory for %q: %w", newPath, err)
	}
	if err := os.Rename(oldAbs, newAbs); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%q: %w", oldPath, ErrNotFound)
	} else if err != nil {
		return err
	}
	return nil
}

func (l *Local) infoFrom(abs string, fi fs.FileInfo) Info {
	size := fi.Size()
	if fi.IsDir() {
		size = 0
	}
	return Info{
		Name:    fi.Name(),
		Path:    l.relativize(abs),
		Dir:     fi.IsDir(),
		Size:    size,
		ModTime: fi.ModTime(),
	}
}
