/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package contextstore persists per-project agent memory as markdown notes
// under a reserved .agent/ directory in the project workspace.
//
// Each of the five fixed categories owns exactly one note file. Writes are
// serialized per category, so two delegated agents appending to the same
// category interleave at entry granularity rather than corrupting the blob.
package contextstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"chainguard.dev/foreman/workspace"
	"github.com/chainguard-dev/clog"
)

// Category names one of the fixed persistent-memory slots.
type Category string

const (
	CategoryArchitecture Category = "architecture"
	CategoryProgress     Category = "progress"
	CategoryResearch     Category = "research"
	CategoryTasks        Category = "tasks"
	CategoryNotes        Category = "notes"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryArchitecture,
	CategoryProgress,
	CategoryResearch,
	CategoryTasks,
	CategoryNotes,
}

// ParseCategory validates a wire-level category string.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q (want one of: architecture, progress, research, tasks, notes)", s)
}

const (
	// agentDir is the reserved memory tree at the project root.
	agentDir = ".agent"

	readmePath     = ".agent/README.md"
	researchDir    = ".agent/research"
	sessionsDir    = ".agent/sessions"
	entrySeparator = "\n\n---\n\n"
)

const readmeContent = `# Agent Memory

This directory is maintained by the project's AI agents. Each markdown file
holds one category of persistent context that agents read and update across
sessions:

- architecture.md - technology stack and structural decisions
- progress.md - timestamped progress log entries
- research.md - findings and references
- tasks.md - open and completed work items
- notes.md - anything that fits nowhere else

research/ holds long-form research artifacts; sessions/ holds session logs.
Edits you make here are visible to the agents, but files may be rewritten.
`

// Store reads and writes category notes through a workspace.
type Store struct {
	ws workspace.Workspace

	// One mutex per category serializes read-modify-write cycles.
	mu map[Category]*sync.Mutex
}

// New returns a Store over the given workspace. Call Init before first use
// in a fresh project.
func New(ws workspace.Workspace) *Store {
	mu := make(map[Category]*sync.Mutex, len(Categories))
	for _, c := range Categories {
		mu[c] = &sync.Mutex{}
	}
	return &Store{ws: ws, mu: mu}
}

// Init creates the reserved .agent/ tree. It is idempotent: re-opening an
// existing project must not clobber notes a prior session wrote, so the
// README is only written when absent and note files are never touched.
func (s *Store) Init(ctx context.Context) error {
	log := clog.FromContext(ctx)

	for _, dir := range []string{agentDir, researchDir, sessionsDir} {
		if err := s.ws.Mkdir(ctx, dir); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	if _, err := s.ws.Stat(ctx, readmePath); err == nil {
		log.Debug("Agent memory directory already initialized")
		return nil
	} else if !errors.Is(err, workspace.ErrNotFound) {
		return fmt.Errorf("checking %s: %w", readmePath, err)
	}

	if err := s.ws.WriteFile(ctx, readmePath, []byte(readmeContent)); err != nil {
		return fmt.Errorf("writing %s: %w", readmePath, err)
	}
	log.Info("Initialized agent memory directory")
	return nil
}

func notePath(c Category) string {
	return fmt.Sprintf("%s/%s.md", agentDir, c)
}

// formatEntry renders the metadata header followed by the body.
func formatEntry(title, content string, now time.Time) string {
	return fmt.Sprintf("## %s\n*%s (%s)*\n\n%s",
		title,
		now.Format("January 2, 2006 at 3:04 PM"),
		now.Format(time.RFC3339),
		strings.TrimRight(content, "\n"))
}

// WriteNote stores content under the given category. With append=false the
// whole note is replaced; with append=true the new entry is concatenated
// under a separator beneath whatever is already there.
func (s *Store) WriteNote(ctx context.Context, c Category, title, content string, append bool) error {
	s.mu[c].Lock()
	defer s.mu[c].Unlock()
	return s.writeLocked(ctx, c, title, content, append)
}

func (s *Store) writeLocked(ctx context.Context, c Category, title, content string, append bool) error {
	entry := formatEntry(title, content, time.Now())

	body := entry
	if append {
		prior, err := s.ws.ReadFile(ctx, notePath(c))
		if err != nil && !errors.Is(err, workspace.ErrNotFound) {
			return fmt.Errorf("reading %s note: %w", c, err)
		}
		if len(prior) > 0 {
			body = strings.TrimRight(string(prior), "\n") + entrySeparator + entry
		}
	}

	if err := s.ws.WriteFile(ctx, notePath(c), []byte(body+"\n")); err != nil {
		return fmt.Errorf("writing %s note: %w", c, err)
	}
	return nil
}

// ReadNote returns the stored body for a category. A category that was
// never written reports found=false with no error.
func (s *Store) ReadNote(ctx context.Context, c Category) (content string, found bool, err error) {
	s.mu[c].Lock()
	defer s.mu[c].Unlock()

	data, err := s.ws.ReadFile(ctx, notePath(c))
	if errors.Is(err, workspace.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s note: %w", c, err)
	}
	return string(data), true, nil
}

// ListNotes reports, for every category, whether a note currently exists.
func (s *Store) ListNotes(ctx context.Context) (map[Category]bool, error) {
	notes := make(map[Category]bool, len(Categories))
	for _, c := range Categories {
		_, err := s.ws.Stat(ctx, notePath(c))
		switch {
		case err == nil:
			notes[c] = true
		case errors.Is(err, workspace.ErrNotFound):
			notes[c] = false
		default:
			return nil, fmt.Errorf("checking %s note: %w", c, err)
		}
	}
	return notes, nil
}

// LogProgress appends a timestamped block to the progress category. It
// returns the number of items recorded (the summary plus every list item).
func (s *Store) LogProgress(ctx context.Context, summary string, achievements, nextSteps, blockers []string) (int, error) {
	var b strings.Builder
	b.WriteString(summary)
	items := 1

	items += writeSection(&b, "Achievements", achievements)
	items += writeSection(&b, "Next Steps", nextSteps)
	items += writeSection(&b, "Blockers", blockers)

	s.mu[CategoryProgress].Lock()
	defer s.mu[CategoryProgress].Unlock()
	if err := s.writeLocked(ctx, CategoryProgress, "Progress Update", b.String(), true); err != nil {
		return 0, err
	}
	return items, nil
}

func writeSection(b *strings.Builder, heading string, items []string) int {
	if len(items) == 0 {
		return 0
	}
	fmt.Fprintf(b, "\n\n**%s**\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	return len(items)
}
