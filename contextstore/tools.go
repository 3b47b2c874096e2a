/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package contextstore

import (
	"context"
	"fmt"
	"strings"

	"chainguard.dev/foreman/agenttrace"
	"chainguard.dev/foreman/registry"
	"chainguard.dev/foreman/toolcall"
	"chainguard.dev/foreman/toolcall/params"
	"github.com/chainguard-dev/clog"
)

func categoryNames() []string {
	names := make([]string, 0, len(Categories))
	for _, c := range Categories {
		names = append(names, string(c))
	}
	return names
}

// Entries returns the context-category registry entries bound to the store.
func Entries(store *Store) []registry.Entry {
	categories := categoryNames()
	return []registry.Entry{
		{
			ID:             "write_context_note",
			DisplayName:    "Write Context Note",
			Category:       registry.CategoryContext,
			DefaultEnabled: true,
			Tool: toolcall.Tool{
				Def: toolcall.Definition{
					Name:        "write_context_note",
					Description: "Save important project context to persistent memory so future sessions can recall it.",
					Parameters: []toolcall.Parameter{
						{Name: "category", Type: "string", Description: "Which memory slot to write", Required: true, Enum: categories},
						{Name: "title", Type: "string", Description: "A short title for this note", Required: true},
						{Name: "content", Type: "string", Description: "The note body (markdown)", Required: true},
						{Name: "append", Type: "boolean", Description: "Append beneath the existing note instead of replacing it (default: false)"},
					},
				},
				Handler: writeNoteHandler(store),
			},
		},
		{
			ID:             "read_context_note",
			DisplayName:    "Read Context Note",
			Category:       registry.CategoryContext,
			DefaultEnabled: true,
			Tool: toolcall.Tool{
				Def: toolcall.Definition{
					Name:        "read_context_note",
					Description: "Read the persistent memory stored under a category.",
					Parameters: []toolcall.Parameter{
						{Name: "category", Type: "string", Description: "Which memory slot to read", Required: true, Enum: categories},
					},
				},
				Handler: readNoteHandler(store),
			},
		},
		{
			ID:             "list_context_notes",
			DisplayName:    "List Context Notes",
			Category:       registry.CategoryContext,
			DefaultEnabled: true,
			Tool: toolcall.Tool{
				Def: toolcall.Definition{
					Name:        "list_context_notes",
					Description: "List which persistent memory categories currently hold notes.",
				},
				Handler: listNotesHandler(store),
			},
		},
		{
			ID:             "log_progress",
			DisplayName:    "Log Progress",
			Category:       registry.CategoryContext,
			DefaultEnabled: true,
			Tool: toolcall.Tool{
				Def: toolcall.Definition{
					Name:        "log_progress",
					Description: "Append a timestamped progress entry with optional achievements, next steps, and blockers.",
					Parameters: []toolcall.Parameter{
						{Name: "summary", Type: "string", Description: "A one-paragraph summary of what happened", Required: true},
						{Name: "achievements", Type: "array", Items: "string", Description: "What was completed"},
						{Name: "nextSteps", Type: "array", Items: "string", Description: "What should happen next"},
						{Name: "blockers", Type: "array", Items: "string", Description: "What is blocking progress"},
					},
				},
				Handler: logProgressHandler(store),
			},
		},
	}
}

func writeNoteHandler(store *Store) func(context.Context, toolcall.ToolCall, *agenttrace.Trace) map[string]any {
	return func(ctx context.Context, call toolcall.ToolCall, trace *agenttrace.Trace) map[string]any {
		log := clog.FromContext(ctx)

		rawCategory, errResp := toolcall.Param[string](call, trace, "category")
		if errResp != nil {
			return errResp
		}
		title, errResp := toolcall.Param[string](call, trace, "title")
		if errResp != nil {
			return errResp
		}
		content, errResp := toolcall.Param[string](call, trace, "content")
		if errResp != nil {
			return errResp
		}
		appendMode, errResp := toolcall.OptionalParam[bool](call, "append", false)
		if errResp != nil {
			return errResp
		}

		category, err := ParseCategory(rawCategory)
		if err != nil {
			trace.BadToolCall(call.ID, call.Name, call.Args, err)
			return params.ErrorWithContext(err, map[string]any{"category": rawCategory})
		}

		tc := trace.StartToolCall(call.ID, call.Name, map[string]any{
			"category": string(category), "title": title, "append": appendMode,
		})

		if err := store.WriteNote(ctx, category, title, content, appendMode); err != nil {
			log.With("category", category).With("error", err).Error("Failed to write context note")
			result := params.ErrorWithContext(err, map[string]any{"category": string(category)})
			tc.Complete(result, err)
			return result
		}

		verb := "Saved"
		if appendMode {
			verb = "Appended"
		}
		result := map[string]any{
			"success":  true,
			"message":  fmt.Sprintf("%s note %q to %s memory", verb, title, category),
			"category": string(category),
			"title":    title,
		}
		tc.Complete(result, nil)
		return result
	}
}

func readNoteHandler(store *Store) func(context.Context, toolcall.ToolCall, *agenttrace.Trace) map[string]any {
	return func(ctx context.Context, call toolcall.ToolCall, trace *agenttrace.Trace) map[string]any {
		log := clog.FromContext(ctx)

		rawCategory, errResp := toolcall.Param[string](call, trace, "category")
		if errResp != nil {
			return errResp
		}
		category, err := ParseCategory(rawCategory)
		if err != nil {
			trace.BadToolCall(call.ID, call.Name, call.Args, err)
			return params.ErrorWithContext(err, map[string]any{"category": rawCategory})
		}

		tc := trace.StartToolCall(call.ID, call.Name, map[string]any{"category": string(category)})

		content, found, err := store.ReadNote(ctx, category)
		if err != nil {
			log.With("category", category).With("error", err).Error("Failed to read context note")
			result := params.ErrorWithContext(err, map[string]any{"category": string(category)})
			tc.Complete(result, err)
			return result
		}

		// Never-written is data, not an error: the model decides what to do.
		if !found {
			result := map[string]any{"success": true, "found": false}
			tc.Complete(result, nil)
			return result
		}

		result := map[string]any{
			"success": true,
			"found":   true,
			"content": content,
			"lines":   strings.Count(content, "\n") + 1,
			"size":    len(content),
		}
		tc.Complete(map[string]any{"success": true, "found": true, "size": len(content)}, nil)
		return result
	}
}

func listNotesHandler(store *Store) func(context.Context, toolcall.ToolCall, *agenttrace.Trace) map[string]any {
	return func(ctx context.Context, call toolcall.ToolCall, trace *agenttrace.Trace) map[string]any {
		log := clog.FromContext(ctx)

		tc := trace.StartToolCall(call.ID, call.Name, nil)

		existing, err := store.ListNotes(ctx)
		if err != nil {
			log.With("error", err).Error("Failed to list context notes")
			result := params.ErrorWithContext(err, nil)
			tc.Complete(result, err)
			return result
		}

		notes := make(map[string]any, len(existing))
		var available []string
		for _, c := range Categories {
			notes[string(c)] = existing[c]
			if existing[c] {
				available = append(available, string(c))
			}
		}

		result := map[string]any{
			"success":        true,
			"notes":          notes,
			"available":      available,
			"totalAvailable": len(available),
		}
		tc.Complete(result, nil)
		return result
	}
}

func logProgressHandler(store *Store) func(context.Context, toolcall.ToolCall, *agenttrace.Trace) map[string]any {
	return func(ctx context.Context, call toolcall.ToolCall, trace *agenttrace.Trace) map[string]any {
		log := clog.FromContext(ctx)

		summary, errResp := toolcall.Param[string](call, trace, "summary")
		if errResp != nil {
			return errResp
		}
		achievements, errResp := toolcall.OptionalParam[[]string](call, "achievements", nil)
		if errResp != nil {
			return errResp
		}
		nextSteps, errResp := toolcall.OptionalParam[[]string](call, "nextSteps", nil)
		if errResp != nil {
			return errResp
		}
		blockers, errResp := toolcall.OptionalParam[[]string](call, "blockers", nil)
		if errResp != nil {
			return errResp
		}

		tc := trace.StartToolCall(call.ID, call.Name, map[string]any{"summary": summary})

		items, err := store.LogProgress(ctx, summary, achievements, nextSteps, blockers)
		if err != nil {
			log.With("error", err).Error("Failed to log progress")
			result := params.ErrorWithContext(err, nil)
			tc.Complete(result, err)
			return result
		}

		result := map[string]any{
			"success":     true,
			"message":     "Progress logged",
			"itemsLogged": items,
		}
		tc.Complete(result, nil)
		return result
	}
}
