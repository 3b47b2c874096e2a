/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package filetools implements the file-category tools exposed to agents.
//
// Every tool takes a small structured input and returns a structured result
// with an explicit success flag. No implementation returns a Go error
// across the tool boundary: failures become {"success": false, "error":
// ...} so the calling model can retry, pick a different tool, or explain
// the failure in natural language instead of crashing the loop.
package filetools

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"chainguard.dev/foreman/agenttrace"
	"chainguard.dev/foreman/registry"
	"chainguard.dev/foreman/toolcall"
	"chainguard.dev/foreman/toolcall/params"
	"chainguard.dev/foreman/workspace"
	"github.com/chainguard-dev/clog"
)

// Entries returns the file-category registry entries bound to the given
// workspace. The read/write/create/list tools are default-enabled;
// delete_file and rename_file must be opted into per agent.
func Entries(ws workspace.Workspace) []registry.Entry {
	return []registry.Entry{
		{
			ID:             "read_file",
			DisplayName:    "Read File",
			Category:       registry.CategoryFile,
			DefaultEnabled: true,
			Tool: toolcall.Tool{
				Def: toolcall.Definition{
					Name:        "read_file",
					Description: "Read the complete content of a file in the project.",
					Parameters: []toolcall.Parameter{
						{Name: "path", Type: "string", Description: "The path to the file to read (relative to the project root)", Required: true},
					},
				},
				Handler: readFileHandler(ws),
			},
		},
		{
			ID:             "write_file",
			DisplayName:    "Write File",
			Category:       registry.CategoryFile,
			DefaultEnabled: true,
			Tool: toolcall.Tool{
				Def: toolcall.Definition{
					Name:        "write_file",
					Description: "Replace the full content of an existing file. Fails if the file does not exist; use create_file for new files.",
					Parameters: []toolcall.Parameter{
						{Name: "path", Type: "string", Description: "The path to the file to write (relative to the project root)", Required: true},
						{Name: "content", Type: "string", Description: "The complete new content of the file", Required: true},
					},
				},
				Handler: writeFileHandler(ws),
			},
		},
		{
			ID:             "create_file",
			DisplayName:    "Create File",
			Category:       registry.CategoryFile,
			DefaultEnabled: true,
			Tool: toolcall.Tool{
				Def: toolcall.Definition{
					Name:        "create_file",
					Description: "Create a new file. Fails if a file with the same name already exists at the target location.",
					Parameters: []toolcall.Parameter{
						{Name: "name", Type: "string", Description: "The name of the file to create", Required: true},
						{Name: "path", Type: "string", Description: "The parent folder (relative to the project root); empty for the root itself"},
						{Name: "content", Type: "string", Description: "Initial content of the file; empty if omitted"},
					},
				},
				Handler: createFileHandler(ws),
			},
		},
		{
			ID:             "create_folder",
			DisplayName:    "Create Folder",
			Category:       registry.CategoryFile,
			DefaultEnabled: true,
			Tool: toolcall.Tool{
				Def: toolcall.Definition{
					Name:        "create_folder",
					Description: "Create a new folder. Fails if an entry with the same name already exists at the target location.",
					Parameters: []toolcall.Parameter{
						{Name: "name", Type: "string", Description: "The name of the folder to create", Required: true},
						{Name: "path", Type: "string", Description: "The parent folder (relative to the project root); empty for the root itself"},
					},
				},
				Handler: createFolderHandler(ws),
			},
		},
		{
			ID:             "list_files",
			DisplayName:    "List Files",
			Category:       registry.CategoryFile,
			DefaultEnabled: true,
			Tool: toolcall.Tool{
				Def: toolcall.Definition{
					Name:        "list_files",
					Description: "List the files and folders in a project directory, optionally walking the full subtree.",
					Parameters: []toolcall.Parameter{
						{Name: "path", Type: "string", Description: "The directory to list (relative to the project root); empty for the root itself"},
						{Name: "recursive", Type: "boolean", Description: "Walk the full subtree instead of only direct children (default: false)"},
					},
				},
				Handler: listFilesHandler(ws),
			},
		},
		{
			ID:          "delete_file",
			DisplayName: "Delete File",
			Category:    registry.CategoryFile,
			Tool: toolcall.Tool{
				Def: toolcall.Definition{
					Name:        "delete_file",
					Description: "Delete a file from the project.",
					Parameters: []toolcall.Parameter{
						{Name: "path", Type: "string", Description: "The path to the file to delete (relative to the project root)", Required: true},
					},
				},
				Handler: deleteFileHandler(ws),
			},
		},
		{
			ID:          "rename_file",
			DisplayName: "Rename File",
			Category:    registry.CategoryFile,
			Tool: toolcall.Tool{
				Def: toolcall.Definition{
					Name:        "rename_file",
					Description: "Move or rename a file within the project.",
					Parameters: []toolcall.Parameter{
						{Name: "path", Type: "string", Description: "The current path of the file (relative to the project root)", Required: true},
						{Name: "newPath", Type: "string", Description: "The new path of the file (relative to the project root)", Required: true},
					},
				},
				Handler: renameFileHandler(ws),
			},
		},
	}
}

func readFileHandler(ws workspace.Workspace) func(context.Context, toolcall.ToolCall, *agenttrace.Trace) map[string]any {
	return func(ctx context.Context, call toolcall.ToolCall, trace *agenttrace.Trace) map[string]any {
		log := clog.FromContext(ctx)

		p, errResp := toolcall.Param[string](call, trace, "path")
		if errResp != nil {
			return errResp
		}

		tc := trace.StartToolCall(call.ID, call.Name, map[string]any{"path": p})

		data, err := ws.ReadFile(ctx, p)
		if err != nil {
			log.With("path", p).With("error", err).Error("Failed to read file")
			result := params.ErrorWithContext(err, map[string]any{"path": p})
			tc.Complete(result, err)
			return result
		}

		content := string(data)
		result := map[string]any{
			"success": true,
			"path":    p,
			"content": content,
			"size":    len(data),
			"lines":   countLines(content),
		}
		tc.Complete(map[string]any{"success": true, "path": p, "size": len(data)}, nil)
		return result
	}
}

func writeFileHandler(ws workspace.Workspace) func(context.Context, toolcall.ToolCall, *agenttrace.Trace) map[string]any {
	return func(ctx context.Context, call toolcall.ToolCall, trace *agenttrace.Trace) map[string]any {
		log := clog.FromContext(ctx)

		p, errResp := toolcall.Param[string](call, trace, "path")
		if errResp != nil {
			return errResp
		}
		content, errResp := toolcall.Param[string](call, trace, "content")
		if errResp != nil {
			return errResp
		}

		tc := trace.StartToolCall(call.ID, call.Name, map[string]any{"path": p, "size": len(content)})

		// Full-replace semantics on existing files only. Creation goes
		// through create_file so the model cannot scribble new files by
		// accident.
		info, err := ws.Stat(ctx, p)
		if err != nil {
			result := params.ErrorWithContext(fmt.Errorf("file does not exist, use create_file instead: %w", err), map[string]any{"path": p})
			tc.Complete(result, err)
			return result
		}
		if info.Dir {
			err := fmt.Errorf("%q is a folder, not a file", p)
			result := params.ErrorWithContext(err, map[string]any{"path": p})
			tc.Complete(result, err)
			return result
		}

		if err := ws.WriteFile(ctx, p, []byte(content)); err != nil {
			log.With("path", p).With("error", err).Error("Failed to write file")
			result := params.ErrorWithContext(err, map[string]any{"path": p})
			tc.Complete(result, err)
			return result
		}

		result := map[string]any{
			"success":      true,
			"path":         p,
			"bytesWritten": len(content),
			"message":      fmt.Sprintf("Replaced content of %s", p),
		}
		tc.Complete(result, nil)
		return result
	}
}

func createFileHandler(ws workspace.Workspace) func(context.Context, toolcall.ToolCall, *agenttrace.Trace) map[string]any {
	return func(ctx context.Context, call toolcall.ToolCall, trace *agenttrace.Trace) map[string]any {
		log := clog.FromContext(ctx)

		name, errResp := toolcall.Param[string](call, trace, "name")
		if errResp != nil {
			return errResp
		}
		parent, errResp := toolcall.OptionalParam[string](call, "path", "")
		if errResp != nil {
			return errResp
		}
		content, errResp := toolcall.OptionalParam[string](call, "content", "")
		if errResp != nil {
			return errResp
		}

		target := joinPath(parent, name)
		tc := trace.StartToolCall(call.ID, call.Name, map[string]any{"path": target, "size": len(content)})

		if _, err := ws.Stat(ctx, target); err == nil {
			err := fmt.Errorf("%q already exists", target)
			result := params.ErrorWithContext(err, map[string]any{"path": target})
			tc.Complete(result, err)
			return result
		}

		if err := ws.WriteFile(ctx, target, []byte(content)); err != nil {
			log.With("path", target).With("error", err).Error("Failed to create file")
			result := params.ErrorWithContext(err, map[string]any{"path": target})
			tc.Complete(result, err)
			return result
		}

		// Confirm the file actually landed before reporting success.
		info, err := ws.Stat(ctx, target)
		verified := err == nil && !info.Dir
		if !verified {
			err := fmt.Errorf("creation of %q could not be verified", target)
			result := params.ErrorWithContext(err, map[string]any{"path": target, "verified": false})
			tc.Complete(result, err)
			return result
		}

		result := map[string]any{
			"success":  true,
			"path":     target,
			"message":  fmt.Sprintf("Created %s", target),
			"size":     len(content),
			"verified": true,
		}
		tc.Complete(result, nil)
		return result
	}
}

func createFolderHandler(ws workspace.Workspace) func(context.Context, toolcall.ToolCall, *agenttrace.Trace) map[string]any {
	return func(ctx context.Context, call toolcall.ToolCall, trace *agenttrace.Trace) map[string]any {
		log := clog.FromContext(ctx)

		name, errResp := toolcall.Param[string](call, trace, "name")
		if errResp != nil {
			return errResp
		}
		parent, errResp := toolcall.OptionalParam[string](call, "path", "")
		if errResp != nil {
			return errResp
		}

		target := joinPath(parent, name)
		tc := trace.StartToolCall(call.ID, call.Name, map[string]any{"path": target})

		if _, err := ws.Stat(ctx, target); err == nil {
			err := fmt.Errorf("%q already exists", target)
			result := params.ErrorWithContext(err, map[string]any{"path": target})
			tc.Complete(result, err)
			return result
		}

		if err := ws.Mkdir(ctx, target); err != nil {
			log.With("path", target).With("error", err).Error("Failed to create folder")
			result := params.ErrorWithContext(err, map[string]any{"path": target})
			tc.Complete(result, err)
			return result
		}

		info, err := ws.Stat(ctx, target)
		verified := err == nil && info.Dir
		if !verified {
			err := fmt.Errorf("creation of %q could not be verified", target)
			result := params.ErrorWithContext(err, map[string]any{"path": target, "verified": false})
			tc.Complete(result, err)
			return result
		}

		result := map[string]any{
			"success":  true,
			"path":     target,
			"name":     name,
			"message":  fmt.Sprintf("Created folder %s", target),
			"verified": true,
		}
		tc.Complete(result, nil)
		return result
	}
}

func listFilesHandler(ws workspace.Workspace) func(context.Context, toolcall.ToolCall, *agenttrace.Trace) map[string]any {
	return func(ctx context.Context, call toolcall.ToolCall, trace *agenttrace.Trace) map[string]any {
		log := clog.FromContext(ctx)

		p, errResp := toolcall.OptionalParam[string](call, "path", "")
		if errResp != nil {
			return errResp
		}
		recursive, errResp := toolcall.OptionalParam[bool](call, "recursive", false)
		if errResp != nil {
			return errResp
		}

		tc := trace.StartToolCall(call.ID, call.Name, map[string]any{"path": p, "recursive": recursive})

		infos, err := ws.List(ctx, p, recursive)
		if err != nil {
			log.With("path", p).With("error", err).Error("Failed to list files")
			result := params.ErrorWithContext(err, map[string]any{"path": p})
			tc.Complete(result, err)
			return result
		}

		files := make([]map[string]any, 0, len(infos))
		folders, regular := 0, 0
		for _, info := range infos {
			kind := "file"
			if info.Dir {
				kind = "folder"
				folders++
			} else {
				regular++
			}
			files = append(files, map[string]any{
				"name":     info.Name,
				"path":     info.Path,
				"type":     kind,
				"size":     info.Size,
				"modified": info.ModTime.Format(time.RFC3339),
			})
		}

		result := map[string]any{
			"success":      true,
			"files":        files,
			"totalCount":   len(files),
			"folders":      folders,
			"regularFiles": regular,
		}
		tc.Complete(map[string]any{"success": true, "totalCount": len(files)}, nil)
		return result
	}
}

func deleteFileHandler(ws workspace.Workspace) func(context.Context, toolcall.ToolCall, *agenttrace.Trace) map[string]any {
	return func(ctx context.Context, call toolcall.ToolCall, trace *agenttrace.Trace) map[string]any {
		log := clog.FromContext(ctx)

		p, errResp := toolcall.Param[string](call, trace, "path")
		if errResp != nil {
			return errResp
		}

		tc := trace.StartToolCall(call.ID, call.Name, map[string]any{"path": p})

		if err := ws.Remove(ctx, p); err != nil {
			log.With("path", p).With("error", err).Error("Failed to delete file")
			result := params.ErrorWithContext(err, map[string]any{"path": p})
			tc.Complete(result, err)
			return result
		}

		result := map[string]any{
			"success": true,
			"path":    p,
			"message": fmt.Sprintf("Deleted %s", p),
		}
		tc.Complete(result, nil)
		return result
	}
}

func renameFileHandler(ws workspace.Workspace) func(context.Context, toolcall.ToolCall, *agenttrace.Trace) map[string]any {
	return func(ctx context.Context, call toolcall.ToolCall, trace *agenttrace.Trace) map[string]any {
		log := clog.FromContext(ctx)

		oldPath, errResp := toolcall.Param[string](call, trace, "path")
		if errResp != nil {
			return errResp
		}
		newPath, errResp := toolcall.Param[string](call, trace, "newPath")
		if errResp != nil {
			return errResp
		}

		tc := trace.StartToolCall(call.ID, call.Name, map[string]any{"path": oldPath, "newPath": newPath})

		if err := ws.Rename(ctx, oldPath, newPath); err != nil {
			log.With("path", oldPath).With("error", err).Error("Failed to rename file")
			result := params.ErrorWithContext(err, map[string]any{"path": oldPath, "newPath": newPath})
			tc.Complete(result, err)
			return result
		}

		result := map[string]any{
			"success": true,
			"path":    newPath,
			"message": fmt.Sprintf("Renamed %s to %s", oldPath, newPath),
		}
		tc.Complete(result, nil)
		return result
	}
}

func joinPath(parent, name string) string {
	parent = strings.TrimSpace(parent)
	if parent == "" || parent == "." {
		return name
	}
	return path.Join(parent, name)
}

func countLines(content string) int {
	if content == "" {
		return 0
	}
	return strings.Count(content, "\n") + 1
}
