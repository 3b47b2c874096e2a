/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main runs a one-shot agent session against a project workspace.
// The task is given on the command line; the project's orchestrator works
// it with file tools, persistent context, and delegation to any worker
// agents stored in the project. Agents are never created implicitly: a
// project without an orchestrator fails unless -create-orchestrator is
// given.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"chainguard.dev/foreman/agentconfig"
	"chainguard.dev/foreman/config"
	"chainguard.dev/foreman/contextstore"
	"chainguard.dev/foreman/driver"
	"chainguard.dev/foreman/filetools"
	"chainguard.dev/foreman/registry"
	"chainguard.dev/foreman/workspace"
	"github.com/chainguard-dev/clog"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	createOrchestrator := flag.Bool("create-orchestrator", false,
		"create a default orchestrator when the project has none")
	flag.Parse()

	task := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if task == "" {
		fmt.Fprintln(os.Stderr, "usage: foreman [-create-orchestrator] <task>")
		os.Exit(2)
	}

	cfg, err := config.Process(ctx)
	if err != nil {
		clog.FatalContextf(ctx, "processing config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		clog.FatalContextf(ctx, "invalid config: %v", err)
	}

	ws, err := workspace.NewLocal(cfg.ProjectRoot)
	if err != nil {
		clog.FatalContextf(ctx, "opening workspace: %v", err)
	}

	store := contextstore.New(ws)
	if err := store.Init(ctx); err != nil {
		clog.FatalContextf(ctx, "initializing agent memory: %v", err)
	}

	entries := append(filetools.Entries(ws), contextstore.Entries(store)...)
	reg, err := registry.New(entries...)
	if err != nil {
		clog.FatalContextf(ctx, "building tool registry: %v", err)
	}

	agents := agentconfig.NewStore(ws)
	orchestrator, subAgents, err := resolveAgents(ctx, agents, reg, cfg, *createOrchestrator)
	if err != nil {
		clog.FatalContextf(ctx, "resolving agents: %v", err)
	}

	opts := []driver.Option{driver.WithMaxSteps(cfg.MaxSteps)}
	if cfg.AnthropicAPIKey != "" {
		opts = append(opts, driver.WithAnthropicAPIKey(cfg.AnthropicAPIKey))
	}
	if cfg.OpenAIAPIKey != "" {
		opts = append(opts, driver.WithOpenAIAPIKey(cfg.OpenAIAPIKey))
	}
	d, err := driver.New(reg, opts...)
	if err != nil {
		clog.FatalContextf(ctx, "creating driver: %v", err)
	}

	result, err := d.Stream(ctx, driver.Request{
		Agent:     orchestrator,
		Messages:  []driver.Message{{Role: driver.RoleUser, Content: task}},
		SubAgents: subAgents,
	}, printEvents)
	if err != nil {
		clog.FatalContextf(ctx, "agent execution failed: %v", err)
	}

	fmt.Println()
	if result.Truncated {
		clog.WarnContextf(ctx, "Run stopped at the step budget (%d steps); the answer may be incomplete", result.Steps)
	}
	clog.InfoContextf(ctx, "Done in %d steps (%d input / %d output tokens)",
		result.Steps, result.Usage.InputTokens, result.Usage.OutputTokens)
}

// resolveAgents loads the project's orchestrator and workers. A missing
// orchestrator is an error unless the caller explicitly asked for one to
// be created.
func resolveAgents(ctx context.Context, agents *agentconfig.Store, reg *registry.Registry, cfg config.Config, create bool) (agentconfig.Config, []agentconfig.Config, error) {
	orchestrator, err := agents.Orchestrator(ctx)
	if errors.Is(err, agentconfig.ErrAgentNotFound) {
		if !create {
			return agentconfig.Config{}, nil, errors.New("no orchestrator configured for this project (rerun with -create-orchestrator to create one)")
		}
		orchestrator, err = agents.Create(ctx, agentconfig.Config{
			Name:        "Project Manager",
			Description: "Coordinates work on this project",
			Role:        agentconfig.RoleOrchestrator,
			Provider:    agentconfig.Provider(cfg.DefaultProvider),
			Model:       cfg.DefaultModel,
		}, reg.DefaultToolIDs())
		if err != nil {
			return agentconfig.Config{}, nil, fmt.Errorf("creating default orchestrator: %w", err)
		}
		clog.InfoContextf(ctx, "Created default orchestrator %q", orchestrator.ID)
	} else if err != nil {
		return agentconfig.Config{}, nil, err
	}

	all, err := agents.List(ctx)
	if err != nil {
		return agentconfig.Config{}, nil, err
	}
	var workers []agentconfig.Config
	for _, a := range all {
		if a.Role == agentconfig.RoleWorker {
			workers = append(workers, a)
		}
	}
	return orchestrator, workers, nil
}

// printEvents renders streamed events for the terminal: assistant text as
// it arrives, tool activity as single lines.
func printEvents(e driver.Event) {
	switch e.Type {
	case driver.EventTextDelta:
		fmt.Print(e.Text)
	case driver.EventToolCallStarted:
		fmt.Fprintf(os.Stderr, "\n[tool] %s...\n", e.ToolName)
	case driver.EventToolCallFinished:
		if e.Result["success"] == false {
			fmt.Fprintf(os.Stderr, "[tool] %s failed: %v\n", e.ToolName, e.Result["error"])
		}
	}
}
