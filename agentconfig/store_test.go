/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agentconfig_test

import (
	"context"
	"testing"

	"chainguard.dev/foreman/agentconfig"
	"chainguard.dev/foreman/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *agentconfig.Store {
	t.Helper()
	ws, err := workspace.NewLocal(t.TempDir())
	require.NoError(t, err)
	return agentconfig.NewStore(ws)
}

func worker(name string) agentconfig.Config {
	return agentconfig.Config{
		Name:        name,
		Description: name + " agent",
		Role:        agentconfig.RoleWorker,
		Provider:    agentconfig.ProviderAnthropic,
		Model:       "claude-sonnet-4-5",
	}
}

func TestCreateGeneratesIDAndDefaults(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	created, err := store.Create(ctx, worker("Researcher"), []string{"read_file", "list_files"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, []string{"read_file", "list_files"}, created.SelectedTools)

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestCreateKeepsExplicitSelection(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	cfg := worker("Writer")
	cfg.SelectedTools = []string{"read_file"}
	created, err := store.Create(ctx, cfg, []string{"read_file", "write_file", "list_files"})
	require.NoError(t, err)
	assert.Equal(t, []string{"read_file"}, created.SelectedTools)
}

func TestCreateRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	bad := worker("NoModel")
	bad.Model = ""
	_, err := store.Create(ctx, bad, nil)
	assert.Error(t, err)

	bad = worker("BadRole")
	bad.Role = "manager"
	_, err = store.Create(ctx, bad, nil)
	assert.Error(t, err)

	bad = worker("HotTemp")
	bad.Temperature = 3.5
	_, err = store.Create(ctx, bad, nil)
	assert.Error(t, err)
}

func TestCreateRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	cfg := worker("First")
	cfg.ID = "fixed-id"
	_, err := store.Create(ctx, cfg, nil)
	require.NoError(t, err)

	dup := worker("Second")
	dup.ID = "fixed-id"
	_, err = store.Create(ctx, dup, nil)
	assert.Error(t, err)
}

func TestUpdateIsPartial(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	created, err := store.Create(ctx, worker("Researcher"), []string{"read_file"})
	require.NoError(t, err)

	newName := "Deep Researcher"
	newTemp := 0.7
	updated, err := store.Update(ctx, created.ID, agentconfig.Patch{
		Name:        &newName,
		Temperature: &newTemp,
	})
	require.NoError(t, err)
	assert.Equal(t, "Deep Researcher", updated.Name)
	assert.Equal(t, 0.7, updated.Temperature)
	assert.Equal(t, created.Model, updated.Model, "untouched fields survive")
	assert.Equal(t, created.SelectedTools, updated.SelectedTools)

	_, err = store.Update(ctx, "nope", agentconfig.Patch{Name: &newName})
	assert.ErrorIs(t, err, agentconfig.ErrAgentNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	created, err := store.Create(ctx, worker("Temp"), nil)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, created.ID))
	_, err = store.Get(ctx, created.ID)
	assert.ErrorIs(t, err, agentconfig.ErrAgentNotFound)

	assert.ErrorIs(t, store.Delete(ctx, created.ID), agentconfig.ErrAgentNotFound)
}

func TestOrchestratorLookup(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, err := store.Orchestrator(ctx)
	assert.ErrorIs(t, err, agentconfig.ErrAgentNotFound)

	orch := worker("Manager")
	orch.Role = agentconfig.RoleOrchestrator
	created, err := store.Create(ctx, orch, nil)
	require.NoError(t, err)

	_, err = store.Create(ctx, worker("Helper"), nil)
	require.NoError(t, err)

	got, err := store.Orchestrator(ctx)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestPersistenceAcrossStores(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ws, err := workspace.NewLocal(dir)
	require.NoError(t, err)

	first := agentconfig.NewStore(ws)
	created, err := first.Create(ctx, worker("Durable"), []string{"read_file"})
	require.NoError(t, err)

	second := agentconfig.NewStore(ws)
	got, err := second.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}
