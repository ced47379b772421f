package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/bastiangx/bardbook/internal/api"
	"github.com/bastiangx/bardbook/internal/storage"
	"github.com/bastiangx/bardbook/pkg/catalog"
	"github.com/bastiangx/bardbook/pkg/config"
	"github.com/bastiangx/bardbook/pkg/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadStatus(t *testing.T, apiKey string) (int, api.Response) {
	t.Helper()
	backend, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	defer backend.Close()

	cfg := config.DefaultConfig()
	cfg.Server.APIKey = apiKey
	srv := httptest.NewServer(syncMux(cfg, backend))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/sync?action=load")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body api.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestSyncMuxWithoutKeyIsOpen(t *testing.T) {
	status, body := loadStatus(t, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, api.MsgNotFound, body.Message)
}

func TestSyncMuxWithKeyRequiresIt(t *testing.T) {
	status, body := loadStatus(t, "s3cret")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, api.MsgUnauthorized, body.Error)
}

func TestRollbackSQLite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	from, to, err := rollbackSQLite(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, storage.CurrentSchemaVersion, from)
	assert.Equal(t, "0.0.0", to)

	// Opening again reapplies the migration.
	store, err := storage.OpenSQLiteDir(ctx, dir)
	require.NoError(t, err)
	v, err := storage.SchemaVersion(ctx, store.DB())
	require.NoError(t, err)
	assert.Equal(t, storage.CurrentSchemaVersion, v.String())
	require.NoError(t, store.Close())
}

func TestExportCatalogRoundTrip(t *testing.T) {
	cat := catalog.New(
		catalog.Section{Name: "insults", Entries: []search.Entry{
			search.Card{Title: "Vicious Mockery", Subtitle: "Your mother was a hamster"},
			search.Line("Thunderwave!"),
		}},
		catalog.Section{Name: "toasts", Entries: []search.Entry{search.Line("To the bard!")}},
	)
	dir := t.TempDir()

	n, err := exportCatalog(cat, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	loaded, err := catalog.Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, cat.Len(), loaded.Len())

	var names []string
	for _, s := range loaded.Sections {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"insults", "toasts"}, names)

	insults, ok := loaded.Section("insults")
	require.True(t, ok)
	assert.Equal(t, search.Card{Title: "Vicious Mockery", Subtitle: "Your mother was a hamster"}, insults.Entries[0])
	assert.Equal(t, search.Line("Thunderwave!"), insults.Entries[1])
}
