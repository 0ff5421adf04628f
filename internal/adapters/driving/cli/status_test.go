package cli

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halyard-labs/driftsync/internal/config"
	"github.com/halyard-labs/driftsync/internal/core/domain"
)

func setupStatusTest(store *mockRunStore, baseURL string) func() {
	oldStore, oldCfg, oldBase := runStore, appConfig, adminBaseURL
	runStore = store
	appConfig = &config.Config{Pipelines: []config.PipelineConfig{{
		Name:       "procedures",
		FolderPath: "AI/SOP",
		Collection: "procedures",
	}}}
	adminBaseURL = baseURL
	return func() {
		runStore, appConfig, adminBaseURL = oldStore, oldCfg, oldBase
	}
}

func TestStatusCmd_LiveScheduler(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/status", r.URL.Path)
		fmt.Fprint(w, `{"running": true, "pipelines": [
			{"name": "procedures", "running": true, "next_run": "2025-06-10T15:00:00Z"}
		]}`)
	}))
	defer server.Close()

	store := &mockRunStore{runs: []domain.RunSummary{{
		Pipeline:  "procedures",
		StartedAt: time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC),
		Status:    domain.RunCompleted,
		Upserted:  []domain.RunItem{{FileName: "a.pdf"}},
	}}}
	defer setupStatusTest(store, server.URL)()

	out, err := execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Scheduler running.")
	assert.Contains(t, out, "run in progress")
	assert.Contains(t, out, "1 upserted")
}

func TestStatusCmd_NoScheduler(t *testing.T) {
	store := &mockRunStore{}
	// Nothing listens here; live state is silently unavailable.
	defer setupStatusTest(store, "http://127.0.0.1:1")()

	out, err := execute(t, "status")
	require.NoError(t, err)
	assert.NotContains(t, out, "Scheduler running.")
	assert.Contains(t, out, "never run")
}
