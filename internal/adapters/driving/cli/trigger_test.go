package cli

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTriggerTest(baseURL string) func() {
	old := adminBaseURL
	adminBaseURL = baseURL
	return func() { adminBaseURL = old }
}

func TestTriggerCmd(t *testing.T) {
	t.Run("triggers and prints the summary", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/run/procedures", r.URL.Path)
			fmt.Fprint(w, `{"pipeline": "procedures", "status": "completed",
				"total_candidates": 3, "upserted": 1, "skipped": 2, "errors": 0}`)
		}))
		defer server.Close()
		defer setupTriggerTest(server.URL)()

		out, err := execute(t, "trigger", "procedures")
		require.NoError(t, err)
		assert.Contains(t, out, "procedures: completed")
		assert.Contains(t, out, "3 candidate(s)")
	})

	t.Run("run in progress", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusConflict)
			fmt.Fprint(w, `{"error": "run already in progress: procedures"}`)
		}))
		defer server.Close()
		defer setupTriggerTest(server.URL)()

		_, err := execute(t, "trigger", "procedures")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already has a run in progress")
	})

	t.Run("unknown pipeline", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error": "unknown pipeline: nope"}`)
		}))
		defer server.Close()
		defer setupTriggerTest(server.URL)()

		_, err := execute(t, "trigger", "nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown pipeline")
	})

	t.Run("scheduler unreachable", func(t *testing.T) {
		defer setupTriggerTest("http://127.0.0.1:1")()

		_, err := execute(t, "trigger", "procedures")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is serve running?")
	})
}
