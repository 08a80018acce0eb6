// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/outreach-engine/internal/ledger"
	"github.com/pdiddy/outreach-engine/internal/pipeline"
	"github.com/pdiddy/outreach-engine/internal/snapshot"
	"github.com/pdiddy/outreach-engine/pkg/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	server *Server
	store  *snapshot.Store
	sends  *ledger.Store
	router *gin.Engine
	ran    chan string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	sends, err := ledger.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { sends.Close() })

	store := snapshot.NewStore(dir)
	ran := make(chan string, 8)
	runners := map[string]pipeline.Runner{
		"discovery": func(context.Context) error {
			ran <- "discovery"
			return nil
		},
	}

	s := New(pipeline.NewDriver(), store, sends, runners, "test")
	return &fixture{server: s, store: store, sends: sends, router: s.Router(), ran: ran}
}

func (f *fixture) do(method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	f.router.ServeHTTP(w, req)
	return w
}

func TestGetStatus(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/status")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "online", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestGetStats(t *testing.T) {
	f := newFixture(t)
	_, err := snapshot.Write(f.store, snapshot.StageDiscovery, []types.PaperRecord{{ID: "1"}, {ID: "2"}})
	require.NoError(t, err)

	w := f.do(http.MethodGet, "/api/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body["papers_found"])
	assert.Equal(t, 0, body["emails_sent"])
}

func TestRunStageThenPollTask(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/stages/discovery/run")
	require.Equal(t, http.StatusAccepted, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body["task_id"])
	assert.Equal(t, "discovery", body["stage"])

	select {
	case stage := <-f.ran:
		assert.Equal(t, "discovery", stage)
	case <-time.After(time.Second):
		t.Fatal("stage runner never executed")
	}

	// Poll until the task handle reports completion.
	deadline := time.Now().Add(time.Second)
	for {
		w = f.do(http.MethodGet, "/api/tasks/"+body["task_id"])
		require.Equal(t, http.StatusOK, w.Code)

		var task map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
		if task["state"] == string(pipeline.TaskSucceeded) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("task never succeeded, last state %q", task["state"])
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRunUnknownStage(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodPost, "/api/stages/nonsense/run")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetUnknownTask(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodGet, "/api/tasks/no-such-id")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetLatest(t *testing.T) {
	f := newFixture(t)
	meta, err := snapshot.Write(f.store, snapshot.StageDiscovery, []types.PaperRecord{{ID: "1"}})
	require.NoError(t, err)

	w := f.do(http.MethodGet, "/api/stages/discovery/latest")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), meta.Version)

	// Known stage with no snapshot yet, and an unknown stage, both 404.
	w = f.do(http.MethodGet, "/api/stages/validated/latest")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = f.do(http.MethodGet, "/api/stages/bogus/latest")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetContacts(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sends.UpsertContact(context.Background(), types.ProfileRecord{
		Name:   "Ada Lovelace",
		Emails: []string{"ada@x.org"},
	}))

	w := f.do(http.MethodGet, "/api/contacts")
	require.Equal(t, http.StatusOK, w.Code)

	var contacts []ledger.Contact
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &contacts))
	require.Len(t, contacts, 1)
	assert.Equal(t, "ada@x.org", contacts[0].Email)
}

func TestExportContactsCSV(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sends.UpsertContact(context.Background(), types.ProfileRecord{
		Name:   "Ada Lovelace",
		Emails: []string{"ada@x.org"},
	}))

	w := f.do(http.MethodGet, "/api/contacts/export.csv")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Name,Email")
	assert.Contains(t, lines[1], "ada@x.org")
}
