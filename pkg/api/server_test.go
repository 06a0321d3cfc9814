package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/chronos/pkg/app"
	"tableflip.dev/chronos/pkg/breaker"
	"tableflip.dev/chronos/pkg/journal"
	"tableflip.dev/chronos/pkg/remote"
	"tableflip.dev/chronos/pkg/scheduler"
	"tableflip.dev/chronos/pkg/store"
)

type testConfig string

func (c testConfig) BasePath() string { return string(c) }

type harness struct {
	srv    *Server
	ts     *httptest.Server
	sched  *scheduler.Scheduler
	clock  *scheduler.FakeClock
	remote *remote.Memory
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	v, err := store.Open(testConfig(t.TempDir()), nil)
	require.NoError(t, err)
	mem := remote.NewMemory()
	svc := app.New(v, mem, breaker.New(), nil)
	session := app.NewSession(svc, v)

	clock := scheduler.NewFakeClock(time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC))
	sched := scheduler.New(svc, scheduler.Config{Clock: clock})
	t.Cleanup(sched.Close)

	_, err = session.SignIn(context.Background(), "u1")
	require.NoError(t, err)

	srv := NewServer(session, sched, Config{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(func() { _ = srv.Stop() })

	return &harness{srv: srv, ts: ts, sched: sched, clock: clock, remote: mem}
}

func (h *harness) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, h.ts.URL+path, &buf)
	require.NoError(t, err)
	resp, err := h.ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (h *harness) settle(t *testing.T) {
	t.Helper()
	h.clock.Advance(scheduler.DefaultDebounce)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.sched.Wait(ctx))
}

func TestGetEntryDefaults(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodGet, "/api/entries/2026-01-02", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var e journal.DailyEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	assert.Equal(t, journal.EmptyEntry("2026-01-02"), e)
}

func TestGetEntryInvalidDate(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodGet, "/api/entries/yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPutEntryIsDebounced(t *testing.T) {
	h := newHarness(t)

	e := journal.EmptyEntry("2026-01-02")
	e.State.Mood = 9
	resp := h.do(t, http.MethodPut, "/api/entries/2026-01-02", e)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, 0, h.remote.Calls(remote.OpSet))

	h.settle(t)

	assert.Equal(t, 1, h.remote.Calls(remote.OpSet))
	assert.Equal(t, journal.StateSaved, h.sched.Status(scheduler.EntryKey("2026-01-02")))

	resp = h.do(t, http.MethodGet, "/api/status/entry/2026-01-02", nil)
	var status map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "saved", status["status"])

	resp = h.do(t, http.MethodGet, "/api/entries/2026-01-02", nil)
	var got journal.DailyEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 9, got.State.Mood)
}

func TestGetEntryInsideDebounceWindow(t *testing.T) {
	h := newHarness(t)
	date := "2026-01-02"
	require.NoError(t, h.remote.Put(remote.UserDocument("u1", "entries", date),
		map[string]any{"state": map[string]any{"mood": 3}}))

	e := journal.EmptyEntry(date)
	e.State.Mood = 9
	resp := h.do(t, http.MethodPut, "/api/entries/"+date, e)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	gets := h.remote.Calls(remote.OpGet)

	resp = h.do(t, http.MethodGet, "/api/entries/"+date, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got journal.DailyEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 9, got.State.Mood)
	assert.Equal(t, gets, h.remote.Calls(remote.OpGet))
	_, cached := h.srv.session.Service.LoadLocal().Entries[date]
	assert.False(t, cached)

	h.settle(t)

	resp = h.do(t, http.MethodGet, "/api/entries/"+date, nil)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 9, got.State.Mood)
	assert.Equal(t, 9, h.srv.session.Service.LoadLocal().Entries[date].State.Mood)
}

func TestPutEntryRejectsBadBody(t *testing.T) {
	h := newHarness(t)

	req, err := http.NewRequest(http.MethodPut, h.ts.URL+"/api/entries/2026-01-02", strings.NewReader("{"))
	require.NoError(t, err)
	resp, err := h.ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChecklistRoundTrip(t *testing.T) {
	h := newHarness(t)

	items := []journal.ChecklistItemConfig{{ID: "water", Label: "Drink water", Enabled: true}}
	resp := h.do(t, http.MethodPut, "/api/checklist", items)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp = h.do(t, http.MethodPost, "/api/flush", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = h.do(t, http.MethodGet, "/api/checklist", nil)
	var got []journal.ChecklistItemConfig
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, items, got)
}

func TestSyncHydrates(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.remote.Put(remote.UserDocument("u1", "entries", "2026-01-01"), map[string]any{
		"id":        "2026-01-01",
		"state":     map[string]any{"mood": 2},
		"updatedAt": "2026-01-01T10:00:00Z",
	}))

	resp := h.do(t, http.MethodPost, "/api/sync", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report app.HydrationReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, 1, report.Entries)

	resp = h.do(t, http.MethodGet, "/api/entries", nil)
	var entries map[string]journal.DailyEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	assert.Equal(t, 2, entries["2026-01-01"].State.Mood)
}

func TestExport(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodGet, "/api/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "chronos_vault_")

	var data journal.AppData
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&data))
	assert.Equal(t, journal.DefaultChecklist(), data.ChecklistConfig)
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["cloud"])
	assert.Equal(t, true, body["user"])
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebSocketFeed(t *testing.T) {
	h := newHarness(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(h.ts.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MessageTypeSnapshot, msg.Type)
	assert.Equal(t, 1, h.srv.ClientCount())

	h.sched.StageEntry(journal.EmptyEntry("2026-01-02"), "u1")
	h.settle(t)

	_, data, err = conn.Read(ctx)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MessageTypeStatus, msg.Type)

	var tr scheduler.Transition
	require.NoError(t, json.Unmarshal(msg.Data, &tr))
	assert.Equal(t, "entry/2026-01-02", tr.Key)
	assert.Equal(t, journal.StateSaving, tr.To)
}
