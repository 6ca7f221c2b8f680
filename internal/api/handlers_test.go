// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/tablemix/internal/models"
	"github.com/tomtom215/tablemix/internal/party"
	"github.com/tomtom215/tablemix/internal/scoring"
	"github.com/tomtom215/tablemix/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := storage.Open(storage.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	engine, err := party.NewEngine(store, scoring.DefaultConfig())
	require.NoError(t, err)

	srv := httptest.NewServer(NewRouter(NewHandler(engine), RouterConfig{}))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body interface{}) (*http.Response, *models.APIResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var envelope models.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp, &envelope
}

func createPartyRequest(n, rounds, size int) map[string]interface{} {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%02d", i+1)
	}
	return map[string]interface{}{
		"name":            "Friday Mixer",
		"participant_ids": ids,
		"rounds":          rounds,
		"min_table_size":  size,
		"max_table_size":  size,
	}
}

func createParty(t *testing.T, srv *httptest.Server, n, rounds, size int) string {
	t.Helper()

	resp, envelope := doJSON(t, http.MethodPost, srv.URL+"/api/v1/parties", createPartyRequest(n, rounds, size))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "success", envelope.Status)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok, "party payload is not an object")
	id, ok := data["id"].(string)
	require.True(t, ok, "party payload lacks an id")
	return id
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, envelope := doJSON(t, http.MethodGet, srv.URL+"/api/v1/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "success", envelope.Status)
}

func TestCreatePartyEndpoint(t *testing.T) {
	srv := newTestServer(t)

	id := createParty(t, srv, 6, 3, 3)
	require.NotEmpty(t, id)

	resp, envelope := doJSON(t, http.MethodGet, srv.URL+"/api/v1/parties/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := envelope.Data.(map[string]interface{})
	require.Equal(t, "scheduled", data["state"])
}

func TestCreatePartyDefaultTableBounds(t *testing.T) {
	srv := newTestServer(t)

	// Omitting the table bounds falls back to the engine defaults
	// instead of failing validation.
	ids := make([]string, 6)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%02d", i+1)
	}
	resp, envelope := doJSON(t, http.MethodPost, srv.URL+"/api/v1/parties", map[string]interface{}{
		"name":            "Friday Mixer",
		"participant_ids": ids,
		"rounds":          2,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "success", envelope.Status)

	data := envelope.Data.(map[string]interface{})
	require.Equal(t, float64(3), data["min_table_size"])
	require.Equal(t, float64(4), data["max_table_size"])
}

func TestCreatePartyValidation(t *testing.T) {
	srv := newTestServer(t)

	resp, envelope := doJSON(t, http.MethodPost, srv.URL+"/api/v1/parties", map[string]interface{}{
		"participant_ids": []string{"a"},
		"rounds":          2,
		"min_table_size":  2,
		"max_table_size":  2,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "error", envelope.Status)
	require.NotNil(t, envelope.Error)
}

func TestCreatePartyInsufficientParticipants(t *testing.T) {
	srv := newTestServer(t)

	resp, envelope := doJSON(t, http.MethodPost, srv.URL+"/api/v1/parties", createPartyRequest(5, 2, 3))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "INSUFFICIENT_PARTICIPANTS", envelope.Error.Code)
}

func TestScheduleEndpoint(t *testing.T) {
	srv := newTestServer(t)
	id := createParty(t, srv, 6, 3, 3)

	resp, envelope := doJSON(t, http.MethodPost, srv.URL+"/api/v1/parties/"+id+"/schedule", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rounds, ok := envelope.Data.([]interface{})
	require.True(t, ok, "schedule payload is not a list")
	require.Len(t, rounds, 3)

	// Scheduling twice conflicts with the lifecycle.
	resp, envelope = doJSON(t, http.MethodPost, srv.URL+"/api/v1/parties/"+id+"/schedule", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "INVALID_PARTY_STATE", envelope.Error.Code)
}

func TestScheduleUnknownParty(t *testing.T) {
	srv := newTestServer(t)

	resp, envelope := doJSON(t, http.MethodPost, srv.URL+"/api/v1/parties/missing/schedule", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "NOT_FOUND", envelope.Error.Code)
}

func TestRoundContextEndpoint(t *testing.T) {
	srv := newTestServer(t)
	id := createParty(t, srv, 4, 2, 2)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/parties/"+id+"/schedule", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, envelope := doJSON(t, http.MethodGet, srv.URL+"/api/v1/parties/"+id+"/rounds/1/context", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	contexts := envelope.Data.([]interface{})
	require.Len(t, contexts, 2)

	resp, envelope = doJSON(t, http.MethodGet, srv.URL+"/api/v1/parties/"+id+"/rounds/9/context", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "NOT_FOUND", envelope.Error.Code)
}

func TestSignalEndpoint(t *testing.T) {
	srv := newTestServer(t)
	id := createParty(t, srv, 4, 1, 2)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/parties/"+id+"/schedule", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, envelope := doJSON(t, http.MethodPost, srv.URL+"/api/v1/parties/"+id+"/signals", map[string]interface{}{
		"from_profile_id": "p01",
		"to_profile_id":   "p02",
		"kind":            "rapport",
		"strength":        0.7,
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Equal(t, "success", envelope.Status)

	// Malformed signals are rejected at the validation boundary.
	resp, envelope = doJSON(t, http.MethodPost, srv.URL+"/api/v1/parties/"+id+"/signals", map[string]interface{}{
		"from_profile_id": "p01",
		"to_profile_id":   "p02",
		"kind":            "telepathy",
		"strength":        0.7,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)

	// Signals referencing strangers map to UNKNOWN_PARTICIPANT.
	resp, envelope = doJSON(t, http.MethodPost, srv.URL+"/api/v1/parties/"+id+"/signals", map[string]interface{}{
		"from_profile_id": "p01",
		"to_profile_id":   "stranger",
		"kind":            "rapport",
		"strength":        0.7,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "UNKNOWN_PARTICIPANT", envelope.Error.Code)
}

func TestReportEndpointLifecycle(t *testing.T) {
	srv := newTestServer(t)
	id := createParty(t, srv, 4, 2, 2)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/parties/"+id+"/schedule", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Reports are only available after completion.
	resp, envelope := doJSON(t, http.MethodGet, srv.URL+"/api/v1/parties/"+id+"/reports/p01", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "PARTY_NOT_COMPLETED", envelope.Error.Code)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/parties/"+id+"/complete", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, envelope = doJSON(t, http.MethodGet, srv.URL+"/api/v1/parties/"+id+"/reports/p01?type=detailed", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := envelope.Data.(map[string]interface{})
	require.Equal(t, "detailed", data["type"])
	matches := data["matches"].([]interface{})
	require.Len(t, matches, 3)

	resp, envelope = doJSON(t, http.MethodGet, srv.URL+"/api/v1/parties/"+id+"/reports/p01?type=verbose", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "INVALID_REPORT_TYPE", envelope.Error.Code)
}

func TestGetReportEndpoint(t *testing.T) {
	srv := newTestServer(t)
	id := createParty(t, srv, 4, 1, 2)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/parties/"+id+"/schedule", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/parties/"+id+"/complete", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, envelope := doJSON(t, http.MethodGet, srv.URL+"/api/v1/parties/"+id+"/reports/p01", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reportID := envelope.Data.(map[string]interface{})["id"].(string)
	require.NotEmpty(t, reportID)

	// Generated reports are retrievable later by their id.
	resp, envelope = doJSON(t, http.MethodGet, srv.URL+"/api/v1/reports/"+reportID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := envelope.Data.(map[string]interface{})
	require.Equal(t, reportID, data["id"])
	require.Equal(t, "p01", data["profile_id"])

	resp, envelope = doJSON(t, http.MethodGet, srv.URL+"/api/v1/reports/missing", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "NOT_FOUND", envelope.Error.Code)
}

func TestPairingsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	id := createParty(t, srv, 6, 3, 3)

	resp, envelope := doJSON(t, http.MethodGet, srv.URL+"/api/v1/parties/"+id+"/pairings", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "INVALID_PARTY_STATE", envelope.Error.Code)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/parties/"+id+"/schedule", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, envelope = doJSON(t, http.MethodGet, srv.URL+"/api/v1/parties/"+id+"/pairings", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pairings := envelope.Data.(map[string]interface{})
	require.NotEmpty(t, pairings)
}

func TestProfileEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/api/v1/profiles/ana", map[string]interface{}{
		"display_name":    "Ana",
		"topic_interests": []string{"hiking", "film"},
		"tone":            "playful",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, envelope := doJSON(t, http.MethodGet, srv.URL+"/api/v1/profiles/ana", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := envelope.Data.(map[string]interface{})
	require.Equal(t, "Ana", data["display_name"])

	resp, envelope = doJSON(t, http.MethodGet, srv.URL+"/api/v1/profiles/missing", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "NOT_FOUND", envelope.Error.Code)
}
