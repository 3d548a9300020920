package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strideapp/stride/internal/core/program"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-token")
}

func TestClient_GetActiveProgram(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/programs/active", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(program.Snapshot{
			ProgramID:       "prog-1",
			Type:            program.TypeDiet,
			CurrentDayIndex: 5,
			DurationDays:    30,
			Status:          program.StatusActive,
		})
	})

	snap, err := client.GetActiveProgram(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "prog-1", snap.ProgramID)
	assert.Equal(t, 26, snap.DaysLeft())
}

func TestClient_GetActiveProgram_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetActiveProgram(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_ServerErrorCarriesStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"upstream down"}`))
	})

	_, err := client.GetActiveProgram(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Message)
	assert.False(t, IsAuthExpired(err))
}

func TestClient_AuthExpiredClassification(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.GetActiveProgram(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuthExpired(err))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestClient_UpdateChecklist(t *testing.T) {
	var got ChecklistUpdate
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/v1/programs/diet/tracker/today", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	})

	err := client.UpdateChecklist(context.Background(), program.TypeDiet, ChecklistUpdate{
		Checklist: map[string]bool{"water": true, "steps": false},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"water": true, "steps": false}, got.Checklist)
}

func TestClient_CompleteDay(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/programs/diet/days/complete", r.URL.Path)
		_ = json.NewEncoder(w).Encode(DayResult{
			Success:       true,
			CurrentDay:    6,
			DaysCompleted: 5,
			Streak:        4,
		})
	})

	result, err := client.CompleteDay(context.Background(), program.TypeDiet)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 6, result.CurrentDay)
	assert.Equal(t, 4, result.Streak)
}

func TestClient_StopProgram_EscapesID(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
	})

	require.NoError(t, client.StopProgram(context.Background(), "prog/1"))
	assert.Equal(t, "/v1/programs/prog%2F1/stop", gotPath)
}

func TestClient_GetTodayTracker(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/programs/lifestyle/tracker/today", r.URL.Path)
		_ = json.NewEncoder(w).Encode(TrackerView{
			Items:        []TrackerItem{{Key: "water", Label: "Drink water"}},
			ShowSymptoms: true,
			Symptoms:     []SymptomItem{{Key: "energy", Label: "Energy", Max: 5}},
		})
	})

	view, err := client.GetTodayTracker(context.Background(), program.TypeLifestyle)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "water", view.Items[0].Key)
	assert.True(t, view.ShowSymptoms)
}
