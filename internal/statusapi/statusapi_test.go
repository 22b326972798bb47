package statusapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	chlog "github.com/charmbracelet/log"
	"github.com/kmirror/connector/internal/statusapi"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	statuses []statusapi.PairStatus
}

func (f fakeRegistry) Statuses() []statusapi.PairStatus { return f.statuses }

func newTestServer(statuses []statusapi.PairStatus) *statusapi.Server {
	logger := chlog.New(&bytes.Buffer{})
	return statusapi.New(fakeRegistry{statuses: statuses}, logger)
}

func TestHealthzReturnsOK(t *testing.T) {
	s := newTestServer(nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestStatusReturnsPairStatuses(t *testing.T) {
	s := newTestServer([]statusapi.PairStatus{
		{SourceAlias: "east", TargetAlias: "west", Running: true},
		{SourceAlias: "west", TargetAlias: "east", Running: false, LastError: "dial timeout"},
	})
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got []statusapi.PairStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	require.True(t, got[0].Running)
	require.Equal(t, "dial timeout", got[1].LastError)
}

func TestStatusEmptyRegistry(t *testing.T) {
	s := newTestServer(nil)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "null", rec.Body.String())
}
