package controlapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tokarak/gopppd/internal/controlapi"
	"github.com/tokarak/gopppd/internal/ppp"
)

func newTestManager() *ppp.Manager {
	return ppp.NewManager(nil, nil, ppp.NewLayerRegistry(), ppp.NewUnitCache(0))
}

func TestHandleList_EmptyManager_ReturnsEmptyArray(t *testing.T) {
	srv := controlapi.New(newTestManager(), nil)

	req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var views []controlapi.SessionView
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(views) != 0 {
		t.Fatalf("got %d sessions, want 0", len(views))
	}
}

func TestHandleGet_UnknownID_Returns404(t *testing.T) {
	srv := controlapi.New(newTestManager(), nil)

	req := httptest.NewRequest(http.MethodGet, "/sessions/nope", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleTerminate_UnknownID_Returns404(t *testing.T) {
	srv := controlapi.New(newTestManager(), nil)

	body := strings.NewReader(`{"reason":6,"hard":true}`)
	req := httptest.NewRequest(http.MethodPost, "/sessions/nope/terminate", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleTerminate_MalformedBody_Returns400(t *testing.T) {
	srv := controlapi.New(newTestManager(), nil)

	body := strings.NewReader(`not json`)
	req := httptest.NewRequest(http.MethodPost, "/sessions/nope/terminate", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
