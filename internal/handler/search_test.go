package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/afl-stats-service/internal/handler"
	"github.com/maxviazov/afl-stats-service/internal/model"
	"github.com/maxviazov/afl-stats-service/internal/repository"
	"github.com/maxviazov/afl-stats-service/internal/service"
	"github.com/maxviazov/afl-stats-service/pkg/response"
)

// stubPinger implements handler.Pinger for health endpoints.
type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

// stubOverUnder records the last query and returns a canned outcome.
type stubOverUnder struct {
	got service.OverUnderQuery
	out model.OverUnder
	err error
}

func (s *stubOverUnder) Search(_ context.Context, q service.OverUnderQuery) (model.OverUnder, error) {
	s.got = q
	return s.out, s.err
}

func newRouter(svc service.OverUnderService, p handler.Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler.Register(r, handler.Deps{Store: p, OverUnder: svc})
	return r
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestSearch_OK(t *testing.T) {
	stub := &stubOverUnder{out: model.OverUnder{Over: 12, Under: 8}}
	r := newRouter(stub, stubPinger{})

	for _, path := range []string{"/search/over-under", handler.APIV1Prefix + "/search/over-under"} {
		w := get(r, path+"?player_name=Scott%20Pendlebury&stat=disposals&threshold=19.5&strict_over=true")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.JSONEq(t, `{"over":12,"under":8}`, w.Body.String())
	}

	require.NotNil(t, stub.got.PlayerName)
	assert.Equal(t, "Scott Pendlebury", *stub.got.PlayerName)
	assert.Nil(t, stub.got.PlayerID)
	assert.Equal(t, "disposals", stub.got.Stat)
	assert.Equal(t, 19.5, *stub.got.Threshold)
	assert.True(t, stub.got.StrictOver)
}

func TestSearch_ParsesPlayerIDAndDefaults(t *testing.T) {
	stub := &stubOverUnder{}
	r := newRouter(stub, stubPinger{})

	w := get(r, "/search/over-under?player_id=7&stat=goals&threshold=2")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, stub.got.PlayerID)
	assert.Equal(t, int64(7), *stub.got.PlayerID)
	assert.Nil(t, stub.got.PlayerName)
	assert.False(t, stub.got.StrictOver)
	assert.JSONEq(t, `{"over":0,"under":0}`, w.Body.String())
}

func TestSearch_MalformedParams(t *testing.T) {
	cases := []struct {
		name  string
		query string
		field string
	}{
		{"player id not a number", "player_id=seven&stat=goals&threshold=1", "player_id"},
		{"threshold not a number", "player_id=7&stat=goals&threshold=abc", "threshold"},
		{"strict_over not a bool", "player_id=7&stat=goals&threshold=1&strict_over=maybe", "strict_over"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubOverUnder{}
			w := get(newRouter(stub, stubPinger{}), "/search/over-under?"+tc.query)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
			var payload response.ErrorPayload
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
			assert.Equal(t, "invalid_input", payload.Error)
			require.Len(t, payload.FieldErrors, 1)
			assert.Equal(t, tc.field, payload.FieldErrors[0].Field)
			assert.Empty(t, stub.got.Stat, "service must not be called")
		})
	}
}

func TestSearch_ErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"both identifiers", service.NewInvalidInputError([]service.FieldError{{Field: "player_id", Message: "provide either player_id or player_name, not both"}}), http.StatusBadRequest, "invalid_input"},
		{"unknown player", repository.ErrNotFound, http.StatusNotFound, "not_found"},
		{"store missing", repository.ErrStoreUnavailable, http.StatusInternalServerError, "store_unavailable"},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := get(newRouter(&stubOverUnder{err: tc.err}, stubPinger{}), "/search/over-under?player_id=7&player_name=X&stat=goals&threshold=1")
			if w.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d: %s", tc.wantCode, w.Code, w.Body.String())
			}
			var payload response.ErrorPayload
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
			assert.Equal(t, tc.wantErr, payload.Error)
			assert.NotContains(t, w.Body.String(), "disk on fire")
		})
	}
}
