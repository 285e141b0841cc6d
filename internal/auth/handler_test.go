package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionHandlerLoginLogout(t *testing.T) {
	m, mr := newTestManager(t)
	r := chi.NewRouter()
	NewSessionHandler(m).RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(`{"password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotContains(t, rec.Body.String(), "door-staff")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(`{"password":"door-staff"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Data Session `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data.Token)
	assert.Len(t, mr.Keys(), 1)

	logout := func() int {
		req := httptest.NewRequest(http.MethodDelete, "/session", nil)
		req.Header.Set("Authorization", "Bearer "+body.Data.Token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, logout())
	assert.Empty(t, mr.Keys())
	assert.Equal(t, http.StatusUnauthorized, logout())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/session", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
