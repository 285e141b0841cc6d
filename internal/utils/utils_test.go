package utils

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dreamstate-ticketing/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVerificationToken(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		tok, err := GenerateVerificationToken()
		require.NoError(t, err)
		raw, err := base64.RawURLEncoding.DecodeString(tok)
		require.NoError(t, err)
		assert.Len(t, raw, VerificationTokenBytes)
		assert.False(t, seen[tok])
		seen[tok] = true
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "dreamer@example.com", NormalizeEmail("  Dreamer@Example.COM "))
}

func TestInPersonSessionID(t *testing.T) {
	a, b := GenerateInPersonSessionID(), GenerateInPersonSessionID()
	assert.True(t, strings.HasPrefix(a, "in-person-"))
	assert.NotEqual(t, a, b)
}

func TestWriteErrorUsesKindStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, "Lookup failed", apperr.NotFound("ticket not found"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "ticket not found", body.Error)
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"token":"x","extra":1}`))
	var v struct {
		Token string `json:"token"`
	}
	err := DecodeJSON(req, &v)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
