package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthz(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	Healthz()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())
}

func TestVersion(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	Version()(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "go")
	assert.Contains(t, body, "package")
}

func TestAddrScheme(t *testing.T) {
	t.Parallel()
	s, err := NewServer(http.NewServeMux(), "localhost:0", "", "")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:0", s.Addr())
}
