package httpapi

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethan/cloudrender-relay/internal/config"
	"github.com/ethan/cloudrender-relay/internal/framesource/testpattern"
	"github.com/ethan/cloudrender-relay/pkg/logger"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.PublicIP = net.ParseIP("203.0.113.1")
	log, err := logger.New(logger.NewConfig())
	require.NoError(t, err)
	return NewServer(cfg, testpattern.NewSource(), log)
}

func TestHandleIndex_ServesDemoPage(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	s.handleIndex(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<html")
}

func TestHandleSession_RejectsNonPost(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	rec := httptest.NewRecorder()

	s.handleSession(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleSession_RejectsMissingSDP(t *testing.T) {
	s := newTestServer(t)
	body, err := json.Marshal(offerRequest{SDP: ""})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/session", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.handleSession(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSession_RejectsMalformedBody(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/session", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()

	s.handleSession(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
