package httpserver

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	draftcontract "draftmail/contracts/draft"
	"draftmail/draft-service/internal/handler"
	"draftmail/pkg/auth"
)

type fakeBackend struct {
	err error
}

func (f fakeBackend) Ping(context.Context) error { return f.err }

func (f fakeBackend) Draft(context.Context, string) (string, error) { return "Hello.", nil }

func newRouter(backend fakeBackend, secret string) *Router {
	gin.SetMode(gin.TestMode)
	h := handler.NewDraftHandler(backend, zap.NewNop())
	return NewRouter(h, backend, secret, zap.NewNop())
}

func do(r *Router, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	w := do(newRouter(fakeBackend{}, ""), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadyz(t *testing.T) {
	w := do(newRouter(fakeBackend{}, ""), httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(newRouter(fakeBackend{err: errors.New("down")}, ""), httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGenerate_EchoesTraceID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, draftcontract.GeneratePath, bytes.NewBufferString(`{"prompt":"hi"}`))
	req.Header.Set("X-Trace-ID", "abc123")
	w := do(newRouter(fakeBackend{}, ""), req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc123", w.Header().Get("X-Trace-ID"))
}

func TestGenerate_RequiresTokenWhenSecretSet(t *testing.T) {
	r := newRouter(fakeBackend{}, "s3cret")

	req := httptest.NewRequest(http.MethodPost, draftcontract.GeneratePath, bytes.NewBufferString(`{"prompt":"hi"}`))
	w := do(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := auth.GenerateServiceToken("delivery-bot", auth.AudienceDraftService, "s3cret", time.Minute)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, draftcontract.GeneratePath, bytes.NewBufferString(`{"prompt":"hi"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	w = do(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGenerate_RejectsWrongAudience(t *testing.T) {
	token, err := auth.GenerateServiceToken("delivery-bot", "other", "s3cret", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, draftcontract.GeneratePath, bytes.NewBufferString(`{"prompt":"hi"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	w := do(newRouter(fakeBackend{}, "s3cret"), req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
