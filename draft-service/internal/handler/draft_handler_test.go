package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	draftcontract "draftmail/contracts/draft"
	"draftmail/draft-service/internal/service/draft"
)

type stubDrafter struct {
	email string
	err   error
	got   string
}

func (s *stubDrafter) Draft(_ context.Context, description string) (string, error) {
	s.got = description
	return s.email, s.err
}

func newTestEngine(d Drafter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST(draftcontract.GeneratePath, NewDraftHandler(d, zap.NewNop()).Generate)
	return r
}

func post(t *testing.T, r *gin.Engine, body string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, draftcontract.GeneratePath, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return w, out
}

func TestGenerate_Success(t *testing.T) {
	d := &stubDrafter{email: "Dear team, the meeting moves to Friday."}
	w, out := post(t, newTestEngine(d), `{"prompt":"move meeting to friday"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Dear team, the meeting moves to Friday.", out["email"])
	assert.Equal(t, "move meeting to friday", d.got)
}

func TestGenerate_EmptyPrompt(t *testing.T) {
	d := &stubDrafter{err: draft.ErrEmptyPrompt}
	w, out := post(t, newTestEngine(d), `{"prompt":"   "}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Prompt cannot be empty.", out["detail"])
}

func TestGenerate_MissingPromptField(t *testing.T) {
	d := &stubDrafter{err: draft.ErrEmptyPrompt}
	w, out := post(t, newTestEngine(d), `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, draftcontract.DetailEmptyPrompt, out["detail"])
}

func TestGenerate_MalformedBody(t *testing.T) {
	d := &stubDrafter{}
	w, out := post(t, newTestEngine(d), `{"prompt":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, draftcontract.DetailInvalidRequest, out["detail"])
}

func TestGenerate_GenerationFailure(t *testing.T) {
	d := &stubDrafter{err: fmt.Errorf("%w: %w", draft.ErrGeneration, errors.New("connection refused"))}
	w, out := post(t, newTestEngine(d), `{"prompt":"hello"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, draftcontract.DetailGeneration, out["detail"])
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestGenerate_Cancelled(t *testing.T) {
	d := &stubDrafter{err: context.Canceled}
	w, out := post(t, newTestEngine(d), `{"prompt":"hello"}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, draftcontract.DetailCancelled, out["detail"])
}
