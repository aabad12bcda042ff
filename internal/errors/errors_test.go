package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linearmcp/linear-mcp/internal/core/engine"
	"github.com/linearmcp/linear-mcp/internal/core/linear"
	"github.com/linearmcp/linear-mcp/internal/server/middleware"
)

func TestClassify(t *testing.T) {
	ctx := middleware.WithRequestID(context.Background(), "corr-1")

	cases := []struct {
		name string
		err  error
		code string
	}{
		{"rate limit", &engine.RateLimitError{Limit: 10, Window: time.Hour, RetryAfter: time.Minute}, CodeRateLimited},
		{"wrapped sentinel", fmt.Errorf("call: %w", engine.ErrRateLimitExceeded), CodeRateLimited},
		{"not found", fmt.Errorf("issue abc: %w", linear.ErrNotFound), CodeNotFound},
		{"upstream", &linear.APIError{Operation: "issues", StatusCode: 500, Messages: []string{"boom"}}, CodeExternalService},
		{"deadline", context.DeadlineExceeded, CodeTimeout},
		{"other", stderrors.New("nil pointer"), CodeInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := Classify(ctx, tc.err)
			require.NotNil(t, env)
			assert.Equal(t, tc.code, env.Code)
			assert.Equal(t, tc.err.Error(), env.Message)
			assert.Equal(t, "corr-1", env.CorrelationID)
		})
	}
}

func TestClassify_RateLimitContext(t *testing.T) {
	env := Classify(context.Background(), &engine.RateLimitError{Limit: 5, Window: time.Hour, RetryAfter: 90 * time.Second})
	assert.EqualValues(t, 5, env.Context["limit"])
	assert.Equal(t, 90, env.Context["retry_after_seconds"])
	assert.Equal(t, 3600, env.Context["window_seconds"])
	assert.NotEmpty(t, env.CorrelationID)

	rec := httptest.NewRecorder()
	RespondWithEnvelope(rec, httptest.NewRequest(http.MethodGet, "/v1/usage", nil), env)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	var body HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.EqualValues(t, 90, body.Error.Details["retry_after_seconds"])
}

func TestWithContextMergesAndDropsInvalidValues(t *testing.T) {
	env := wrap(context.Background(), CodeExternalService, stderrors.New("socket closed"), "linear issues failed")
	require.Equal(t, "socket closed", env.Context["wrapped_error"])

	env = withContext(env, map[string]interface{}{
		"operation": "issues",
		"attempts":  int64(2),
	})
	assert.Equal(t, "socket closed", env.Context["wrapped_error"])
	assert.Equal(t, "issues", env.Context["operation"])
	assert.NotContains(t, env.Context, "attempts")
}

func TestClassify_PassesEnvelopesThrough(t *testing.T) {
	original := NewValidationError("title is required")
	env := Classify(context.Background(), original)
	assert.Equal(t, CodeValidation, env.Code)
	assert.Equal(t, "title is required", env.Message)
	assert.NotEmpty(t, env.CorrelationID)
}

func TestToolMessage(t *testing.T) {
	assert.Equal(t, "Internal error: nil pointer", ToolMessage(NewInternalError("nil pointer")))
	assert.Equal(t, "Issue not found: ENG-1", ToolMessage(NewNotFoundError("Issue not found: ENG-1")))
	assert.Equal(t, "Internal error: unknown error", ToolMessage(nil))
}

func TestEnsureEnvelope(t *testing.T) {
	env := EnsureEnvelope(nil)
	assert.Equal(t, CodeInternal, env.Code)

	env = EnsureEnvelope(stderrors.New("disk full"))
	assert.Equal(t, CodeInternal, env.Code)
	assert.Equal(t, "disk full", env.Context["wrapped_error"])

	notFound := NewNotFoundError("missing")
	assert.Same(t, notFound, EnsureEnvelope(notFound))
}

func TestHTTPStatusFromCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatusFromCode(CodeValidation))
	assert.Equal(t, http.StatusNotFound, HTTPStatusFromCode(CodeNotFound))
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatusFromCode(CodeRateLimited))
	assert.Equal(t, http.StatusBadGateway, HTTPStatusFromCode(CodeExternalService))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusFromCode("SOMETHING_ELSE"))
}

func TestRespondWithError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/usage", nil)
	req = req.WithContext(middleware.WithRequestID(req.Context(), "req-9"))
	rec := httptest.NewRecorder()

	RespondWithError(rec, req, linear.ErrNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, CodeNotFound, body.Error.Code)
	assert.Equal(t, "req-9", body.Error.RequestID)
}
