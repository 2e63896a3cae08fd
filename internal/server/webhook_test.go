package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktox-dev/pterodactyl-git-webhook/internal/config"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/constants"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/engine"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/queue"
)

// stubProcessor satisfies queue.Processor without doing any work
type stubProcessor struct{}

func (stubProcessor) ProcessAll(ctx context.Context) engine.Outcome {
	return engine.Outcome{Success: true, Message: "ok"}
}

func testServer(t *testing.T, cfg *config.Config, queueSize int) *Server {
	t.Helper()
	dispatcher := queue.NewDispatcher(stubProcessor{}, nil, queueSize)
	return New(cfg, dispatcher, nil, nil, nil)
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Containers = []config.Container{{
		ID:       "34bee3f5-fb2b-4bab-b45e-c303b1d15137",
		Name:     "production",
		Branch:   "main",
		Workflow: "main",
		RepoRoot: "/home/container/server-data",
	}}
	return cfg
}

func pushBody(t *testing.T, message string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"ref": "refs/heads/main",
		"head_commit": map[string]string{
			"id":      "0123abcd",
			"message": message,
		},
	})
	require.NoError(t, err)
	return body
}

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(s *Server, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func TestWebhookQueuesPushEvent(t *testing.T) {
	s := testServer(t, testConfig(), 4)
	body := pushBody(t, "update server config")

	rec := postWebhook(s, body, map[string]string{"X-GitHub-Event": "push"})

	assert.Equal(t, http.StatusAccepted, rec.Code)

	var resp webhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "queued", resp.Status)
	assert.NotEmpty(t, resp.RunID)
}

func TestWebhookIgnoresNonPushEvents(t *testing.T) {
	s := testServer(t, testConfig(), 4)

	rec := postWebhook(s, pushBody(t, "msg"), map[string]string{"X-GitHub-Event": "ping"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ignored")
}

// TestWebhookBreaksAutoCommitLoop verifies a push the service itself
// created does not trigger another run
func TestWebhookBreaksAutoCommitLoop(t *testing.T) {
	s := testServer(t, testConfig(), 4)
	body := pushBody(t, constants.AutoCommitMarker+" for resources/cars")

	rec := postWebhook(s, body, map[string]string{"X-GitHub-Event": "push"})

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), "auto-commit ignored")
}

func TestWebhookSignatureValidation(t *testing.T) {
	cfg := testConfig()
	cfg.Webhook.Secret = "hunter2"
	s := testServer(t, cfg, 4)
	body := pushBody(t, "msg")

	t.Run("valid signature accepted", func(t *testing.T) {
		rec := postWebhook(s, body, map[string]string{
			"X-GitHub-Event":      "push",
			"X-Hub-Signature-256": sign(body, "hunter2"),
		})
		assert.Equal(t, http.StatusAccepted, rec.Code)
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		rec := postWebhook(s, body, map[string]string{
			"X-GitHub-Event":      "push",
			"X-Hub-Signature-256": sign(body, "wrong"),
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing signature rejected", func(t *testing.T) {
		rec := postWebhook(s, body, map[string]string{"X-GitHub-Event": "push"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestWebhookRejectsMalformedPayload(t *testing.T) {
	s := testServer(t, testConfig(), 4)

	rec := postWebhook(s, []byte("{not json"), map[string]string{"X-GitHub-Event": "push"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookFullQueueReturns503(t *testing.T) {
	s := testServer(t, testConfig(), 1)
	body := pushBody(t, "msg")

	first := postWebhook(s, body, map[string]string{"X-GitHub-Event": "push"})
	require.Equal(t, http.StatusAccepted, first.Code)

	// No worker is draining; the second trigger has nowhere to go
	second := postWebhook(s, body, map[string]string{"X-GitHub-Event": "push"})
	assert.Equal(t, http.StatusServiceUnavailable, second.Code)
}

// TestWebhookAcceptsLargeSignedPayload verifies the signature is computed
// over the complete body; GitHub push payloads can run to several megabytes
func TestWebhookAcceptsLargeSignedPayload(t *testing.T) {
	cfg := testConfig()
	cfg.Webhook.Secret = "hunter2"
	s := testServer(t, cfg, 4)

	body := pushBody(t, "bulk resource update "+strings.Repeat("x", 2<<20))

	rec := postWebhook(s, body, map[string]string{
		"X-GitHub-Event":      "push",
		"X-Hub-Signature-256": sign(body, "hunter2"),
	})

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), "queued")
}

func TestWebhookRejectsOversizedPayload(t *testing.T) {
	s := testServer(t, testConfig(), 4)
	body := []byte(strings.Repeat("a", constants.MaxWebhookPayloadBytes+1))

	rec := postWebhook(s, body, map[string]string{"X-GitHub-Event": "push"})

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestWebhookSignatureFailureCarriesErrorCode(t *testing.T) {
	cfg := testConfig()
	cfg.Webhook.Secret = "hunter2"
	s := testServer(t, cfg, 4)
	body := pushBody(t, "msg")

	rec := postWebhook(s, body, map[string]string{
		"X-GitHub-Event":      "push",
		"X-Hub-Signature-256": sign(body, "wrong"),
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "WEBHOOK_SIGNATURE")
}

func TestWebhookFullQueueCarriesErrorCode(t *testing.T) {
	s := testServer(t, testConfig(), 1)
	body := pushBody(t, "msg")

	require.Equal(t, http.StatusAccepted, postWebhook(s, body, map[string]string{"X-GitHub-Event": "push"}).Code)

	rec := postWebhook(s, body, map[string]string{"X-GitHub-Event": "push"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "QUEUE_FULL")
}

func metaServer(t *testing.T, hits *int32, cidrs ...string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		quoted := make([]string, len(cidrs))
		for i, c := range cidrs {
			quoted[i] = fmt.Sprintf("%q", c)
		}
		fmt.Fprintf(w, `{"hooks":[%s]}`, strings.Join(quoted, ","))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestOriginCheckerCachesHookRanges(t *testing.T) {
	var hits int32
	ts := metaServer(t, &hits, "192.30.252.0/22")

	checker := newOriginChecker()
	checker.metaURL = ts.URL

	ok, err := checker.allowed("192.30.252.7")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = checker.allowed("10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	// The second lookup is served from cache
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestOriginCheckerRejectsUnparseableAddress(t *testing.T) {
	checker := newOriginChecker()

	_, err := checker.allowed("not-an-ip")
	require.Error(t, err)
}

func TestWebhookOriginVerification(t *testing.T) {
	var hits int32
	ts := metaServer(t, &hits, "192.30.252.0/22")

	cfg := testConfig()
	cfg.Webhook.VerifyOrigin = true
	s := testServer(t, cfg, 4)
	s.origin.metaURL = ts.URL
	body := pushBody(t, "msg")

	t.Run("hook range accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(string(body)))
		req.Header.Set("X-GitHub-Event", "push")
		req.RemoteAddr = "192.30.252.5:443"
		rec := httptest.NewRecorder()
		s.echo.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusAccepted, rec.Code)
	})

	t.Run("outside range rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(string(body)))
		req.Header.Set("X-GitHub-Event", "push")
		req.RemoteAddr = "203.0.113.9:443"
		rec := httptest.NewRecorder()
		s.echo.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "WEBHOOK_ORIGIN")
	})
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"ref":"refs/heads/main"}`)

	assert.True(t, verifySignature(body, "secret", sign(body, "secret")))
	assert.False(t, verifySignature(body, "secret", sign(body, "other")))
	assert.False(t, verifySignature(body, "secret", "sha1=deadbeef"))
	assert.False(t, verifySignature(body, "secret", ""))
}
