package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ktox-dev/pterodactyl-git-webhook/internal/constants"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/errors"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/logger"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/queue"
)

// pushPayload is the subset of the GitHub push event the service reads
type pushPayload struct {
	Ref        string `json:"ref"`
	HeadCommit struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	} `json:"head_commit"`
}

// webhookResponse is the uniform reply body for the webhook endpoint
type webhookResponse struct {
	Status string `json:"status"`
	RunID  string `json:"run_id,omitempty"`
}

// handleWebhook validates an inbound GitHub notification and enqueues a
// sync trigger. Validation order: origin allow-list, HMAC signature, event
// type, loop-breaker marker. The engine itself trusts these checks and
// never repeats them.
func (s *Server) handleWebhook(c echo.Context) error {
	log := logger.GetLogger(c)

	if s.cfg.Webhook.VerifyOrigin {
		ok, err := s.origin.allowed(c.RealIP())
		if err != nil {
			log.WithError(err).Error("Failed to verify webhook origin")
			return echo.NewHTTPError(http.StatusInternalServerError, "origin verification unavailable")
		}
		if !ok {
			log.WithField("ip", c.RealIP()).Warn("Webhook from unauthorized IP rejected")
			return errors.ToHTTPError(errors.WebhookOriginRejected(c.RealIP()))
		}
	}

	// The signature covers the whole payload; an over-limit body is
	// rejected outright rather than verified truncated
	reader := http.MaxBytesReader(c.Response(), c.Request().Body, constants.MaxWebhookPayloadBytes)
	body, err := io.ReadAll(reader)
	if err != nil {
		if _, ok := err.(*http.MaxBytesError); ok {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "payload too large")
		}
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}

	if s.cfg.Webhook.Secret != "" {
		if !verifySignature(body, s.cfg.Webhook.Secret, c.Request().Header.Get("X-Hub-Signature-256")) {
			log.Warn("Webhook signature verification failed")
			return errors.ToHTTPError(errors.WebhookSignatureInvalid())
		}
	}

	if event := c.Request().Header.Get("X-GitHub-Event"); event != "push" {
		log.WithField("event", event).Info("Ignoring non-push event")
		return c.JSON(http.StatusOK, webhookResponse{Status: "ignored"})
	}

	var payload pushPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return errors.ToHTTPError(errors.WebhookPayloadInvalid(err))
	}

	// A push created by this service would trigger itself forever
	if strings.Contains(payload.HeadCommit.Message, s.cfg.Webhook.Marker) {
		log.Info("Auto-commit push detected, not triggering a run")
		return c.JSON(http.StatusAccepted, webhookResponse{Status: "auto-commit ignored"})
	}

	trigger := queue.NewTrigger(payload.Ref, payload.HeadCommit.ID)
	if err := s.dispatcher.Enqueue(trigger); err != nil {
		log.WithError(err).Warn("Trigger rejected")
		return errors.ToHTTPError(err)
	}

	return c.JSON(http.StatusAccepted, webhookResponse{Status: "queued", RunID: trigger.ID})
}

// verifySignature checks the GitHub HMAC SHA-256 signature header
func verifySignature(body []byte, secret, header string) bool {
	const prefix = "sha256="
	if !strings.HasPrefix(header, prefix) {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.TrimPrefix(header, prefix)))
}

// originChecker caches the CIDR ranges GitHub delivers hooks from
type originChecker struct {
	client    *http.Client
	metaURL   string
	mu        sync.Mutex
	networks  []*net.IPNet
	fetchedAt time.Time
}

func newOriginChecker() *originChecker {
	return &originChecker{
		client:  &http.Client{Timeout: constants.DefaultHTTPClientTimeout},
		metaURL: constants.GitHubMetaURL,
	}
}

// allowed reports whether ip falls inside GitHub's published hook ranges
func (o *originChecker) allowed(ip string) (bool, error) {
	addr := net.ParseIP(ip)
	if addr == nil {
		return false, fmt.Errorf("unparseable remote address %q", ip)
	}

	networks, err := o.hookNetworks()
	if err != nil {
		return false, err
	}

	for _, network := range networks {
		if network.Contains(addr) {
			return true, nil
		}
	}
	return false, nil
}

// hookNetworks returns the cached "hooks" CIDR list, refreshing it from the
// GitHub meta API when expired. The fetch runs outside the lock so a cold
// or expired cache never stalls other callers; concurrent refreshes are
// harmless and the last result wins.
func (o *originChecker) hookNetworks() ([]*net.IPNet, error) {
	o.mu.Lock()
	if o.networks != nil && time.Since(o.fetchedAt) < constants.GitHubMetaCacheTTL {
		networks := o.networks
		o.mu.Unlock()
		return networks, nil
	}
	o.mu.Unlock()

	networks, err := o.fetchHookNetworks()
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.networks = networks
	o.fetchedAt = time.Now()
	o.mu.Unlock()

	return networks, nil
}

// fetchHookNetworks retrieves and parses the hook CIDR list
func (o *originChecker) fetchHookNetworks() ([]*net.IPNet, error) {
	resp, err := o.client.Get(o.metaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch GitHub meta: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub meta returned status %d", resp.StatusCode)
	}

	var meta struct {
		Hooks []string `json:"hooks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode GitHub meta: %w", err)
	}

	networks := make([]*net.IPNet, 0, len(meta.Hooks))
	for _, cidr := range meta.Hooks {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		networks = append(networks, network)
	}
	if len(networks) == 0 {
		return nil, fmt.Errorf("GitHub meta contained no usable hook ranges")
	}

	return networks, nil
}
