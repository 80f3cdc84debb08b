package audit

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/wso2/policy-authz/internal/authzmodel"
)

// Subscriber delivers matching events to one webhook endpoint, signing the
// JSON body with a per-subscriber HMAC-SHA256 secret so the receiver can
// verify authenticity. A circuit breaker wraps delivery so a dead endpoint
// degrades to "log and skip" instead of piling up retries against it.
type Subscriber struct {
	name       string
	url        string
	secret     []byte
	eventTypes map[authzmodel.EventType]struct{}
	active     bool

	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

// NewSubscriber registers a webhook endpoint for the given event types. An
// empty eventTypes list matches every event. The subscriber starts active;
// use SetActive to pause delivery without unregistering it.
func NewSubscriber(name, url, secret string, eventTypes []authzmodel.EventType, timeout time.Duration) *Subscriber {
	matched := make(map[authzmodel.EventType]struct{}, len(eventTypes))
	for _, t := range eventTypes {
		matched[t] = struct{}{}
	}

	settings := gobreaker.Settings{
		Name:        "audit-webhook:" + name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &Subscriber{
		name:       name,
		url:        url,
		secret:     []byte(secret),
		eventTypes: matched,
		active:     true,
		client:     &http.Client{Timeout: timeout},
		breaker:    gobreaker.NewCircuitBreaker[*http.Response](settings),
	}
}

// SetActive toggles whether this subscriber receives deliveries.
func (s *Subscriber) SetActive(active bool) { s.active = active }

func (s *Subscriber) handles(t authzmodel.EventType) bool {
	if !s.active {
		return false
	}
	if len(s.eventTypes) == 0 {
		return true
	}
	_, ok := s.eventTypes[t]
	return ok
}

func (s *Subscriber) deliver(ctx context.Context, event authzmodel.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = s.breaker.Execute(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "policy-authz-audit/1.0")
		req.Header.Set("X-Event-Type", string(event.Type))
		req.Header.Set("X-Event-Id", event.EventId)
		if len(s.secret) > 0 {
			req.Header.Set("X-Signature-SHA256", sign(s.secret, body))
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("webhook %s returned status %d", s.name, resp.StatusCode)
		}
		return resp, nil
	})
	return err
}

// sign returns the hex-encoded HMAC-SHA256 of body using secret.
func sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
