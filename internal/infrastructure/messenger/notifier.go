// Package messenger announces review decisions through the messenger gateway.
package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	adminapp "github.com/usampac/admin-web/internal/admin/application"
	mongorepo "github.com/usampac/admin-web/internal/infrastructure/mongo"
)

const failureTarget = "review_decision"

// FailureStore keeps messages that exhausted their retries.
type FailureStore interface {
	Save(ctx context.Context, n mongorepo.FailedNotification) error
}

// Config wires a Notifier.
type Config struct {
	Endpoint    string
	Destination string
	Attempts    int
	RetryDelay  time.Duration
	HTTPClient  *http.Client
	Failures    FailureStore
	Logger      logrus.FieldLogger
}

// Notifier posts decisions to {Endpoint}/messages.
type Notifier struct {
	endpoint    string
	destination string
	attempts    int
	retryDelay  time.Duration
	httpClient  *http.Client
	failures    FailureStore
	logger      logrus.FieldLogger
}

var _ adminapp.DecisionNotifier = (*Notifier)(nil)

// New returns nil when no endpoint is configured.
func New(cfg Config) *Notifier {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Notifier{
		endpoint:    endpoint,
		destination: strings.TrimSpace(cfg.Destination),
		attempts:    attempts,
		retryDelay:  cfg.RetryDelay,
		httpClient:  client,
		failures:    cfg.Failures,
		logger:      logger,
	}
}

// NotifyDecision sends the decision, retrying with a fixed delay. After the last failed attempt
// the message is handed to the failure store and the error returned.
func (n *Notifier) NotifyDecision(ctx context.Context, d adminapp.Decision) error {
	if n == nil {
		return nil
	}
	text := BuildDecisionMessage(d)

	var lastErr error
retry:
	for i := 0; i < n.attempts; i++ {
		if lastErr = n.send(ctx, d.UserID, text); lastErr == nil {
			return nil
		}
		if i < n.attempts-1 && n.retryDelay > 0 {
			select {
			case <-ctx.Done():
				break retry
			case <-time.After(n.retryDelay):
			}
		}
	}

	n.persistFailure(ctx, d, text, lastErr)
	return lastErr
}

// BuildDecisionMessage renders the chat text for d.
func BuildDecisionMessage(d adminapp.Decision) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Candidate %s** was %s", d.UserID, d.Status)
	if reviewer := strings.TrimSpace(d.Reviewer.Email); reviewer != "" {
		fmt.Fprintf(&b, " by %s", reviewer)
	}
	b.WriteString(".\n")
	if d.Notes != nil && strings.TrimSpace(*d.Notes) != "" {
		b.WriteString("> " + strings.TrimSpace(*d.Notes) + "\n")
	}
	if !d.At.IsZero() {
		b.WriteString(d.At.UTC().Format(time.RFC3339) + "\n")
	}
	return b.String()
}

func (n *Notifier) send(ctx context.Context, userID, text string) error {
	if strings.TrimSpace(userID) == "" {
		return errors.New("userID is required")
	}
	payload := map[string]any{
		"userId": userID,
		"text":   text,
	}
	if n.destination != "" {
		payload["destination"] = n.destination
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode messenger payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint+"/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create messenger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("messenger request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		message, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))
		return fmt.Errorf("messenger returned status=%d body=%s", res.StatusCode, strings.TrimSpace(string(message)))
	}
	return nil
}

func (n *Notifier) persistFailure(ctx context.Context, d adminapp.Decision, text string, cause error) {
	if n.failures == nil || cause == nil {
		return
	}
	payload := map[string]any{
		"userId":        d.UserID,
		"status":        string(d.Status),
		"reviewerId":    d.Reviewer.ID,
		"reviewerEmail": d.Reviewer.Email,
		"text":          text,
		"destination":   n.destination,
	}
	err := n.failures.Save(context.WithoutCancel(ctx), mongorepo.FailedNotification{
		Target:   failureTarget,
		Payload:  payload,
		Error:    cause.Error(),
		Attempts: n.attempts,
	})
	if err != nil {
		n.logger.WithError(err).WithField("user_id", d.UserID).Error("failed notification could not be stored")
	}
}
