package notify

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// SignatureHeader carries the keyed BLAKE2b-256 digest of the request body.
const SignatureHeader = "X-Signature"

// WebhookNotifier posts notifications as JSON to an HTTP endpoint.
type WebhookNotifier struct {
	client *resty.Client
	url    string
	secret []byte
	logger *zap.Logger
}

// WebhookOptions configures a WebhookNotifier.
type WebhookOptions struct {
	URL        string
	Secret     string
	EmailFrom  string
	Timeout    time.Duration
	RetryCount int
}

// NewWebhookNotifier builds a notifier posting to opts.URL.
func NewWebhookNotifier(opts WebhookOptions, logger *zap.Logger) *WebhookNotifier {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if opts.EmailFrom != "" {
		client.SetHeader("X-Notification-From", opts.EmailFrom)
	}
	return &WebhookNotifier{
		client: client,
		url:    opts.URL,
		secret: []byte(opts.Secret),
		logger: logger,
	}
}

// Notify posts n and fails on transport errors or non-2xx responses.
func (w *WebhookNotifier) Notify(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	req := w.client.R().SetContext(ctx).SetBody(body)
	if len(w.secret) > 0 {
		sig, err := Sign(w.secret, body)
		if err != nil {
			return err
		}
		req.SetHeader(SignatureHeader, sig)
	}

	resp, err := req.Post(w.url)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook responded %d", resp.StatusCode())
	}

	w.logger.Debug("webhook delivered",
		zap.String("kind", n.Kind),
		zap.String("reference_number", n.ReferenceNumber),
		zap.Int("status_code", resp.StatusCode()),
	)
	return nil
}

// Sign returns the hex keyed BLAKE2b-256 digest of body. Keys longer than 64 bytes are rejected.
func Sign(secret, body []byte) (string, error) {
	h, err := blake2b.New256(secret)
	if err != nil {
		return "", fmt.Errorf("signature key: %w", err)
	}
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil)), nil
}
