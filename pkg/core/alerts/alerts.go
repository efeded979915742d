// Package alerts delivers operator alerts and requester completion notices. Every
// message is logged; when a webhook URL is configured it is also posted there as JSON.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/fact"
	"github.com/go-resty/resty/v2"
	"github.com/gookit/slog"
)

// DefaultTimeout bounds a single webhook delivery.
const DefaultTimeout = 10 * time.Second

// ErrDeliveryFailed is returned when a webhook did not accept a notice.
var ErrDeliveryFailed = errors.New("delivery-failed")

// Config holds the webhook endpoints.
type Config struct {
	OperatorWebhookURL string        `mapstructure:"operator_webhook_url"`
	DeviceWebhookURL   string        `mapstructure:"device_webhook_url"`
	Timeout            time.Duration `mapstructure:"timeout"`
}

// DefaultConfig returns a configuration that only logs.
func DefaultConfig() Config {
	return Config{Timeout: DefaultTimeout}
}

// OperatorAlert is the webhook body of an operator alert.
type OperatorAlert struct {
	Source  string    `json:"source"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

// FactConfirmedNotice is the webhook body of a completion notice.
type FactConfirmedNotice struct {
	RequesterID string `json:"requester_id"`
	FactKey     string `json:"fact_key"`
	Message     string `json:"message"`
}

// ConfirmationMessage is the text sent to a requester once key is stable.
func ConfirmationMessage(key fact.Key) string {
	return fmt.Sprintf("The data about your fact %s is now in the database, you can unlock your contract.", key)
}

func newClient(timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
}

func post(ctx context.Context, client *resty.Client, url string, body any) error {
	res, err := client.R().
		SetContext(ctx).
		SetBody(body).
		Post(url)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	if res.IsError() {
		return fmt.Errorf("%w: %s responded %s", ErrDeliveryFailed, url, res.Status())
	}
	return nil
}

// OperatorAlerter reports resource and submission problems to the operator.
type OperatorAlerter struct {
	source string
	url    string
	client *resty.Client
}

// NewOperatorAlerter creates an alerter signing alerts with source.
func NewOperatorAlerter(source string, cfg Config) *OperatorAlerter {
	return &OperatorAlerter{
		source: source,
		url:    cfg.OperatorWebhookURL,
		client: newClient(cfg.Timeout),
	}
}

// NotifyOperator logs msg and posts it to the operator webhook. Delivery failures are
// logged only: an alert must never break the flow that raised it.
func (a *OperatorAlerter) NotifyOperator(ctx context.Context, msg string) {
	slog.Warnf("[OperatorAlert] %s", msg)
	if a.url == "" {
		return
	}

	err := post(ctx, a.client, a.url, OperatorAlert{
		Source:  a.source,
		Message: msg,
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		slog.Errorf("[OperatorAlert] failed to deliver alert: %v", err)
	}
}

// DeviceNotifier sends completion notices to requesters.
type DeviceNotifier struct {
	url    string
	client *resty.Client
}

// NewDeviceNotifier creates a notifier posting to the device webhook of cfg.
func NewDeviceNotifier(cfg Config) *DeviceNotifier {
	return &DeviceNotifier{
		url:    cfg.DeviceWebhookURL,
		client: newClient(cfg.Timeout),
	}
}

// NotifyFactConfirmed tells requester that key is stable.
func (n *DeviceNotifier) NotifyFactConfirmed(ctx context.Context, key fact.Key, requester string) error {
	notice := FactConfirmedNotice{
		RequesterID: requester,
		FactKey:     key.String(),
		Message:     ConfirmationMessage(key),
	}

	slog.WithFields(slog.M{
		"requester_id": requester,
		"fact_key":     key.String(),
	}).Info("[DeviceNotifier] fact confirmed")

	if n.url == "" {
		return nil
	}
	return post(ctx, n.client, n.url, notice)
}
