package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/jw6ventures/timeclock/internal/config"
	"github.com/jw6ventures/timeclock/internal/store"
)

// ErrGone reports that the push service no longer knows the subscription.
var ErrGone = errors.New("push subscription gone")

// Sender delivers one message to one subscription.
type Sender interface {
	Send(ctx context.Context, sub store.PushSubscription, msg Message) error
}

// WebPushSender sends VAPID-signed, encrypted Web Push messages.
type WebPushSender struct {
	publicKey  string
	privateKey string
	subscriber string
	client     *http.Client
}

func NewWebPushSender(cfg *config.Config) *WebPushSender {
	return &WebPushSender{
		publicKey:  cfg.Push.VAPIDPublicKey,
		privateKey: cfg.Push.VAPIDPrivateKey,
		subscriber: strings.TrimPrefix(cfg.Push.VAPIDSubject, "mailto:"),
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

// PublicKey is handed to browsers as the applicationServerKey.
func (s *WebPushSender) PublicKey() string {
	return s.publicKey
}

func (s *WebPushSender) Send(ctx context.Context, sub store.PushSubscription, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode push payload: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpush.Keys{P256dh: sub.P256dh, Auth: sub.Auth},
	}, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             3600,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return classifyStatus(resp.StatusCode)
}

func classifyStatus(code int) error {
	switch {
	case code == http.StatusNotFound || code == http.StatusGone:
		return ErrGone
	case code >= 400:
		return fmt.Errorf("push service returned status %d", code)
	default:
		return nil
	}
}
