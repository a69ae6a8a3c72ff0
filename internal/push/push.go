// Package push sends web push notifications to subscribed admin devices
// when new contact submissions arrive.
package push

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/SonyCookies/bongwell/internal/model"
)

// ErrExpired is returned when a push subscription is no longer valid (410 Gone).
var ErrExpired = errors.New("push subscription expired")

// Payload is the JSON sent to the push service.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// sender abstracts webpush.SendNotification for tests.
type sender func(message []byte, s *webpush.Subscription, options *webpush.Options) (*http.Response, error)

// Service sends web push notifications using VAPID keys.
type Service struct {
	publicKey  string
	privateKey string
	send       sender
}

// NewService creates a push service. Returns nil when keys are missing so
// callers can treat push as an optional feature.
func NewService(publicKey, privateKey string) *Service {
	if publicKey == "" || privateKey == "" {
		return nil
	}
	return &Service{
		publicKey:  publicKey,
		privateKey: privateKey,
		send:       webpush.SendNotification,
	}
}

// VAPIDPublicKey returns the public key for client-side subscription.
func (s *Service) VAPIDPublicKey() string {
	return s.publicKey
}

// Send delivers a notification to one subscription.
func (s *Service) Send(sub *model.PushSubscription, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := s.send(data, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, &webpush.Options{
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		Subscriber:      "mailto:noreply@bongwell.com",
		TTL:             86400,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		return ErrExpired
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}

	return nil
}
