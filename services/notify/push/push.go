// Package push wraps web push delivery behind a small interface so the
// scheduler can be tested without a push service.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// ErrEndpointGone means the push service reports the subscription as
// permanently dead. The caller should drop the subscriber instead of
// retrying.
var ErrEndpointGone = errors.New("push: subscription endpoint gone")

// Subscription is the browser-side push subscription triple.
type Subscription struct {
	Endpoint  string
	KeyP256dh string
	KeyAuth   string
}

// Notification is what the service worker renders.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag,omitempty"`
	Url   string `json:"url,omitempty"`
}

// Sender delivers one notification to one subscription.
type Sender interface {
	Send(ctx context.Context, sub Subscription, n Notification) error
}

// VapidOptions identifies this server to push services.
type VapidOptions struct {
	Subject    string
	PublicKey  string
	PrivateKey string
}

type webpushSender struct {
	opts VapidOptions
}

func NewWebPushSender(opts VapidOptions) Sender {
	return &webpushSender{opts: opts}
}

func (s *webpushSender) Send(ctx context.Context, sub Subscription, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}

	res, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.KeyP256dh,
			Auth:   sub.KeyAuth,
		},
	}, &webpush.Options{
		Subscriber:      s.opts.Subject,
		VAPIDPublicKey:  s.opts.PublicKey,
		VAPIDPrivateKey: s.opts.PrivateKey,
		TTL:             60 * 60,
	})
	if err != nil {
		return err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound || res.StatusCode == http.StatusGone:
		return fmt.Errorf("%w (status %d)", ErrEndpointGone, res.StatusCode)
	case res.StatusCode >= 400:
		return fmt.Errorf("push service returned %d", res.StatusCode)
	}
	return nil
}
