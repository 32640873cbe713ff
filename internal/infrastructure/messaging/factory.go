package messaging

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/notification"
	"github.com/smartstore/backend/internal/infrastructure/config"
)

// NewSenders builds a sender for every configured channel. WhatsApp is always
// built because tenants may bring their own account.
func NewSenders(cfg *config.Config, accounts whatsAppAccounts, logger *zap.Logger) []notification.Sender {
	senders := make([]notification.Sender, 0, 3)

	if s, err := NewSendGridSender(cfg.SendGrid, logger.Named("sendgrid")); err == nil {
		senders = append(senders, s)
	} else {
		logger.Info("Email channel disabled", zap.Error(err))
	}

	if s, err := NewTwilioSender(cfg.Twilio, logger.Named("twilio")); err == nil {
		senders = append(senders, s)
	} else {
		logger.Info("SMS channel disabled", zap.Error(err))
	}

	senders = append(senders, NewWhatsAppSender(cfg.WhatsApp, accounts, logger.Named("whatsapp")))
	return senders
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// withBaseURL points an SDK's requests at another host, such as a provider
// sandbox. An empty baseURL leaves the client untouched.
func withBaseURL(client *http.Client, baseURL string) (*http.Client, error) {
	if baseURL == "" {
		return client, nil
	}
	target, err := url.Parse(baseURL)
	if err != nil || target.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	next := client.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	out := *client
	out.Transport = &hostRewriter{target: target, next: next}
	return &out, nil
}

type hostRewriter struct {
	target *url.URL
	next   http.RoundTripper
}

func (h *hostRewriter) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = h.target.Scheme
	req.URL.Host = h.target.Host
	req.Host = h.target.Host
	return h.next.RoundTrip(req)
}
