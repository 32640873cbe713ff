package messaging

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidHubSignature is returned when X-Hub-Signature-256 does not match
var ErrInvalidHubSignature = errors.New("invalid X-Hub-Signature-256")

// VerifyHubSignature checks a Meta webhook signature header of the form "sha256=<hex>"
func VerifyHubSignature(appSecret string, payload []byte, header string) error {
	if appSecret == "" {
		return fmt.Errorf("%w: app secret not configured", ErrInvalidHubSignature)
	}
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return ErrInvalidHubSignature
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return ErrInvalidHubSignature
	}
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(payload)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrInvalidHubSignature
	}
	return nil
}

// SignHubPayload returns the X-Hub-Signature-256 value for a payload
func SignHubPayload(appSecret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// InboundMessage is a message a customer sent to the business number
type InboundMessage struct {
	PhoneNumberID string
	From          string
	ProfileName   string
	MessageID     string
	Type          string
	Text          string
	Timestamp     time.Time
}

// MessageStatus is a delivery status update for a message we sent
type MessageStatus struct {
	PhoneNumberID string
	MessageID     string
	Status        string // sent, delivered, read, failed
	Recipient     string
	Error         string
	Timestamp     time.Time
}

// WhatsAppNotification is a parsed webhook delivery
type WhatsAppNotification struct {
	Messages []InboundMessage
	Statuses []MessageStatus
}

type whatsAppWebhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Field string `json:"field"`
			Value struct {
				MessagingProduct string `json:"messaging_product"`
				Metadata         struct {
					DisplayPhoneNumber string `json:"display_phone_number"`
					PhoneNumberID      string `json:"phone_number_id"`
				} `json:"metadata"`
				Contacts []struct {
					WaID    string `json:"wa_id"`
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
				} `json:"contacts"`
				Messages []struct {
					From      string `json:"from"`
					ID        string `json:"id"`
					Timestamp string `json:"timestamp"`
					Type      string `json:"type"`
					Text      *struct {
						Body string `json:"body"`
					} `json:"text"`
					Button *struct {
						Text string `json:"text"`
					} `json:"button"`
				} `json:"messages"`
				Statuses []struct {
					ID          string `json:"id"`
					Status      string `json:"status"`
					Timestamp   string `json:"timestamp"`
					RecipientID string `json:"recipient_id"`
					Errors      []struct {
						Code    int    `json:"code"`
						Title   string `json:"title"`
						Message string `json:"message"`
					} `json:"errors"`
				} `json:"statuses"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// ParseWhatsAppWebhook flattens a whatsapp_business_account webhook payload
func ParseWhatsAppWebhook(payload []byte) (*WhatsAppNotification, error) {
	var p whatsAppWebhookPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("whatsapp: invalid webhook payload: %w", err)
	}

	out := &WhatsAppNotification{}
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			v := change.Value
			names := make(map[string]string, len(v.Contacts))
			for _, c := range v.Contacts {
				names[c.WaID] = c.Profile.Name
			}
			for _, m := range v.Messages {
				msg := InboundMessage{
					PhoneNumberID: v.Metadata.PhoneNumberID,
					From:          m.From,
					ProfileName:   names[m.From],
					MessageID:     m.ID,
					Type:          m.Type,
					Timestamp:     parseUnix(m.Timestamp),
				}
				switch {
				case m.Text != nil:
					msg.Text = m.Text.Body
				case m.Button != nil:
					msg.Text = m.Button.Text
				default:
					msg.Text = "[" + m.Type + "]"
				}
				out.Messages = append(out.Messages, msg)
			}
			for _, s := range v.Statuses {
				st := MessageStatus{
					PhoneNumberID: v.Metadata.PhoneNumberID,
					MessageID:     s.ID,
					Status:        s.Status,
					Recipient:     s.RecipientID,
					Timestamp:     parseUnix(s.Timestamp),
				}
				if len(s.Errors) > 0 {
					st.Error = s.Errors[0].Title
					if s.Errors[0].Message != "" {
						st.Error = s.Errors[0].Message
					}
				}
				out.Statuses = append(out.Statuses, st)
			}
		}
	}
	return out, nil
}

func parseUnix(s string) time.Time {
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Now()
	}
	return time.Unix(sec, 0)
}
