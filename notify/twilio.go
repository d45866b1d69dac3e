package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioConfig holds the credentials and numbers for SMS delivery.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	To         string
}

// Enabled reports whether every field needed to send is present.
func (c TwilioConfig) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.From != "" && c.To != ""
}

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioNotifier sends notifications as SMS to a single staff number.
type TwilioNotifier struct {
	api  messageCreator
	from string
	to   string
}

// NewTwilioNotifier builds a notifier from cfg.
func NewTwilioNotifier(cfg TwilioConfig) (*TwilioNotifier, error) {
	if !cfg.Enabled() {
		return nil, errors.New("notify: twilio account sid, auth token, from and to numbers are required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioNotifier{api: client.Api, from: cfg.From, to: cfg.To}, nil
}

func (n *TwilioNotifier) Notify(ctx context.Context, text string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(n.to)
	params.SetFrom(n.from)
	params.SetBody(text)

	resp, err := n.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("notify: send sms: %w", err)
	}
	if resp != nil && resp.Sid != nil {
		slog.DebugContext(ctx, "sms sent", "sid", *resp.Sid)
	}
	return nil
}

// FromConfig returns a TwilioNotifier when cfg is complete and a
// LogNotifier otherwise.
func FromConfig(cfg TwilioConfig) Notifier {
	if n, err := NewTwilioNotifier(cfg); err == nil {
		return n
	}
	return LogNotifier{}
}
