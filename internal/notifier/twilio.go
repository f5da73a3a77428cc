package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jgoulah/powerpal/internal/config"
	"github.com/jgoulah/powerpal/pkg/models"
)

const twilioBaseURL = "https://api.twilio.com"

// Twilio sends reports as WhatsApp or SMS messages through the Twilio REST API
type Twilio struct {
	httpClient *resty.Client
	accountSID string
	from       string
	to         string
}

// NewTwilio creates a Twilio notifier from config
func NewTwilio(cfg config.TwilioConfig) (*Twilio, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("twilio account sid and auth token are required")
	}
	if cfg.From == "" || cfg.To == "" {
		return nil, fmt.Errorf("twilio from and to numbers are required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = twilioBaseURL
	}

	return &Twilio{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetBasicAuth(cfg.AccountSID, cfg.AuthToken).
			SetTimeout(15 * time.Second),
		accountSID: cfg.AccountSID,
		from:       cfg.From,
		to:         cfg.To,
	}, nil
}

// Name identifies the channel
func (t *Twilio) Name() string {
	return "twilio"
}

// Send posts the formatted report to the Messages endpoint
func (t *Twilio) Send(ctx context.Context, report models.Report) error {
	resp, err := t.httpClient.R().
		SetContext(ctx).
		SetPathParam("sid", t.accountSID).
		SetFormData(map[string]string{
			"From": t.from,
			"To":   t.to,
			"Body": FormatReport(report),
		}).
		Post("/2010-04-01/Accounts/{sid}/Messages.json")
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("twilio error: status %d, response: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
