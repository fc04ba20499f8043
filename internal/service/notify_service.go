package service

import (
	"fmt"
	"log"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"parkwise/internal/config"
)

// NotifyService sends email through SendGrid and SMS through Twilio. Both
// channels are fire-and-forget: delivery failures are logged and never
// propagated to the slot or session transition that triggered them.
type NotifyService struct {
	cfg *config.Config
}

func NewNotifyService(cfg *config.Config) *NotifyService {
	return &NotifyService{cfg: cfg}
}

// NewNotifier returns the configured sender, or a no-op one when neither
// SendGrid nor Twilio credentials are present.
func NewNotifier(cfg *config.Config) Notifier {
	if cfg.SendgridAPIKey == "" && cfg.TwilioAccountSID == "" {
		log.Println("No notification channels configured, notifications disabled")
		return NoopNotifier()
	}
	return NewNotifyService(cfg)
}

func (s *NotifyService) NotifyUser(email, phone, subject, body string) {
	if email != "" {
		go func() {
			if err := s.sendEmail(email, subject, body); err != nil {
				log.Printf("ALERT (async): email %q to %s failed: %v", subject, email, err)
			}
		}()
	}
	if phone != "" {
		go func() {
			if err := s.sendSMS(phone, subject+"\n"+body); err != nil {
				log.Printf("ALERT (async): SMS %q to %s failed: %v", subject, phone, err)
			}
		}()
	}
}

func (s *NotifyService) sendEmail(toEmail, subject, body string) error {
	if s.cfg.SendgridAPIKey == "" || s.cfg.SendgridFromEmail == "" {
		return fmt.Errorf("SendGrid is not configured")
	}

	from := mail.NewEmail(s.cfg.SendgridFromName, s.cfg.SendgridFromEmail)
	to := mail.NewEmail("", toEmail)
	message := mail.NewSingleEmail(from, subject, to, body, "")

	client := sendgrid.NewSendClient(s.cfg.SendgridAPIKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("SendGrid send failed: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("SendGrid returned status %d: %s", response.StatusCode, response.Body)
	}
	log.Printf("Email sent to %s (subject: %s), status %d", toEmail, subject, response.StatusCode)
	return nil
}

func (s *NotifyService) sendSMS(toNumber, body string) error {
	if s.cfg.TwilioAccountSID == "" || s.cfg.TwilioAuthToken == "" || s.cfg.TwilioFromNumber == "" {
		return fmt.Errorf("Twilio is not configured")
	}
	if !strings.HasPrefix(toNumber, "+") {
		log.Printf("Warning: destination number %q is not E.164, the SMS may fail", toNumber)
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: s.cfg.TwilioAccountSID,
		Password: s.cfg.TwilioAuthToken,
	})

	params := &openapi.CreateMessageParams{}
	params.SetTo(toNumber)
	params.SetFrom(s.cfg.TwilioFromNumber)
	params.SetBody(body)

	resp, err := client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("Twilio send failed: %w", err)
	}
	if resp != nil && resp.Sid != nil {
		log.Printf("SMS sent to %s, message SID %s", toNumber, *resp.Sid)
	}
	return nil
}
