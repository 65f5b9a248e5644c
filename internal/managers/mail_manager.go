package managers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/matcornic/hermes/v2"
	log "github.com/sirupsen/logrus"
)

// MailMgr is an interface that outlines the contract for email management.
type MailMgr interface {
	SendVerificationMail(email, name, otp string) error
	SendWelcomeMail(email, name string) error
	SendBroadcastMail(email, name, message string) error
}

// MailManager is a concrete implementation of the MailMgr interface.
// It uses the Mailgun service for sending emails and the Hermes package for formatting emails.
type MailManager struct {
	Hermes  *hermes.Hermes
	Mailgun *mailgun.MailgunImpl
}

const serviceName = "Skill Swap"

var from = "Skill Swap <team@mail.skillswap-project.tech>"
var environment string

// NewMailManager creates a new MailManager configured from MAILGUN_DOMAIN and
// MAILGUN_API_KEY. Outside the production environment mails are logged and skipped.
func NewMailManager() MailMgr {
	environment = os.Getenv("ENVIRONMENT")

	return &MailManager{
		Hermes: &hermes.Hermes{
			Product: hermes.Product{
				Name: serviceName,
				Link: "https://skillswap-project.tech/",
			},
		},
		Mailgun: mailgun.NewMailgun(os.Getenv("MAILGUN_DOMAIN"), os.Getenv("MAILGUN_API_KEY")),
	}
}

// SendVerificationMail sends the one-time code a user needs to verify their email address.
func (mm *MailManager) SendVerificationMail(email, name, otp string) error {
	mailBody := hermes.Email{
		Body: hermes.Body{
			Name: name,
			Intros: []string{
				fmt.Sprintf("Welcome to %s! We're very excited to have you on board.", serviceName),
			},
			Actions: []hermes.Action{
				{
					Instructions: "To verify your email address, please enter the following code:",
					InviteCode:   otp,
				},
			},
			Outros: []string{
				"The code expires after ten minutes. If you did not sign up, no further action is required.",
			},
		},
	}

	return mm.send(email, "Verify your email address", mailBody)
}

// SendWelcomeMail confirms a successful signup.
func (mm *MailManager) SendWelcomeMail(email, name string) error {
	mailBody := hermes.Email{
		Body: hermes.Body{
			Name: name,
			Intros: []string{
				fmt.Sprintf("Welcome to %s! Start swapping your skills today.", serviceName),
			},
			Outros: []string{
				"If you have any questions, feel free to reach out to us at any time via team@mail.skillswap-project.tech.",
			},
		},
	}

	return mm.send(email, fmt.Sprintf("Welcome to %s!", serviceName), mailBody)
}

// SendBroadcastMail delivers an admin platform announcement to a single user.
func (mm *MailManager) SendBroadcastMail(email, name, message string) error {
	mailBody := hermes.Email{
		Body: hermes.Body{
			Name: name,
			Intros: []string{
				message,
			},
		},
	}

	return mm.send(email, fmt.Sprintf("%s announcement", serviceName), mailBody)
}

func (mm *MailManager) send(email, subject string, mailBody hermes.Email) error {
	if environment != "production" {
		log.Info("Skipping mail in development mode: ", subject)
		return nil
	}

	emailBody, err := mm.Hermes.GenerateHTML(mailBody)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(2*time.Second))
	defer cancel()

	message := mm.Mailgun.NewMessage(from, subject, "", email)
	message.SetHtml(emailBody)
	_, _, err = mm.Mailgun.Send(ctx, message)
	if err != nil {
		log.Warning("Error sending mail: " + err.Error())
		return err
	}
	log.Debug("Mail sent to ", email)

	return nil
}
