// Package mail composes and delivers registration confirmation messages.
package mail

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gofiber/template/html/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoEventHub/GoEventHub/internal/db/models"
	"github.com/GoEventHub/GoEventHub/internal/settings"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

const confirmationTemplate = "confirmation"

// Attachment is a file attached to a Message.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Message is a transport independent email.
type Message struct {
	To          string
	ToName      string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// Composer renders confirmation messages.
type Composer struct {
	baseURL string
	engine  *html.Engine
}

// NewComposer loads the embedded mail templates.
func NewComposer(baseURL string) (*Composer, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}

	engine := html.NewFileSystem(http.FS(sub), ".gohtml")
	if err := engine.Load(); err != nil {
		return nil, fmt.Errorf("failed to load mail templates: %w", err)
	}

	return &Composer{baseURL: strings.TrimRight(baseURL, "/"), engine: engine}, nil
}

// Confirmation builds the confirmation for reg, which must have User and Event loaded.
// qrSVG is attached as <code>.svg when not empty.
func (c *Composer) Confirmation(reg *models.Registration, qrSVG []byte, site settings.Result) (*Message, error) {
	ticketURL := fmt.Sprintf("%s/registrations/%d", c.baseURL, reg.ID)
	subject := fmt.Sprintf("Your registration for %s", reg.Event.Title)

	var body strings.Builder

	err := c.engine.Render(&body, confirmationTemplate, map[string]any{
		"Subject":      subject,
		"SiteName":     site.SiteName(),
		"PrimaryColor": site.PrimaryColor(),
		"FooterText":   site.FooterText(),
		"Name":         reg.User.Name,
		"Event":        reg.Event,
		"Code":         reg.Code,
		"TicketURL":    ticketURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render confirmation mail: %w", err)
	}

	text := fmt.Sprintf("Hello %s,\n\nyou are registered for %s.\n\nWhen: %s\n",
		reg.User.Name, reg.Event.Title, reg.Event.StartsAt.Format("Mon, 02 Jan 2006 15:04"))
	if reg.Event.Venue != "" {
		text += "Where: " + reg.Event.Venue + "\n"
	}

	text += fmt.Sprintf("Code: %s\n\nYour ticket: %s\n\n%s\n", reg.Code, ticketURL, site.FooterText())

	msg := &Message{
		To:      reg.User.Email,
		ToName:  reg.User.Name,
		Subject: subject,
		Text:    text,
		HTML:    body.String(),
	}

	if len(qrSVG) > 0 {
		msg.Attachments = append(msg.Attachments, Attachment{
			Name:        reg.Code + ".svg",
			ContentType: "image/svg+xml",
			Data:        qrSVG,
		})
	}

	return msg, nil
}

// LogSender only logs messages. Used when mail delivery is disabled.
type LogSender struct{}

// Send implements Sender.
func (LogSender) Send(_ context.Context, msg *Message) error {
	log.Info().Str("to", msg.To).Str("subject", msg.Subject).Int("attachments", len(msg.Attachments)).
		Msg("Mail delivery disabled, message not sent")

	return nil
}
