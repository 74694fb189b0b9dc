package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/dealwatch/backend/internal/apperror"
	"github.com/dealwatch/backend/internal/model"
	"github.com/dealwatch/backend/pkg/currency"
)

// ErrNoEmailAddress is returned for users without a stored email address.
var ErrNoEmailAddress = errors.New("user has no email address")

// EmailSender sends a plain text email
type EmailSender interface {
	Send(to, subject, body string) error
}

// UserDirectory resolves user contact details
type UserDirectory interface {
	Get(ctx context.Context, userID int64) (*model.User, error)
}

// EmailChannel mails alerts to the address on the user's profile.
type EmailChannel struct {
	sender EmailSender
	users  UserDirectory
	quoter *currency.Quoter
	logger *slog.Logger
}

// NewEmailChannel creates an EmailChannel
func NewEmailChannel(sender EmailSender, users UserDirectory, quoter *currency.Quoter, log *slog.Logger) *EmailChannel {
	if log == nil {
		log = slog.Default()
	}
	return &EmailChannel{sender: sender, users: users, quoter: quoter, logger: log}
}

// Deliver looks up the user's address and sends the alert
func (c *EmailChannel) Deliver(ctx context.Context, userID int64, event model.DropEvent) error {
	if err := ctx.Err(); err != nil {
		return apperror.NewDeliveryError("email", userID, err)
	}

	user, err := c.users.Get(ctx, userID)
	if err != nil {
		return apperror.NewDeliveryError("email", userID, fmt.Errorf("get user: %w", err))
	}
	if user.Email == "" {
		return apperror.NewDeliveryError("email", userID, ErrNoEmailAddress)
	}

	body := FormatDropMessage(event, quoteFor(ctx, c.quoter, c.logger))
	if err := c.sender.Send(user.Email, FormatDropSubject(event), body); err != nil {
		return apperror.NewDeliveryError("email", userID, err)
	}

	c.logger.Debug("Email sent", slog.Int64("user_id", userID), slog.String("game_id", event.GameID))
	return nil
}

// SMTPConfig holds mail server settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender sends mail through an SMTP relay with STARTTLS when offered.
type SMTPSender struct {
	addr string
	auth smtp.Auth
	from string
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender creates an SMTPSender. PLAIN auth is used when a username is set.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPSender{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		auth: auth,
		from: cfg.From,
		send: smtp.SendMail,
	}
}

// Send delivers one message to a single recipient
func (s *SMTPSender) Send(to, subject, body string) error {
	if err := s.send(s.addr, s.auth, s.from, []string{to}, buildMessage(s.from, to, subject, body)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}
