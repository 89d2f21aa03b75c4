package service

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/tyemirov/claimrelay/internal/model"
)

const (
	smtpProviderName    = "smtp"
	smtpUsernameSetting = "SMTP_USERNAME"
	smtpPasswordSetting = "SMTP_PASSWORD"
	smtpHostSetting     = "SMTP_HOST"
)

// SMTPConfig for sending through an SMTP submission server.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Timeout  time.Duration
}

type smtpDeliveryFunc func(ctx context.Context, cfg SMTPConfig, from string, recipients []string, message []byte) error

// SMTPEmailSender sends MIME email with STARTTLS and PLAIN auth.
type SMTPEmailSender struct {
	cfg     SMTPConfig
	logger  *slog.Logger
	deliver smtpDeliveryFunc
	now     func() time.Time
}

func NewSMTPEmailSender(cfg SMTPConfig, logger *slog.Logger) *SMTPEmailSender {
	return &SMTPEmailSender{
		cfg:     cfg,
		logger:  logger,
		deliver: deliverSMTP,
		now:     time.Now,
	}
}

func (senderInstance *SMTPEmailSender) Validate() error {
	switch {
	case strings.TrimSpace(senderInstance.cfg.Host) == "":
		return missingSetting(smtpHostSetting)
	case strings.TrimSpace(senderInstance.cfg.Username) == "":
		return missingSetting(smtpUsernameSetting)
	case strings.TrimSpace(senderInstance.cfg.Password) == "":
		return missingSetting(smtpPasswordSetting)
	}
	return nil
}

func (senderInstance *SMTPEmailSender) SendEmail(ctx context.Context, message model.EmailMessage) error {
	rawMessage := buildEmailMessage(message, senderInstance.now())
	if deliveryError := senderInstance.deliver(ctx, senderInstance.cfg, message.From, message.To, rawMessage); deliveryError != nil {
		senderInstance.logger.Error("SMTP delivery failed", "host", senderInstance.cfg.Host, "error", deliveryError)
		return &UpstreamError{Provider: smtpProviderName, Message: deliveryError.Error()}
	}
	return nil
}

func deliverSMTP(ctx context.Context, cfg SMTPConfig, from string, recipients []string, message []byte) error {
	address := net.JoinHostPort(cfg.Host, cfg.Port)
	dialer := &net.Dialer{Timeout: cfg.Timeout}
	connection, dialError := dialer.DialContext(ctx, "tcp", address)
	if dialError != nil {
		return fmt.Errorf("smtp dial %s: %w", address, dialError)
	}
	if cfg.Timeout > 0 {
		_ = connection.SetDeadline(time.Now().Add(cfg.Timeout))
	}
	if deadline, hasDeadline := ctx.Deadline(); hasDeadline {
		_ = connection.SetDeadline(deadline)
	}

	client, clientError := smtp.NewClient(connection, cfg.Host)
	if clientError != nil {
		_ = connection.Close()
		return fmt.Errorf("smtp handshake: %w", clientError)
	}
	defer client.Close()

	if supported, _ := client.Extension("STARTTLS"); supported {
		if tlsError := client.StartTLS(&tls.Config{ServerName: cfg.Host}); tlsError != nil {
			return fmt.Errorf("smtp starttls: %w", tlsError)
		}
	}
	if authError := client.Auth(smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)); authError != nil {
		return fmt.Errorf("smtp auth: %w", authError)
	}
	if mailError := client.Mail(from); mailError != nil {
		return fmt.Errorf("smtp mail from: %w", mailError)
	}
	for _, recipient := range recipients {
		if rcptError := client.Rcpt(recipient); rcptError != nil {
			return fmt.Errorf("smtp rcpt %s: %w", recipient, rcptError)
		}
	}
	dataWriter, dataError := client.Data()
	if dataError != nil {
		return fmt.Errorf("smtp data: %w", dataError)
	}
	if _, writeError := dataWriter.Write(message); writeError != nil {
		return fmt.Errorf("smtp write: %w", writeError)
	}
	if closeError := dataWriter.Close(); closeError != nil {
		return fmt.Errorf("smtp send failed: %w", closeError)
	}
	return client.Quit()
}
