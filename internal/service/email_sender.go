package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tyemirov/claimrelay/internal/config"
	"github.com/tyemirov/claimrelay/internal/model"
)

// EmailSender delivers one composed email through a provider.
type EmailSender interface {
	// Validate reports the first provider setting that is missing.
	Validate() error
	// SendEmail makes a single delivery attempt.
	SendEmail(ctx context.Context, message model.EmailMessage) error
}

// NewEmailSender builds the sender selected by MAIL_PROVIDER.
func NewEmailSender(cfg config.Config, logger *slog.Logger) (EmailSender, error) {
	switch cfg.MailProvider {
	case config.ProviderResend:
		return NewResendEmailSender(cfg.ResendAPIKey, cfg.ResendAPIURL, cfg.OperationTimeout(), logger), nil
	case config.ProviderSMTP:
		return NewSMTPEmailSender(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     fmt.Sprintf("%d", cfg.SMTPPort),
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			Timeout:  cfg.OperationTimeout(),
		}, logger), nil
	case config.ProviderSES:
		return NewSESEmailSender(cfg.AWSRegion, cfg.MailFrom, logger)
	case config.ProviderDryRun:
		return NewDryRunEmailSender(logger), nil
	default:
		return nil, fmt.Errorf("unsupported mail provider: %s", cfg.MailProvider)
	}
}
