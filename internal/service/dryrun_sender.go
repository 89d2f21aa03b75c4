package service

import (
	"context"
	"log/slog"

	"github.com/tyemirov/claimrelay/internal/model"
)

// DryRunEmailSender logs the composed email instead of sending it.
type DryRunEmailSender struct {
	logger *slog.Logger
}

func NewDryRunEmailSender(logger *slog.Logger) *DryRunEmailSender {
	return &DryRunEmailSender{logger: logger}
}

func (senderInstance *DryRunEmailSender) Validate() error {
	return nil
}

func (senderInstance *DryRunEmailSender) SendEmail(_ context.Context, message model.EmailMessage) error {
	attachmentNames := make([]string, 0, len(message.Attachments))
	for _, attachment := range message.Attachments {
		attachmentNames = append(attachmentNames, attachment.Filename)
	}
	senderInstance.logger.Info(
		"dry_run_email",
		"to", message.To,
		"subject", message.Subject,
		"attachments", attachmentNames,
		"body", message.Text,
	)
	return nil
}
