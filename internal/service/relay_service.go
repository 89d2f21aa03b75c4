package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/tyemirov/claimrelay/internal/model"
)

const mailToSetting = "MAIL_TO"

// RelayService turns claim submissions into a single outbound email.
type RelayService interface {
	// CheckConfiguration reports the first missing delivery setting.
	CheckConfiguration() error
	// Submit composes the claim email and makes one delivery attempt.
	Submit(ctx context.Context, claim model.Claim, attachments []model.EmailAttachment) error
}

// RelaySettings carries the addressing shared by every provider.
type RelaySettings struct {
	Provider         string
	MailTo           string
	MailFrom         string
	OperationTimeout time.Duration
}

type relayServiceImpl struct {
	sender   EmailSender
	settings RelaySettings
	logger   *slog.Logger
}

// NewRelayService wires a RelayService around sender.
func NewRelayService(sender EmailSender, settings RelaySettings, logger *slog.Logger) RelayService {
	return &relayServiceImpl{
		sender:   sender,
		settings: settings,
		logger:   logger,
	}
}

func (serviceInstance *relayServiceImpl) CheckConfiguration() error {
	if validationError := serviceInstance.sender.Validate(); validationError != nil {
		return validationError
	}
	if strings.TrimSpace(serviceInstance.settings.MailTo) == "" {
		return missingSetting(mailToSetting)
	}
	return nil
}

func (serviceInstance *relayServiceImpl) Submit(ctx context.Context, claim model.Claim, attachments []model.EmailAttachment) error {
	if configurationError := serviceInstance.CheckConfiguration(); configurationError != nil {
		serviceInstance.logger.Error("Relay configuration incomplete", "error", configurationError)
		return configurationError
	}

	message := model.NewClaimEmail(serviceInstance.settings.MailFrom, serviceInstance.settings.MailTo, claim, attachments)

	if serviceInstance.settings.OperationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, serviceInstance.settings.OperationTimeout)
		defer cancel()
	}

	started := time.Now()
	if sendError := serviceInstance.sender.SendEmail(ctx, message); sendError != nil {
		serviceInstance.logger.Error(
			"claim_relay_failed",
			"provider", serviceInstance.settings.Provider,
			"subject", message.Subject,
			"error", sendError,
		)
		return sendError
	}

	serviceInstance.logger.Info(
		"claim_relayed",
		"provider", serviceInstance.settings.Provider,
		"subject", message.Subject,
		"attachments", len(message.Attachments),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return nil
}
