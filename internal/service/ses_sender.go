package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
	"github.com/tyemirov/claimrelay/internal/model"
)

const (
	sesProviderName  = "ses"
	awsRegionSetting = "AWS_REGION"
	mailFromSetting  = "MAIL_FROM"
)

// SESEmailSender sends the raw MIME message through Amazon SES.
type SESEmailSender struct {
	region string
	source string
	client sesiface.SESAPI
	logger *slog.Logger
	now    func() time.Time
}

// NewSESEmailSender creates an SES client for region. Credentials come from the
// default AWS chain. An empty region leaves the sender unconfigured.
func NewSESEmailSender(region string, source string, logger *slog.Logger) (*SESEmailSender, error) {
	senderInstance := &SESEmailSender{
		region: strings.TrimSpace(region),
		source: strings.TrimSpace(source),
		logger: logger,
		now:    time.Now,
	}
	if senderInstance.region == "" {
		return senderInstance, nil
	}
	awsSession, sessionError := session.NewSession(&aws.Config{Region: aws.String(senderInstance.region)})
	if sessionError != nil {
		return nil, fmt.Errorf("create aws session: %w", sessionError)
	}
	senderInstance.client = ses.New(awsSession)
	return senderInstance, nil
}

func (senderInstance *SESEmailSender) Validate() error {
	switch {
	case senderInstance.region == "" || senderInstance.client == nil:
		return missingSetting(awsRegionSetting)
	case senderInstance.source == "":
		return missingSetting(mailFromSetting)
	}
	return nil
}

func (senderInstance *SESEmailSender) SendEmail(ctx context.Context, message model.EmailMessage) error {
	input := &ses.SendRawEmailInput{
		RawMessage:   &ses.RawMessage{Data: buildEmailMessage(message, senderInstance.now())},
		Source:       aws.String(message.From),
		Destinations: aws.StringSlice(message.To),
	}

	result, sendError := senderInstance.client.SendRawEmailWithContext(ctx, input)
	if sendError != nil {
		senderInstance.logger.Error("SES delivery failed", "error", sendError)
		upstreamError := &UpstreamError{Provider: sesProviderName, Message: sendError.Error()}
		var awsError awserr.RequestFailure
		if errors.As(sendError, &awsError) {
			upstreamError.StatusCode = awsError.StatusCode()
			upstreamError.Message = awsError.Message()
		}
		return upstreamError
	}

	senderInstance.logger.Info("ses_email_accepted", "provider_message_id", aws.StringValue(result.MessageId))
	return nil
}
