package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tyemirov/claimrelay/internal/model"
)

const (
	resendProviderName    = "resend"
	resendAPIKeySetting   = "RESEND_API_KEY"
	maxProviderErrorBytes = 64 * 1024
)

// ResendEmailSender delivers email through the Resend HTTP API.
type ResendEmailSender struct {
	APIKey     string
	Endpoint   string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type resendPayload struct {
	From        string             `json:"from"`
	To          []string           `json:"to"`
	Subject     string             `json:"subject"`
	Text        string             `json:"text"`
	Attachments []resendAttachment `json:"attachments"`
}

type resendAttachment struct {
	Filename    string `json:"filename"`
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
}

type resendResponse struct {
	ID string `json:"id"`
}

// NewResendEmailSender creates a ResendEmailSender with its own HTTP client.
func NewResendEmailSender(apiKey string, endpoint string, timeout time.Duration, logger *slog.Logger) *ResendEmailSender {
	return &ResendEmailSender{
		APIKey:     apiKey,
		Endpoint:   endpoint,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     logger,
	}
}

func (senderInstance *ResendEmailSender) Validate() error {
	if strings.TrimSpace(senderInstance.APIKey) == "" {
		return missingSetting(resendAPIKeySetting)
	}
	return nil
}

// SendEmail posts the message as JSON with base64 attachments. Non-2xx responses
// come back as *UpstreamError carrying the response body unchanged.
func (senderInstance *ResendEmailSender) SendEmail(ctx context.Context, message model.EmailMessage) error {
	payloadBytes, marshalError := json.Marshal(newResendPayload(message))
	if marshalError != nil {
		return fmt.Errorf("encode resend payload: %w", marshalError)
	}

	requestInstance, requestError := http.NewRequestWithContext(ctx, http.MethodPost, senderInstance.Endpoint, bytes.NewReader(payloadBytes))
	if requestError != nil {
		senderInstance.Logger.Error("Failed to create Resend request", "error", requestError)
		return fmt.Errorf("create resend request: %w", requestError)
	}
	requestInstance.Header.Set("Authorization", "Bearer "+senderInstance.APIKey)
	requestInstance.Header.Set("Content-Type", "application/json")

	responseInstance, responseError := senderInstance.HTTPClient.Do(requestInstance)
	if responseError != nil {
		senderInstance.Logger.Error("Resend request error", "error", responseError)
		return &UpstreamError{Provider: resendProviderName, Message: responseError.Error()}
	}
	defer responseInstance.Body.Close()

	responseBody, _ := io.ReadAll(io.LimitReader(responseInstance.Body, maxProviderErrorBytes))
	if responseInstance.StatusCode < 200 || responseInstance.StatusCode >= 300 {
		senderInstance.Logger.Error("Resend API returned error", "status", responseInstance.StatusCode, "body", string(responseBody))
		return &UpstreamError{
			Provider:   resendProviderName,
			StatusCode: responseInstance.StatusCode,
			Message:    string(responseBody),
		}
	}

	var decoded resendResponse
	if json.Unmarshal(responseBody, &decoded) == nil && decoded.ID != "" {
		senderInstance.Logger.Info("resend_email_accepted", "provider_message_id", decoded.ID)
	}
	return nil
}

func newResendPayload(message model.EmailMessage) resendPayload {
	attachments := make([]resendAttachment, 0, len(message.Attachments))
	for _, attachment := range message.Attachments {
		attachments = append(attachments, resendAttachment{
			Filename:    attachment.Filename,
			Content:     attachment.EncodedContent(),
			ContentType: attachment.ContentType,
		})
	}
	return resendPayload{
		From:        message.From,
		To:          message.To,
		Subject:     message.Subject,
		Text:        message.Text,
		Attachments: attachments,
	}
}
