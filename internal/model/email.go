package model

import (
	"encoding/base64"
	"strings"
)

const (
	// DefaultAttachmentFilename names attachments uploaded without a filename.
	DefaultAttachmentFilename = "attachment"
	// DefaultAttachmentContentType is applied when the upload carries no media type.
	DefaultAttachmentContentType = "application/octet-stream"
)

// EmailAttachment is a file carried by one relay request.
type EmailAttachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// NewEmailAttachment applies the filename and media type defaults.
func NewEmailAttachment(filename string, contentType string, data []byte) EmailAttachment {
	normalizedName := strings.TrimSpace(filename)
	if normalizedName == "" {
		normalizedName = DefaultAttachmentFilename
	}
	normalizedType := strings.TrimSpace(contentType)
	if normalizedType == "" {
		normalizedType = DefaultAttachmentContentType
	}
	return EmailAttachment{
		Filename:    normalizedName,
		ContentType: normalizedType,
		Data:        data,
	}
}

// EncodedContent returns the attachment bytes as standard base64.
func (attachment EmailAttachment) EncodedContent() string {
	return base64.StdEncoding.EncodeToString(attachment.Data)
}

// EmailMessage is the provider-neutral email produced for a claim.
type EmailMessage struct {
	From        string
	To          []string
	Subject     string
	Text        string
	Attachments []EmailAttachment
}

// NewClaimEmail composes the relay email for a claim.
func NewClaimEmail(from string, to string, claim Claim, attachments []EmailAttachment) EmailMessage {
	return EmailMessage{
		From:        from,
		To:          []string{to},
		Subject:     claim.Subject(),
		Text:        claim.Summary(),
		Attachments: attachments,
	}
}

// SubmissionStatus is the status field of the response envelope.
type SubmissionStatus string

const (
	SubmissionOK    SubmissionStatus = "ok"
	SubmissionError SubmissionStatus = "error"
)

// SubmissionResult is the JSON envelope returned by the relay.
type SubmissionResult struct {
	Status  SubmissionStatus `json:"status"`
	Message string           `json:"message,omitempty"`
}

// SubmissionSucceeded builds the success envelope.
func SubmissionSucceeded() SubmissionResult {
	return SubmissionResult{Status: SubmissionOK}
}

// SubmissionFailed builds an error envelope carrying message.
func SubmissionFailed(message string) SubmissionResult {
	return SubmissionResult{Status: SubmissionError, Message: message}
}
