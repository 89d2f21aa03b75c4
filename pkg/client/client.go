package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/tyemirov/claimrelay/internal/model"
)

// DefaultTimeout bounds one submission, including attachment upload.
const DefaultTimeout = 25 * time.Second

const (
	MessageSuccess    = "Request submitted successfully! You will receive an email shortly."
	MessageTimeout    = "Submission is taking too long. Please try again."
	MessageFailed     = "Submission failed. Please try again."
	MessageInProgress = "A submission is already in progress."

	maxResponseBytes   = 64 << 10
	defaultContentType = "application/octet-stream"
)

// OutcomeKind classifies the single result a submission surfaces.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota + 1
	OutcomeValidation
	OutcomeTimeout
	OutcomeServerError
)

func (kind OutcomeKind) String() string {
	switch kind {
	case OutcomeSuccess:
		return "success"
	case OutcomeValidation:
		return "validation"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeServerError:
		return "server_error"
	default:
		return "unknown"
	}
}

// Outcome is what the user sees after pressing submit.
type Outcome struct {
	Kind       OutcomeKind
	Message    string
	StatusCode int
	Err        error
}

// Succeeded reports whether the relay accepted the claim.
func (outcome Outcome) Succeeded() bool {
	return outcome.Kind == OutcomeSuccess
}

// Settings configures a SubmissionClient.
type Settings struct {
	Endpoint   string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewSettings validates the relay endpoint and applies the default timeout.
func NewSettings(endpoint string, timeout time.Duration) (Settings, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	parsedEndpoint, err := url.Parse(trimmedEndpoint)
	if err != nil || parsedEndpoint.Scheme == "" || parsedEndpoint.Host == "" {
		return Settings{}, fmt.Errorf("invalid submit endpoint %q", endpoint)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return Settings{Endpoint: trimmedEndpoint, Timeout: timeout}, nil
}

// SubmissionClient posts forms to the relay.
type SubmissionClient struct {
	settings   Settings
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSubmissionClient builds a client from settings.
func NewSubmissionClient(settings Settings, logger *slog.Logger) *SubmissionClient {
	httpClient := settings.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}
	return &SubmissionClient{
		settings:   settings,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Submit validates form, sends it once and resets it on success. A second call
// on the same form while one is in flight is refused.
func (clientInstance *SubmissionClient) Submit(ctx context.Context, form *Form) Outcome {
	if !form.submitting.CompareAndSwap(false, true) {
		return Outcome{Kind: OutcomeValidation, Message: MessageInProgress}
	}
	defer form.submitting.Store(false)

	if validationError := form.Validate(); validationError != nil {
		return Outcome{Kind: OutcomeValidation, Message: validationError.Error(), Err: validationError}
	}

	body, contentType, encodeError := encodeForm(form)
	if encodeError != nil {
		return Outcome{Kind: OutcomeServerError, Message: MessageFailed, Err: encodeError}
	}

	ctx, cancel := context.WithTimeout(ctx, clientInstance.settings.Timeout)
	defer cancel()

	request, requestError := http.NewRequestWithContext(ctx, http.MethodPost, clientInstance.settings.Endpoint, body)
	if requestError != nil {
		return Outcome{Kind: OutcomeServerError, Message: MessageFailed, Err: requestError}
	}
	request.Header.Set("Content-Type", contentType)
	request.Header.Set("Accept", "application/json")

	response, sendError := clientInstance.httpClient.Do(request)
	if sendError != nil {
		return clientInstance.transportOutcome(ctx, sendError)
	}
	defer response.Body.Close()

	responseBody, readError := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if readError != nil {
		return clientInstance.transportOutcome(ctx, readError)
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		message := fmt.Sprintf("Server error: %d", response.StatusCode)
		var envelope model.SubmissionResult
		if json.Unmarshal(responseBody, &envelope) == nil && strings.TrimSpace(envelope.Message) != "" {
			message = envelope.Message
		}
		clientInstance.logger.Warn("Claim submission rejected", "status", response.StatusCode, "message", message)
		return Outcome{Kind: OutcomeServerError, Message: message, StatusCode: response.StatusCode}
	}

	form.Reset()
	clientInstance.logger.Info("Claim submitted", "status", response.StatusCode)
	return Outcome{Kind: OutcomeSuccess, Message: MessageSuccess, StatusCode: response.StatusCode}
}

func (clientInstance *SubmissionClient) transportOutcome(ctx context.Context, err error) Outcome {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		clientInstance.logger.Warn("Claim submission timed out", "timeout", clientInstance.settings.Timeout)
		return Outcome{Kind: OutcomeTimeout, Message: MessageTimeout, Err: err}
	}
	message := strings.TrimSpace(err.Error())
	if message == "" {
		message = MessageFailed
	}
	clientInstance.logger.Error("Claim submission failed", "error", err)
	return Outcome{Kind: OutcomeServerError, Message: message, Err: err}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeForm(form *Form) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fieldValues := form.Claim.FieldValues()
	for _, fieldName := range model.ClaimFieldNames {
		if err := writer.WriteField(fieldName, fieldValues[fieldName]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", fieldName, err)
		}
	}

	for _, file := range form.Files.Files() {
		contentType := file.ContentType
		if contentType == "" {
			contentType = defaultContentType
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, model.FieldFiles, quoteEscaper.Replace(file.Name)))
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create part for %s: %w", file.Name, err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", fmt.Errorf("write part for %s: %w", file.Name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}
