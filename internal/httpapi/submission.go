package httpapi

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tyemirov/claimrelay/internal/model"
	"github.com/tyemirov/claimrelay/internal/service"
)

const invalidSubmissionMessage = "invalid form submission"

type submissionHandler struct {
	relay              service.RelayService
	maxMultipartMemory int64
	logger             *slog.Logger
}

func newSubmissionHandler(relay service.RelayService, maxMultipartMemory int64, logger *slog.Logger) *submissionHandler {
	return &submissionHandler{relay: relay, maxMultipartMemory: maxMultipartMemory, logger: logger}
}

// submitClaim checks configuration before touching the body, then relays the form.
func (handler *submissionHandler) submitClaim(contextGin *gin.Context) {
	if configurationError := handler.relay.CheckConfiguration(); configurationError != nil {
		handler.writeError(contextGin, configurationError)
		return
	}

	request := contextGin.Request
	parseError := request.ParseMultipartForm(handler.maxMultipartMemory)
	if errors.Is(parseError, http.ErrNotMultipart) {
		// PostForm is already populated from a url-encoded body.
		parseError = nil
	}
	if parseError != nil {
		handler.logger.Warn("Rejected malformed submission", "request_id", contextGin.GetString(contextKeyRequestID), "error", parseError)
		contextGin.JSON(http.StatusBadRequest, model.SubmissionFailed(invalidSubmissionMessage))
		return
	}
	if request.MultipartForm != nil {
		defer request.MultipartForm.RemoveAll()
	}

	claim := model.ClaimFromLookup(request.PostForm.Get)
	attachments, readError := readAttachments(request.MultipartForm)
	if readError != nil {
		handler.logger.Warn("Failed to read attachment", "request_id", contextGin.GetString(contextKeyRequestID), "error", readError)
		contextGin.JSON(http.StatusBadRequest, model.SubmissionFailed(invalidSubmissionMessage))
		return
	}

	if submitError := handler.relay.Submit(request.Context(), claim, attachments); submitError != nil {
		handler.writeError(contextGin, submitError)
		return
	}
	contextGin.JSON(http.StatusOK, model.SubmissionSucceeded())
}

func (handler *submissionHandler) writeError(contextGin *gin.Context, err error) {
	var upstreamError *service.UpstreamError
	switch {
	case errors.Is(err, service.ErrMissingConfiguration):
		handler.logger.Error("relay_not_configured", "request_id", contextGin.GetString(contextKeyRequestID), "error", err)
		contextGin.JSON(http.StatusInternalServerError, model.SubmissionFailed(err.Error()))
	case errors.As(err, &upstreamError):
		contextGin.JSON(http.StatusBadGateway, model.SubmissionFailed(upstreamError.Message))
	default:
		handler.logger.Error("http_handler_error", "request_id", contextGin.GetString(contextKeyRequestID), "error", err)
		contextGin.JSON(http.StatusInternalServerError, model.SubmissionFailed("internal server error"))
	}
}

func readAttachments(form *multipart.Form) ([]model.EmailAttachment, error) {
	if form == nil {
		return nil, nil
	}
	fileHeaders := form.File[model.FieldFiles]
	attachments := make([]model.EmailAttachment, 0, len(fileHeaders))
	for _, fileHeader := range fileHeaders {
		data, readError := readFileHeader(fileHeader)
		if readError != nil {
			return nil, fmt.Errorf("attachment %q: %w", fileHeader.Filename, readError)
		}
		attachments = append(attachments, model.NewEmailAttachment(fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data))
	}
	return attachments, nil
}

func readFileHeader(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, openError := fileHeader.Open()
	if openError != nil {
		return nil, openError
	}
	defer file.Close()
	return io.ReadAll(file)
}
