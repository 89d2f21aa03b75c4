package client

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tyemirov/claimrelay/internal/model"
	"github.com/tyemirov/claimrelay/pkg/attachments"
)

func TestSubmitSendsMultipartAndResets(t *testing.T) {
	t.Parallel()

	var (
		mutex         sync.Mutex
		receivedForm  map[string]string
		receivedFiles []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if err := request.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			writer.WriteHeader(http.StatusBadRequest)
			return
		}
		mutex.Lock()
		receivedForm = make(map[string]string)
		for _, fieldName := range model.ClaimFieldNames {
			receivedForm[fieldName] = request.PostForm.Get(fieldName)
		}
		for _, fileHeader := range request.MultipartForm.File[model.FieldFiles] {
			receivedFiles = append(receivedFiles, fileHeader.Filename+"|"+fileHeader.Header.Get("Content-Type"))
		}
		_, hasDeclaration := request.PostForm[DeclarationTimeframe]
		mutex.Unlock()
		if hasDeclaration {
			t.Errorf("declarations must not be transmitted")
		}
		writer.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(writer, `{"status":"ok"}`)
	}))
	defer server.Close()

	form := newCompleteForm()
	form.Files.Add(
		attachments.File{Name: "report.pdf", ContentType: "application/pdf", Data: []byte("%PDF")},
		attachments.File{Name: "photo.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8}},
	)

	outcome := newTestClient(t, server.URL, time.Second).Submit(context.Background(), form)
	if outcome.Kind != OutcomeSuccess || outcome.Message != MessageSuccess {
		t.Fatalf("unexpected outcome %+v", outcome)
	}

	mutex.Lock()
	defer mutex.Unlock()
	if receivedForm[model.FieldDealerName] != "Acme Motors" || receivedForm[model.FieldStockNumber] != "" {
		t.Fatalf("unexpected fields %+v", receivedForm)
	}
	expectedFiles := []string{"report.pdf|application/pdf", "photo.jpg|image/jpeg"}
	if strings.Join(receivedFiles, ",") != strings.Join(expectedFiles, ",") {
		t.Fatalf("unexpected files %v", receivedFiles)
	}
	if form.DealerName != "" || form.Declarations.Timeframe || form.Files.Len() != 0 {
		t.Fatalf("expected form reset after success")
	}
}

func TestSubmitValidationFailureSendsNothing(t *testing.T) {
	t.Parallel()

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		requests++
	}))
	defer server.Close()

	form := newCompleteForm()
	form.ContactEmail = "not-an-email"
	form.Declarations.FeeResponsibility = false

	outcome := newTestClient(t, server.URL, time.Second).Submit(context.Background(), form)
	if outcome.Kind != OutcomeValidation {
		t.Fatalf("expected validation outcome, got %+v", outcome)
	}
	if !strings.Contains(outcome.Message, model.FieldContactEmail) || !strings.Contains(outcome.Message, DeclarationFeeResponsibility) {
		t.Fatalf("expected offending fields in message, got %q", outcome.Message)
	}
	if requests != 0 {
		t.Fatalf("expected no request, got %d", requests)
	}
	if form.DealerName == "" {
		t.Fatalf("form must be kept after a failed submission")
	}
}

func TestSubmitTimesOut(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		select {
		case <-request.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	form := newCompleteForm()
	outcome := newTestClient(t, server.URL, 50*time.Millisecond).Submit(context.Background(), form)
	if outcome.Kind != OutcomeTimeout || outcome.Message != MessageTimeout {
		t.Fatalf("expected timeout outcome, got %+v", outcome)
	}
	if form.DealerName == "" {
		t.Fatalf("form must be kept after a timeout")
	}
}

func TestSubmitServerErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name            string
		status          int
		body            string
		expectedMessage string
	}{
		{name: "envelope message", status: http.StatusInternalServerError, body: `{"status":"error","message":"RESEND_API_KEY missing"}`, expectedMessage: "RESEND_API_KEY missing"},
		{name: "upstream body", status: http.StatusBadGateway, body: `{"status":"error","message":"{\"name\":\"validation_error\"}"}`, expectedMessage: `{"name":"validation_error"}`},
		{name: "no envelope", status: http.StatusServiceUnavailable, body: "gateway down", expectedMessage: "Server error: 503"},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				writer.WriteHeader(testCase.status)
				_, _ = io.WriteString(writer, testCase.body)
			}))
			defer server.Close()

			outcome := newTestClient(t, server.URL, time.Second).Submit(context.Background(), newCompleteForm())
			if outcome.Kind != OutcomeServerError {
				t.Fatalf("expected server error, got %+v", outcome)
			}
			if outcome.Message != testCase.expectedMessage || outcome.StatusCode != testCase.status {
				t.Fatalf("unexpected outcome %+v", outcome)
			}
		})
	}
}

func TestSubmitTransportFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	outcome := newTestClient(t, endpoint, time.Second).Submit(context.Background(), newCompleteForm())
	if outcome.Kind != OutcomeServerError || outcome.Message == "" || outcome.Err == nil {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
}

func TestSubmitRefusesConcurrentSubmission(t *testing.T) {
	t.Parallel()

	form := newCompleteForm()
	form.submitting.Store(true)

	outcome := newTestClient(t, "http://127.0.0.1:1", time.Second).Submit(context.Background(), form)
	if outcome.Kind != OutcomeValidation || outcome.Message != MessageInProgress {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
}

func TestNewSettings(t *testing.T) {
	t.Parallel()

	settings, err := NewSettings(" http://localhost:8080/submit ", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Endpoint != "http://localhost:8080/submit" || settings.Timeout != DefaultTimeout {
		t.Fatalf("unexpected settings %+v", settings)
	}
	if _, err := NewSettings("localhost", time.Second); err == nil {
		t.Fatalf("expected error for endpoint without scheme")
	}
}

func TestFileSetDeduplicatesByNameAndSize(t *testing.T) {
	t.Parallel()

	var fileSet FileSet
	added := fileSet.Add(
		attachments.File{Name: "a.pdf", Data: []byte("123")},
		attachments.File{Name: "a.pdf", Data: []byte("456")},
		attachments.File{Name: "a.pdf", Data: []byte("1234")},
		attachments.File{Name: "b.pdf", Data: []byte("123")},
	)
	if added != 3 || fileSet.Len() != 3 {
		t.Fatalf("expected three unique files, added %d len %d", added, fileSet.Len())
	}
	if fileSet.TotalSize() != 10 {
		t.Fatalf("unexpected total size %d", fileSet.TotalSize())
	}
	if !fileSet.Remove("a.pdf", 4) || fileSet.Remove("a.pdf", 4) {
		t.Fatalf("remove should succeed exactly once")
	}
	names := []string{}
	for _, file := range fileSet.Files() {
		names = append(names, file.Name)
	}
	if strings.Join(names, ",") != "a.pdf,b.pdf" {
		t.Fatalf("unexpected order %v", names)
	}
}

func TestValidateAcceptsCompleteForm(t *testing.T) {
	t.Parallel()

	if err := newCompleteForm().Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	form := newCompleteForm()
	form.VIN = "1HGCM82633A0043521"
	form.ClaimType = "Cosmetic"
	form.StockNumber = ""
	err := form.Validate()
	validationError, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if strings.Join(validationError.Fields, ",") != "claimType,vin" {
		t.Fatalf("unexpected fields %v", validationError.Fields)
	}
}

func newTestClient(t *testing.T, endpoint string, timeout time.Duration) *SubmissionClient {
	t.Helper()
	return NewSubmissionClient(Settings{Endpoint: endpoint, Timeout: timeout}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newCompleteForm() *Form {
	form := &Form{}
	form.Claim = model.Claim{
		DealerName:        "Acme Motors",
		DealerAccount:     "D-100",
		ContactName:       "Jane Doe",
		ContactEmail:      "jane@example.com",
		ContactPhone:      "555-0100",
		VIN:               "1HGCM82633A004352",
		PurchaseDate:      "2024-01-02",
		PickupDate:        "2024-01-05",
		OdometerReading:   "42000",
		SalePrice:         "15000",
		ClaimType:         model.ClaimTypeMechanical,
		DefectArea:        "Engine",
		RepairCost:        "3200",
		DefectDescription: "Knocking at idle",
		Signature:         "Jane Doe",
	}
	form.Declarations = Declarations{Timeframe: true, UndisclosedIssue: true, FeeResponsibility: true}
	return form
}
