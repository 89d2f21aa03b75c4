package command

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	cliConfig "github.com/tyemirov/claimrelay/clients/cli/internal/config"
	"github.com/tyemirov/claimrelay/internal/model"
	"github.com/tyemirov/claimrelay/pkg/client"
)

type stubSubmitter struct {
	forms   []*client.Form
	files   [][]string
	outcome client.Outcome
}

func (submitter *stubSubmitter) Submit(_ context.Context, form *client.Form) client.Outcome {
	submitter.forms = append(submitter.forms, form)
	names := []string{}
	for _, file := range form.Files.Files() {
		names = append(names, file.Name)
	}
	submitter.files = append(submitter.files, names)
	return submitter.outcome
}

func completeClaimArgs() []string {
	return []string{
		"submit",
		"--dealer-name", "Acme Motors",
		"--dealer-account", "D-100",
		"--contact-name", "Jane Doe",
		"--contact-email", "jane@example.com",
		"--contact-phone", "555-0100",
		"--vin", "1HGCM82633A004352",
		"--purchase-date", "2024-01-02",
		"--pickup-date", "2024-01-05",
		"--odometer", "42000",
		"--sale-price", "15000",
		"--claim-type", model.ClaimTypeMechanical,
		"--defect-area", "Engine",
		"--repair-cost", "3200",
		"--defect-description", "Knocking at idle",
		"--signature", "Jane Doe",
		"--confirm-timeframe",
		"--confirm-undisclosed",
		"--accept-fees",
	}
}

func runSubmit(t *testing.T, stub *stubSubmitter, args []string) (string, *cliConfig.Config, error) {
	t.Helper()

	output := &bytes.Buffer{}
	var captured *cliConfig.Config
	cmd := NewRootCommand(Dependencies{
		Viper: viper.New(),
		NewSubmitter: func(cfg cliConfig.Config) (Submitter, error) {
			captured = &cfg
			return stub, nil
		},
		Output: output,
	})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return output.String(), captured, err
}

func TestSubmitCommandBuildsForm(t *testing.T) {
	attachmentPath := filepath.Join(t.TempDir(), "inspection.pdf")
	if err := os.WriteFile(attachmentPath, []byte("%PDF-1.4 report"), 0o600); err != nil {
		t.Fatalf("write attachment: %v", err)
	}

	stub := &stubSubmitter{outcome: client.Outcome{Kind: client.OutcomeSuccess, Message: client.MessageSuccess}}
	args := append(completeClaimArgs(), "--file", attachmentPath, "--file", attachmentPath, "--timeout", "5")

	output, cfg, err := runSubmit(t, stub, args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stub.forms) != 1 {
		t.Fatalf("expected one submission, got %d", len(stub.forms))
	}
	form := stub.forms[0]
	if form.DealerName != "Acme Motors" || form.VIN != "1HGCM82633A004352" || form.ClaimType != model.ClaimTypeMechanical {
		t.Fatalf("unexpected claim %+v", form.Claim)
	}
	if !form.Declarations.Timeframe || !form.Declarations.UndisclosedIssue || !form.Declarations.FeeResponsibility {
		t.Fatalf("expected all declarations set, got %+v", form.Declarations)
	}
	if strings.Join(stub.files[0], ",") != "inspection.pdf" {
		t.Fatalf("expected deduplicated attachment, got %v", stub.files[0])
	}
	if cfg == nil || cfg.TimeoutSec != 5 || cfg.ServerURL != cliConfig.DefaultServerURL {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if !strings.Contains(output, "Attachments: 1 (15 B)") || !strings.Contains(output, client.MessageSuccess) {
		t.Fatalf("unexpected output %q", output)
	}
}

func TestSubmitCommandReadsConfigFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "claim.yaml")
	contents := strings.Join([]string{
		"server_url: https://relay.example.com/submit",
		"dealerName: File Motors",
		"vin: 2FTRX18W1XCA00001",
		"confirm_timeframe: true",
	}, "\n")
	if err := os.WriteFile(configPath, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	stub := &stubSubmitter{outcome: client.Outcome{Kind: client.OutcomeSuccess, Message: client.MessageSuccess}}
	_, cfg, err := runSubmit(t, stub, []string{"submit", "--config", configPath, "--vin", "OVERRIDE"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerURL != "https://relay.example.com/submit" {
		t.Fatalf("expected server url from file, got %q", cfg.ServerURL)
	}
	form := stub.forms[0]
	if form.DealerName != "File Motors" {
		t.Fatalf("expected dealer from file, got %q", form.DealerName)
	}
	if form.VIN != "OVERRIDE" {
		t.Fatalf("expected flag to override file, got %q", form.VIN)
	}
	if !form.Declarations.Timeframe || form.Declarations.FeeResponsibility {
		t.Fatalf("unexpected declarations %+v", form.Declarations)
	}
}

func TestSubmitCommandFailsOnUnsuccessfulOutcome(t *testing.T) {
	testCases := []struct {
		name    string
		outcome client.Outcome
	}{
		{name: "timeout", outcome: client.Outcome{Kind: client.OutcomeTimeout, Message: client.MessageTimeout}},
		{name: "server error", outcome: client.Outcome{Kind: client.OutcomeServerError, Message: "RESEND_API_KEY missing"}},
		{name: "validation", outcome: client.Outcome{Kind: client.OutcomeValidation, Message: "Please complete the required fields: vin"}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			stub := &stubSubmitter{outcome: testCase.outcome}
			output, _, err := runSubmit(t, stub, completeClaimArgs())
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), testCase.outcome.Message) {
				t.Fatalf("expected error to carry %q, got %v", testCase.outcome.Message, err)
			}
			if !strings.Contains(output, testCase.outcome.Message) {
				t.Fatalf("expected outcome printed, got %q", output)
			}
		})
	}
}

func TestSubmitCommandRejectsMissingAttachment(t *testing.T) {
	stub := &stubSubmitter{}
	args := append(completeClaimArgs(), "--file", filepath.Join(t.TempDir(), "absent.pdf"))

	_, _, err := runSubmit(t, stub, args)
	if err == nil || !strings.Contains(err.Error(), "absent.pdf") {
		t.Fatalf("expected attachment error, got %v", err)
	}
	if len(stub.forms) != 0 {
		t.Fatalf("expected no submission")
	}
}

func TestFormatSize(t *testing.T) {
	t.Parallel()

	testCases := map[int64]string{
		0:       "0 B",
		1023:    "1023 B",
		1536:    "1.5 KB",
		5 << 20: "5.0 MB",
	}
	for input, expected := range testCases {
		if got := formatSize(input); got != expected {
			t.Fatalf("formatSize(%d) = %q, want %q", input, got, expected)
		}
	}
}
