package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/tyemirov/claimrelay/internal/model"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (fn roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return fn(req)
}

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubEmailSender struct {
	validateErr error
	sendErr     error
	messages    []model.EmailMessage
	deadlineSet bool
}

func (sender *stubEmailSender) Validate() error {
	return sender.validateErr
}

func (sender *stubEmailSender) SendEmail(ctx context.Context, message model.EmailMessage) error {
	_, sender.deadlineSet = ctx.Deadline()
	sender.messages = append(sender.messages, message)
	return sender.sendErr
}

func sampleClaim() model.Claim {
	return model.Claim{
		DealerName:        "Northside Motors",
		DealerAccount:     "D-1042",
		ContactName:       "Jordan Lee",
		ContactEmail:      "jordan@northside.test",
		ContactPhone:      "555-0100",
		VIN:               "1HGCM82633A004352",
		StockNumber:       "LOT-77",
		PurchaseDate:      "2026-10-01",
		PickupDate:        "2026-10-03",
		OdometerReading:   "84211",
		SalePrice:         "12500",
		ClaimType:         model.ClaimTypeMechanical,
		DefectArea:        "Transmission",
		RepairCost:        "1800.50",
		DefectDescription: "Slipping between second and third gear.",
		Signature:         "Jordan Lee",
	}
}
