package model

import "strings"

// Form field names shared by the relay and the form client.
const (
	FieldDealerName        = "dealerName"
	FieldDealerAccount     = "dealerAcct"
	FieldContactName       = "contactName"
	FieldContactEmail      = "contactEmail"
	FieldContactPhone      = "contactPhone"
	FieldVIN               = "vin"
	FieldStockNumber       = "stockNumber"
	FieldPurchaseDate      = "purchaseDate"
	FieldPickupDate        = "pickupDate"
	FieldOdometerReading   = "odometerReading"
	FieldSalePrice         = "salePrice"
	FieldClaimType         = "claimType"
	FieldDefectArea        = "defectArea"
	FieldRepairCost        = "repairCost"
	FieldDefectDescription = "defectDescription"
	FieldSignature         = "signature"

	// FieldFiles is the repeatable multipart part carrying attachments.
	FieldFiles = "files"
)

// ClaimFieldNames lists every claim field in form order.
var ClaimFieldNames = []string{
	FieldDealerName,
	FieldDealerAccount,
	FieldContactName,
	FieldContactEmail,
	FieldContactPhone,
	FieldVIN,
	FieldStockNumber,
	FieldPurchaseDate,
	FieldPickupDate,
	FieldOdometerReading,
	FieldSalePrice,
	FieldClaimType,
	FieldDefectArea,
	FieldRepairCost,
	FieldDefectDescription,
	FieldSignature,
}

// Claim types offered by the arbitration form.
const (
	ClaimTypeMechanical = "Major Mechanical Failure"
	ClaimTypeStructural = "Undisclosed Structural/Frame Damage"
	ClaimTypeTitle      = "Title/Odometer/VIN Discrepancy"
	ClaimTypeOther      = "Other"
)

const (
	summaryHeading       = "Clutch Arbitration Request"
	subjectPrefix        = "Arbitration Request"
	unknownDealerName    = "Unknown"
	unknownVehicleVIN    = "N/A"
	summaryLineSeparator = "\n"
)

// Claim is a dispute-resolution request as submitted through the form.
// Required-field checks happen in the form client; the relay forwards whatever it receives.
type Claim struct {
	DealerName        string `json:"dealerName" mapstructure:"dealerName" validate:"required"`
	DealerAccount     string `json:"dealerAcct" mapstructure:"dealerAcct" validate:"required"`
	ContactName       string `json:"contactName" mapstructure:"contactName" validate:"required"`
	ContactEmail      string `json:"contactEmail" mapstructure:"contactEmail" validate:"required,email"`
	ContactPhone      string `json:"contactPhone" mapstructure:"contactPhone" validate:"required"`
	VIN               string `json:"vin" mapstructure:"vin" validate:"required,max=17"`
	StockNumber       string `json:"stockNumber" mapstructure:"stockNumber"`
	PurchaseDate      string `json:"purchaseDate" mapstructure:"purchaseDate" validate:"required"`
	PickupDate        string `json:"pickupDate" mapstructure:"pickupDate" validate:"required"`
	OdometerReading   string `json:"odometerReading" mapstructure:"odometerReading" validate:"required,numeric"`
	SalePrice         string `json:"salePrice" mapstructure:"salePrice" validate:"required,numeric"`
	ClaimType         string `json:"claimType" mapstructure:"claimType" validate:"required,oneof='Major Mechanical Failure' 'Undisclosed Structural/Frame Damage' 'Title/Odometer/VIN Discrepancy' 'Other'"`
	DefectArea        string `json:"defectArea" mapstructure:"defectArea" validate:"required"`
	RepairCost        string `json:"repairCost" mapstructure:"repairCost" validate:"required,numeric"`
	DefectDescription string `json:"defectDescription" mapstructure:"defectDescription" validate:"required"`
	Signature         string `json:"signature" mapstructure:"signature" validate:"required"`
}

// ClaimFromLookup builds a Claim by reading each form field through lookup.
// Missing fields become empty strings.
func ClaimFromLookup(lookup func(fieldName string) string) Claim {
	return Claim{
		DealerName:        lookup(FieldDealerName),
		DealerAccount:     lookup(FieldDealerAccount),
		ContactName:       lookup(FieldContactName),
		ContactEmail:      lookup(FieldContactEmail),
		ContactPhone:      lookup(FieldContactPhone),
		VIN:               lookup(FieldVIN),
		StockNumber:       lookup(FieldStockNumber),
		PurchaseDate:      lookup(FieldPurchaseDate),
		PickupDate:        lookup(FieldPickupDate),
		OdometerReading:   lookup(FieldOdometerReading),
		SalePrice:         lookup(FieldSalePrice),
		ClaimType:         lookup(FieldClaimType),
		DefectArea:        lookup(FieldDefectArea),
		RepairCost:        lookup(FieldRepairCost),
		DefectDescription: lookup(FieldDefectDescription),
		Signature:         lookup(FieldSignature),
	}
}

// FieldValues returns the claim keyed by form field name.
func (claim Claim) FieldValues() map[string]string {
	return map[string]string{
		FieldDealerName:        claim.DealerName,
		FieldDealerAccount:     claim.DealerAccount,
		FieldContactName:       claim.ContactName,
		FieldContactEmail:      claim.ContactEmail,
		FieldContactPhone:      claim.ContactPhone,
		FieldVIN:               claim.VIN,
		FieldStockNumber:       claim.StockNumber,
		FieldPurchaseDate:      claim.PurchaseDate,
		FieldPickupDate:        claim.PickupDate,
		FieldOdometerReading:   claim.OdometerReading,
		FieldSalePrice:         claim.SalePrice,
		FieldClaimType:         claim.ClaimType,
		FieldDefectArea:        claim.DefectArea,
		FieldRepairCost:        claim.RepairCost,
		FieldDefectDescription: claim.DefectDescription,
		FieldSignature:         claim.Signature,
	}
}

// Subject renders the email subject line for the claim.
func (claim Claim) Subject() string {
	dealerName := claim.DealerName
	if dealerName == "" {
		dealerName = unknownDealerName
	}
	vin := claim.VIN
	if vin == "" {
		vin = unknownVehicleVIN
	}
	return subjectPrefix + " - " + dealerName + " - " + vin
}

// Summary renders the plaintext email body listing every claim field.
func (claim Claim) Summary() string {
	lines := []string{
		summaryHeading,
		"",
		"Dealer Name: " + claim.DealerName,
		"Dealer Account #: " + claim.DealerAccount,
		"Primary Contact: " + claim.ContactName,
		"Contact Email: " + claim.ContactEmail,
		"Contact Phone: " + claim.ContactPhone,
		"",
		"VIN: " + claim.VIN,
		"Stock/Lot #: " + claim.StockNumber,
		"Purchase Date: " + claim.PurchaseDate,
		"Pickup Date: " + claim.PickupDate,
		"Odometer: " + claim.OdometerReading,
		"Sale Price: " + claim.SalePrice,
		"",
		"Claim Type: " + claim.ClaimType,
		"Defect Area: " + claim.DefectArea,
		"Repair Cost: " + claim.RepairCost,
		"Description:",
		claim.DefectDescription,
		"",
		"Signature: " + claim.Signature,
	}
	return strings.Join(lines, summaryLineSeparator)
}
