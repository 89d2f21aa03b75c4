package client

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"github.com/tyemirov/claimrelay/internal/model"
)

// Declaration field names as rendered by the form. They are never transmitted.
const (
	DeclarationTimeframe         = "declaration1"
	DeclarationUndisclosedIssue  = "declaration2"
	DeclarationFeeResponsibility = "declaration5"
)

// Declarations are the acknowledgements a dealer must tick before submitting.
type Declarations struct {
	Timeframe         bool `json:"declaration1" validate:"required"`
	UndisclosedIssue  bool `json:"declaration2" validate:"required"`
	FeeResponsibility bool `json:"declaration5" validate:"required"`
}

// Form holds one claim being prepared for submission.
type Form struct {
	model.Claim
	Declarations Declarations
	Files        FileSet

	submitting atomic.Bool
}

// Reset clears fields, declarations and attachments.
func (form *Form) Reset() {
	form.Claim = model.Claim{}
	form.Declarations = Declarations{}
	form.Files.Clear()
}

// ValidationError lists the form fields that are missing or malformed.
type ValidationError struct {
	Fields []string
}

func (validationError *ValidationError) Error() string {
	return "Please complete the required fields: " + strings.Join(validationError.Fields, ", ")
}

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	instance := validator.New()
	instance.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return instance
}

// Validate checks required fields, formats and declarations.
func (form *Form) Validate() error {
	err := formValidator.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return fmt.Errorf("validate form: %w", err)
	}
	seen := make(map[string]struct{}, len(fieldErrors))
	fields := make([]string, 0, len(fieldErrors))
	for _, fieldError := range fieldErrors {
		name := fieldError.Field()
		if _, duplicate := seen[name]; duplicate {
			continue
		}
		seen[name] = struct{}{}
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return &ValidationError{Fields: fields}
}
