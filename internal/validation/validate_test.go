package validation

import (
	"strings"
	"testing"
	"time"
)

var now = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func TestValidateRequiresCustomerName(t *testing.T) {
	r := Validate(map[string]any{}, now)
	if r.IsValid {
		t.Errorf("missing CustomerName should be invalid")
	}
	if len(r.Errors) != 1 || !strings.Contains(r.Errors[0], "CustomerName") {
		t.Errorf("errors = %v", r.Errors)
	}

	r = Validate(map[string]any{"CustomerName": "   "}, now)
	if r.IsValid {
		t.Errorf("blank CustomerName should be invalid")
	}

	r = Validate(map[string]any{"CustomerName": "Acme Corp"}, now)
	if !r.IsValid {
		t.Errorf("valid name rejected: %v", r.Errors)
	}
}

func TestValidateFutureDates(t *testing.T) {
	extracted := map[string]any{
		"CustomerName":  "Acme",
		"TermStartDate": "2030-01-01",
	}
	r := Validate(extracted, now)
	if !r.IsValid {
		t.Errorf("future date is a warning, not an error")
	}
	if !hasWarning(r.Warnings, "TermStartDate") {
		t.Errorf("expected future date warning, got %v", r.Warnings)
	}

	// renewal dates are expected to be in the future
	extracted = map[string]any{
		"CustomerName": "Acme",
		"RenewalDate":  "2030-01-01",
	}
	r = Validate(extracted, now)
	if hasWarning(r.Warnings, "RenewalDate") {
		t.Errorf("future RenewalDate should not warn: %v", r.Warnings)
	}
}

func TestValidateUnparseableDate(t *testing.T) {
	r := Validate(map[string]any{
		"CustomerName": "Acme",
		"DateSigned":   "sometime last spring",
	}, now)
	if !hasWarning(r.Warnings, "DateSigned") {
		t.Errorf("expected unparseable date warning, got %v", r.Warnings)
	}
}

func TestValidateDateLayouts(t *testing.T) {
	for _, s := range []string{
		"2024-06-01",
		"06/01/2024",
		"June 1, 2024",
		"Jun 1, 2024",
		"1 June 2024",
		// ISO datetimes, the format the extraction prompt asks for
		"2024-06-01T00:00:00+00:00",
		"2024-06-01T00:00:00Z",
		"2024-06-01T00:00:00",
	} {
		if _, ok := parseDate(s); !ok {
			t.Errorf("parseDate(%q) failed", s)
		}
	}
}

func TestValidateFutureISODatetime(t *testing.T) {
	r := Validate(map[string]any{
		"CustomerName": "Acme",
		"DateSigned":   "2030-05-01T00:00:00+00:00",
	}, now)
	if hasWarning(r.Warnings, "recognizable") {
		t.Fatalf("ISO datetime should parse: %v", r.Warnings)
	}
	if !hasWarning(r.Warnings, "DateSigned is in the future") {
		t.Errorf("expected future date warning, got %v", r.Warnings)
	}
}

func TestValidateNegativeNumbers(t *testing.T) {
	r := Validate(map[string]any{
		"CustomerName":  "Acme",
		"CommitmentFee": -100.0,
	}, now)
	if !r.IsValid {
		t.Errorf("negative number is a warning, not an error")
	}
	if !hasWarning(r.Warnings, "CommitmentFee") {
		t.Errorf("expected negative warning, got %v", r.Warnings)
	}

	// currency strings parse too
	r = Validate(map[string]any{
		"CustomerName":  "Acme",
		"CommitmentFee": "-$1,250.00",
	}, now)
	if !hasWarning(r.Warnings, "CommitmentFee") {
		t.Errorf("expected negative warning for currency string, got %v", r.Warnings)
	}
}

func TestValidateEmail(t *testing.T) {
	r := Validate(map[string]any{
		"CustomerName":   "Acme",
		"EmailInvoiceTo": "billing@acme.example",
	}, now)
	if hasWarning(r.Warnings, "EmailInvoiceTo") {
		t.Errorf("valid email warned: %v", r.Warnings)
	}

	r = Validate(map[string]any{
		"CustomerName":   "Acme",
		"EmailInvoiceTo": "not-an-email",
	}, now)
	if !hasWarning(r.Warnings, "EmailInvoiceTo") {
		t.Errorf("expected email warning, got %v", r.Warnings)
	}
}

func TestValidateFeeArithmetic(t *testing.T) {
	// consistent: 120000 - 20000 = 100000
	r := Validate(map[string]any{
		"CustomerName":      "Acme",
		"CommitmentFee":     120000.0,
		"SavingsPlanCredit": 20000.0,
		"NetPayableFee":     100000.0,
	}, now)
	if hasWarning(r.Warnings, "NetPayableFee") {
		t.Errorf("consistent fees warned: %v", r.Warnings)
	}

	// off by more than a cent
	r = Validate(map[string]any{
		"CustomerName":      "Acme",
		"CommitmentFee":     120000.0,
		"SavingsPlanCredit": 20000.0,
		"NetPayableFee":     99000.0,
	}, now)
	if !hasWarning(r.Warnings, "NetPayableFee") {
		t.Errorf("expected arithmetic warning, got %v", r.Warnings)
	}

	// missing credit treated as zero
	r = Validate(map[string]any{
		"CustomerName":  "Acme",
		"CommitmentFee": 5000.0,
		"NetPayableFee": 5000.0,
	}, now)
	if hasWarning(r.Warnings, "NetPayableFee") {
		t.Errorf("missing credit should default to zero: %v", r.Warnings)
	}
}

func TestNumberValue(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{100.5, 100.5, true},
		{"$1,250.50", 1250.50, true},
		{"  42 ", 42, true},
		{nil, 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{true, 0, false},
	}
	for _, tt := range tests {
		got, ok := numberValue(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("numberValue(%v) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func hasWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}
