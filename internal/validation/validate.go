package validation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Result reports business-rule checks over extracted fields. Errors mark the
// extraction invalid; warnings are advisory and never block completion.
type Result struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

	dateFields    = []string{"TermStartDate", "RenewalDate", "DateSigned"}
	numericFields = []string{"CommitmentFee", "SavingsPlanCredit", "NetPayableFee"}
)

// dateLayouts are tried in order when parsing extracted date strings.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// Validate applies the contract field rules to extracted data.
func Validate(extracted map[string]any, now time.Time) Result {
	r := Result{IsValid: true, Errors: []string{}, Warnings: []string{}}

	if s := stringValue(extracted["CustomerName"]); s == "" {
		r.Errors = append(r.Errors, "CustomerName is required")
		r.IsValid = false
	}

	for _, field := range dateFields {
		s := stringValue(extracted[field])
		if s == "" {
			continue
		}
		t, ok := parseDate(s)
		if !ok {
			r.Warnings = append(r.Warnings, fmt.Sprintf("%s is not a recognizable date: %q", field, s))
			continue
		}
		// Renewal dates are expected to be in the future.
		if field != "RenewalDate" && t.After(now) {
			r.Warnings = append(r.Warnings, fmt.Sprintf("%s is in the future: %s", field, s))
		}
	}

	for _, field := range numericFields {
		n, ok := numberValue(extracted[field])
		if !ok {
			continue
		}
		if n < 0 {
			r.Warnings = append(r.Warnings, fmt.Sprintf("%s is negative: %v", field, extracted[field]))
		}
	}

	if s := stringValue(extracted["EmailInvoiceTo"]); s != "" && !emailPattern.MatchString(s) {
		r.Warnings = append(r.Warnings, fmt.Sprintf("EmailInvoiceTo does not look like an email address: %q", s))
	}

	checkFeeArithmetic(extracted, &r)

	return r
}

// checkFeeArithmetic warns when the net payable fee does not reconcile with
// the commitment fee minus credits, within a cent.
func checkFeeArithmetic(extracted map[string]any, r *Result) {
	commitment, okC := numberValue(extracted["CommitmentFee"])
	credit, okS := numberValue(extracted["SavingsPlanCredit"])
	net, okN := numberValue(extracted["NetPayableFee"])
	if !okC || !okN {
		return
	}
	if !okS {
		credit = 0
	}
	expected := commitment - credit
	if math.Abs(expected-net) > 0.01 {
		r.Warnings = append(r.Warnings, fmt.Sprintf(
			"NetPayableFee %.2f does not match CommitmentFee minus SavingsPlanCredit (%.2f)", net, expected))
	}
}

func stringValue(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// numberValue accepts JSON numbers and currency-formatted strings.
func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		s := strings.TrimSpace(n)
		s = strings.Map(func(r rune) rune {
			switch r {
			case '$', ',', ' ':
				return -1
			}
			return r
		}, s)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
