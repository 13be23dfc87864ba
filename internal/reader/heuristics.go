package reader

import (
	"regexp"
	"strconv"
	"strings"
)

// Pure predicates for format-specific heuristics. Kept free of I/O so every
// rule is independently testable.

var importantColumnTerms = []string{
	"date", "fee", "amount", "account", "total", "price", "rate", "term",
}

// IsImportantColumn reports whether a spreadsheet column name suggests the
// cells under it carry key business values and deserve their own citation
// reference.
func IsImportantColumn(name string) bool {
	lower := strings.ToLower(name)
	for _, term := range importantColumnTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// IsNonZeroNumber reports whether the cell value parses as a number other
// than zero. Currency symbols and thousands separators are tolerated.
func IsNonZeroNumber(value string) bool {
	cleaned := strings.NewReplacer("$", "", ",", "", "%", "", " ", "").Replace(strings.TrimSpace(value))
	if cleaned == "" {
		return false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	return err == nil && f != 0
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}`),            // 2024-01-31
	regexp.MustCompile(`^\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}$`), // 1/31/2024, 31.01.24
	regexp.MustCompile(`(?i)^(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.? \d{1,2},? \d{4}$`),
}

// LooksLikeDate reports whether the cell value resembles a calendar date.
func LooksLikeDate(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	for _, p := range datePatterns {
		if p.MatchString(value) {
			return true
		}
	}
	return false
}

// IsImportantCell combines the column-name and value heuristics from the
// spreadsheet reader's splitting policy.
func IsImportantCell(columnName, value string) bool {
	if strings.TrimSpace(value) == "" {
		return false
	}
	return IsImportantColumn(columnName) || IsNonZeroNumber(value) || LooksLikeDate(value)
}

var headingNumbering = regexp.MustCompile(`^(\d+(\.\d+)*|[IVXLC]+\.|[A-Z]\.)\s+\S`)

// IsHeading reports whether a paragraph reads like a section heading:
// short, no terminal punctuation, and either style-hinted, numbered
// ("2.1 Pricing") or fully upper-case.
func IsHeading(text, styleHint string) bool {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > 120 {
		return false
	}
	if strings.Contains(strings.ToLower(styleHint), "heading") || strings.Contains(strings.ToLower(styleHint), "title") {
		return true
	}
	if strings.HasSuffix(text, ".") || strings.HasSuffix(text, ",") {
		return false
	}
	if headingNumbering.MatchString(text) {
		return true
	}
	letters := 0
	uppers := 0
	for _, r := range text {
		if r >= 'a' && r <= 'z' {
			letters++
		}
		if r >= 'A' && r <= 'Z' {
			letters++
			uppers++
		}
	}
	return letters >= 4 && uppers == letters
}

// CellName converts a zero-based column index and one-based row number into
// spreadsheet-style addressing: (0, 2) -> "A2", (26, 2) -> "AA2".
func CellName(col, row int) string {
	name := make([]byte, 0, 3)
	for col >= 0 {
		name = append([]byte{byte('A' + col%26)}, name...)
		col = col/26 - 1
	}
	return string(name) + strconv.Itoa(row)
}
