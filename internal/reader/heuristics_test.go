package reader

import "testing"

func TestCellName(t *testing.T) {
	tests := []struct {
		col, row int
		want     string
	}{
		{0, 1, "A1"},
		{0, 2, "A2"},
		{1, 2, "B2"},
		{25, 10, "Z10"},
		{26, 2, "AA2"},
		{27, 3, "AB3"},
		{51, 1, "AZ1"},
		{52, 1, "BA1"},
		{701, 1, "ZZ1"},
		{702, 1, "AAA1"},
	}
	for _, tt := range tests {
		if got := CellName(tt.col, tt.row); got != tt.want {
			t.Errorf("CellName(%d, %d) = %q, want %q", tt.col, tt.row, got, tt.want)
		}
	}
}

func TestIsImportantColumn(t *testing.T) {
	important := []string{"Date Signed", "Commitment Fee", "Total Amount", "account id", "RATE"}
	for _, name := range important {
		if !IsImportantColumn(name) {
			t.Errorf("expected %q to be important", name)
		}
	}
	unimportant := []string{"Notes", "Comment", "Description", ""}
	for _, name := range unimportant {
		if IsImportantColumn(name) {
			t.Errorf("expected %q to be unimportant", name)
		}
	}
}

func TestIsNonZeroNumber(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"100", true},
		{"$1,250.50", true},
		{"-42", true},
		{"12.5%", true},
		{"0", false},
		{"0.00", false},
		{"$0", false},
		{"", false},
		{"hello", false},
		{"  ", false},
	}
	for _, tt := range tests {
		if got := IsNonZeroNumber(tt.in); got != tt.want {
			t.Errorf("IsNonZeroNumber(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLooksLikeDate(t *testing.T) {
	dates := []string{"2024-01-31", "1/31/2024", "31.01.24", "Jan 5, 2024", "January 5 2024", "12-31-2024"}
	for _, d := range dates {
		if !LooksLikeDate(d) {
			t.Errorf("expected %q to look like a date", d)
		}
	}
	notDates := []string{"", "hello", "1234567", "version 1.2.3.4"}
	for _, d := range notDates {
		if LooksLikeDate(d) {
			t.Errorf("expected %q to not look like a date", d)
		}
	}
}

func TestIsImportantCell(t *testing.T) {
	if !IsImportantCell("Commitment Fee", "text value") {
		t.Errorf("important column with any value should count")
	}
	if !IsImportantCell("Notes", "$500") {
		t.Errorf("non-zero number should count regardless of column")
	}
	if !IsImportantCell("Notes", "2024-06-01") {
		t.Errorf("date value should count regardless of column")
	}
	if IsImportantCell("Notes", "just a comment") {
		t.Errorf("plain text in plain column should not count")
	}
	if IsImportantCell("Commitment Fee", "   ") {
		t.Errorf("blank value never counts")
	}
}

func TestIsHeading(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		styleHint string
		want      bool
	}{
		{"style hint", "Pricing overview", "Heading1", true},
		{"title hint", "Pricing overview", "Title", true},
		{"numbered", "2.1 Pricing Terms", "", true},
		{"all caps", "TERMINATION", "", true},
		{"sentence", "This agreement is made on the date below.", "", false},
		{"trailing comma", "PRICING,", "", false},
		{"too long", "2.1 " + string(make([]byte, 130)), "", false},
		{"short caps", "OK", "", false},
		{"mixed case plain", "Some plain text", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsHeading(tt.text, tt.styleHint); got != tt.want {
				t.Errorf("IsHeading(%q, %q) = %v, want %v", tt.text, tt.styleHint, got, tt.want)
			}
		})
	}
}
