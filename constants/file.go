package constants

import "strings"

// DocType is the classified document family a reader is selected for.
type DocType string

const (
	DocTypePDF     DocType = "pdf"
	DocTypeExcel   DocType = "excel"
	DocTypeWord    DocType = "word"
	DocTypeUnknown DocType = "unknown"
)

// AllowedExtensions holds the default allowed file extensions for submissions.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"xlsx": {},
	"xls":  {},
	"csv":  {},
	"doc":  {},
	"docx": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
