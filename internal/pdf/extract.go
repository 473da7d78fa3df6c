package pdf

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/scholarpipe/scholarpipe/internal/domain"
	"github.com/scholarpipe/scholarpipe/internal/textutil"
)

// whitespaceRuns matches runs of any whitespace for collapsing.
var whitespaceRuns = regexp.MustCompile(`\s+`)

// ExtractText reads every page of the PDF at path and returns its plain
// text: pages joined with newlines, whitespace runs collapsed to single
// spaces, trimmed, and truncated to domain.MaxPDFContentLen characters.
// Returns an empty string when the file cannot be read or parsed.
func ExtractText(path string) (text string, err error) {
	// The underlying parser panics on some malformed files; treat a panic
	// as an unreadable PDF.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("pdf: parser panic: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("pdf: open %s: %w", path, err)
	}
	defer f.Close()

	var sb strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// Skip unreadable pages; the remainder may still be useful.
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}

	return normalizeText(sb.String(), domain.MaxPDFContentLen), nil
}

// normalizeText collapses whitespace runs to single spaces, trims, and
// truncates to maxLen characters.
func normalizeText(s string, maxLen int) string {
	s = whitespaceRuns.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	return textutil.Truncate(s, maxLen)
}
