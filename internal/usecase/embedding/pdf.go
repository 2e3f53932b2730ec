package embedding

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDFText concatenates the plain text of every page in page order.
// Pages that fail to extract are skipped; the document fails only when the
// reader itself cannot open it. The pdf library panics on some malformed
// inputs, so the whole extraction runs under a recover.
func extractPDFText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf extraction panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	for num := 1; num <= reader.NumPage(); num++ {
		page := reader.Page(num)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil || strings.TrimSpace(pageText) == "" {
			continue
		}
		fmt.Fprintf(&b, "\n--- Page %d ---\n", num)
		b.WriteString(pageText)
	}
	return b.String(), nil
}
