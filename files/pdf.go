package files

import (
	"bytes"
	"errors"

	pdf "rsc.io/pdf"
)

const defaultManualMaxChars = 12000 // keeps extracted manuals inside the chat context budget

// ExtractPDFText reads the text layer of the PDF at filePath, capped at
// maxChars (a default cap applies when maxChars <= 0). PDFs without a text
// layer yield an error rather than binary garbage.
func ExtractPDFText(filePath string, maxChars int) (string, error) {
	if maxChars <= 0 {
		maxChars = defaultManualMaxChars
	}
	r, err := pdf.Open(filePath)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	for page := 1; page <= r.NumPage(); page++ {
		p := r.Page(page)
		if p.V.IsNull() {
			continue
		}
		for _, t := range p.Content().Text {
			buf.WriteString(t.S)
		}
		buf.WriteString("\n\n")
		if buf.Len() >= maxChars {
			break
		}
	}
	if buf.Len() == 0 {
		return "", errors.New("pdf has no extractable text")
	}
	out := buf.String()
	if len(out) > maxChars {
		out = out[:maxChars]
	}
	return out, nil
}
