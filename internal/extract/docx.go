package extract

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// extractDOCX opens the word-processing package and walks word/document.xml,
// concatenating text runs in document order.
func extractDOCX(ctx context.Context, _ string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()

	raw := doc.Editable().GetContent()
	if strings.TrimSpace(raw) == "" {
		return "", errors.New("document.xml is empty")
	}
	return docxText(raw)
}

// docxText collects w:t character data. Paragraph ends and breaks become newlines, w:tab a tab.
func docxText(raw string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				buf.WriteString("\t")
			case "br", "cr":
				buf.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				buf.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				buf.WriteString("\n")
			}
		}
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
