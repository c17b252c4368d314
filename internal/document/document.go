package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"neuromatch/internal/errors"
	"neuromatch/internal/utils"
)

const (
	docxBody         = "word/document.xml"
	maxDocumentXML   = 32 << 20
	wordprocessingNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

// Extract returns the plain text of an uploaded résumé or job description.
// Plain text and markdown are passed through; .docx bodies are flattened
// to one line per paragraph.
func Extract(filename string, data []byte) (string, error) {
	switch {
	case utils.IsTextFile(filename):
		if !utf8.Valid(data) {
			return "", errors.NewValidationError(errors.ErrCodeUnsupportedDoc,
				fmt.Sprintf("%s is not valid UTF-8 text", filename), nil)
		}
		return string(data), nil
	case utils.IsWordDocument(filename):
		return ExtractDocx(data)
	default:
		return "", errors.NewValidationError(errors.ErrCodeUnsupportedDoc,
			fmt.Sprintf("unsupported document type %q (use .txt, .md or .docx)", utils.GetFileExtension(filename)), nil).
			WithContext("filename", filename)
	}
}

// ExtractDocx reads the paragraphs of a Word document
func ExtractDocx(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewValidationError(errors.ErrCodeUnsupportedDoc, "document is not a valid .docx archive", err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBody {
			body = f
			break
		}
	}
	if body == nil {
		return "", errors.NewValidationError(errors.ErrCodeUnsupportedDoc, "document has no word/document.xml part", nil)
	}

	rc, err := body.Open()
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to open document body", err)
	}
	defer func() { _ = rc.Close() }()

	text, err := paragraphs(io.LimitReader(rc, maxDocumentXML))
	if err != nil {
		return "", errors.NewValidationError(errors.ErrCodeUnsupportedDoc, "document body is not well-formed XML", err)
	}
	return text, nil
}

// paragraphs walks WordprocessingML collecting run text
func paragraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		out    strings.Builder
		line   strings.Builder
		inText bool
	)

	flush := func() {
		if s := strings.TrimSpace(line.String()); s != "" {
			out.WriteString(s)
			out.WriteByte('\n')
		}
		line.Reset()
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordprocessingNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				line.WriteByte('\t')
			case "br", "cr":
				line.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Space != wordprocessingNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				flush()
			}
		case xml.CharData:
			if inText {
				line.Write(t)
			}
		}
	}
	flush()

	return strings.TrimSpace(out.String()), nil
}
