package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrExtractionFailed  = errors.New("text extraction failed")
	ErrTooLarge          = errors.New("combined size too large")
)

type Kind string

const (
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
	KindPPTX Kind = "pptx"
	KindText Kind = "text"
)

// ExtractionError wraps a decoder failure with the file it came from.
// It matches both ErrExtractionFailed and the underlying cause.
type ExtractionError struct {
	FileName string
	Kind     Kind
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to process %s: %v", e.FileName, e.Err)
}

func (e *ExtractionError) Unwrap() []error {
	return []error{ErrExtractionFailed, e.Err}
}

type Document struct {
	Name string
	Data []byte
}

type decoder func(data []byte) (string, error)

var decoders = map[Kind]decoder{
	KindPDF:  extractPDF,
	KindDOCX: extractDOCX,
	KindPPTX: extractPPTX,
	KindText: decodePlainText,
}

var extensionKinds = map[string]Kind{
	"pdf":  KindPDF,
	"docx": KindDOCX,
	"pptx": KindPPTX,
	"txt":  KindText,
	"md":   KindText,
	"csv":  KindText,
	"java": KindText,
	"py":   KindText,
	"js":   KindText,
	"html": KindText,
	"xml":  KindText,
	"json": KindText,
	"log":  KindText,
}

// SupportedExtensions lists accepted extensions without the leading dot.
func SupportedExtensions() []string {
	out := make([]string, 0, len(extensionKinds))
	for ext := range extensionKinds {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(strings.TrimSpace(name)), "."))
}

// KindOf resolves the document kind from the file extension.
func KindOf(name string) (Kind, error) {
	ext := Extension(name)
	kind, ok := extensionKinds[ext]
	if !ok {
		if ext == "" {
			return "", fmt.Errorf("%w: file %q has no extension", ErrUnsupportedFormat, name)
		}
		return "", fmt.Errorf("%w: .%s", ErrUnsupportedFormat, ext)
	}
	return kind, nil
}

// Extract returns the normalized text of doc, choosing the decoder from
// the file extension.
func Extract(doc Document) (string, error) {
	kind, err := KindOf(doc.Name)
	if err != nil {
		return "", err
	}
	return ExtractAs(kind, doc)
}

// ExtractAs decodes doc with the decoder for kind. Decoder panics on
// malformed input are reported as extraction failures.
func ExtractAs(kind Kind, doc Document) (text string, err error) {
	dec, ok := decoders[kind]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, kind)
	}

	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &ExtractionError{FileName: doc.Name, Kind: kind, Err: fmt.Errorf("decoder panic: %v", r)}
		}
	}()

	raw, derr := dec(doc.Data)
	if derr != nil {
		return "", &ExtractionError{FileName: doc.Name, Kind: kind, Err: derr}
	}
	return Normalize(raw), nil
}

// Normalize converts line endings to "\n" and composes Unicode to NFC.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return norm.NFC.String(s)
}

// ExtractAll concatenates the text of every document under a
// "--- Content from: name ---" header. A positive maxTotal caps the combined
// input size. Per-document failures are returned as warnings and do not
// stop the remaining documents.
func ExtractAll(docs []Document, maxTotal int64) (string, []error, error) {
	var total int64
	for _, doc := range docs {
		total += int64(len(doc.Data))
	}
	if maxTotal > 0 && total > maxTotal {
		return "", nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, total, maxTotal)
	}

	var (
		sb       strings.Builder
		warnings []error
	)
	for _, doc := range docs {
		text, err := Extract(doc)
		if err != nil {
			warnings = append(warnings, err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "--- Content from: %s ---\n", doc.Name)
		sb.WriteString(strings.TrimSpace(text))
	}
	return sb.String(), warnings, nil
}
