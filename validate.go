package docconv

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Gatekeeper decides whether a request is admitted before any resource is
// allocated. It is pure: same input, same verdict, no side effects.
type Gatekeeper struct {
	formats map[string]struct{}
	maxSize int64
}

// NewGatekeeper builds a Gatekeeper from an extension allow-list and a
// byte-size ceiling. Extensions are matched case-insensitively.
func NewGatekeeper(formats []string, maxSize int64) *Gatekeeper {
	set := make(map[string]struct{}, len(formats))
	for _, f := range formats {
		set[strings.ToLower(strings.TrimPrefix(f, "."))] = struct{}{}
	}
	return &Gatekeeper{formats: set, maxSize: maxSize}
}

// Admit validates a filename and payload size. On success it returns the
// normalized input extension (lowercase, no dot). On rejection it returns
// one of ErrMissingFilename, ErrUnsupportedFormat, ErrFileTooLarge.
func (g *Gatekeeper) Admit(filename string, size int64) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", ErrMissingFilename
	}

	ext := extOf(filename)
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, filename)
	}
	if _, ok := g.formats[ext]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if size > g.maxSize {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, size, g.maxSize)
	}

	return ext, nil
}

// SniffMismatch reports the detected content type when it disagrees with
// the claimed extension, or "" when it matches. Advisory only: the
// admission verdict stays extension-based, but a mismatch is worth logging
// before handing the bytes to the engine.
func (g *Gatekeeper) SniffMismatch(payload []byte, ext string) string {
	if len(payload) == 0 {
		return ""
	}
	want := "." + ext
	detected := mimetype.Detect(payload)
	// Walk the hierarchy: a .docx payload also matches application/zip,
	// and text-like formats (csv, rtf) resolve through text/plain.
	for mt := detected; mt != nil; mt = mt.Parent() {
		if strings.EqualFold(mt.Extension(), want) {
			return ""
		}
	}
	// Legacy office formats and txt have no registered extension match;
	// treat generic text and ole containers as plausible for them.
	switch ext {
	case "txt", "csv", "rtf":
		if detected.Is("text/plain") {
			return ""
		}
	case "doc", "xls", "ppt":
		if detected.Is("application/x-ole-storage") {
			return ""
		}
	}
	return detected.String()
}

// extOf extracts the lowercase extension without the leading dot.
// Only the base name is considered, so path fragments in the client-supplied
// filename cannot influence the verdict.
func extOf(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filepath.Base(filename)), "."))
}
