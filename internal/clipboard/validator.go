package clipboard

import (
	"net/url"
	"strings"

	"github.com/atotto/clipboard"
)

// Validator checks and extracts downloadable URLs from free-form text.
type Validator struct {
	allowedSchemes map[string]bool
}

func NewValidator() *Validator {
	return &Validator{
		allowedSchemes: map[string]bool{"http": true, "https": true},
	}
}

// ExtractURL returns a clean URL, or "" when the text is not one.
func (v *Validator) ExtractURL(text string) string {
	text = strings.TrimSpace(text)

	// Quick rejects: too long, multi-line, or not URL-shaped at all.
	if len(text) > 2048 || strings.ContainsAny(text, "\n\r") {
		return ""
	}
	if !strings.HasPrefix(text, "http://") && !strings.HasPrefix(text, "https://") {
		return ""
	}

	parsed, err := url.Parse(text)
	if err != nil || parsed.Host == "" || !v.allowedSchemes[parsed.Scheme] {
		return ""
	}
	return parsed.String()
}

// ReadURL reads the clipboard and returns a valid URL if one is there.
func ReadURL() string {
	text, err := clipboard.ReadAll()
	if err != nil {
		return ""
	}
	return NewValidator().ExtractURL(text)
}
