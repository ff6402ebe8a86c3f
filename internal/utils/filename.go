package utils

import (
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/vfaronov/httpheader"
)

func fromHex(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return 10 + b - 'a', true
	case b >= 'A' && b <= 'F':
		return 10 + b - 'A', true
	}
	return 0, false
}

// PercentDecode decodes %HH escapes and turns '+' into a space. Any byte that
// is not part of a valid escape passes through unchanged. If the decoded
// result is not valid UTF-8 the input is returned as-is.
func PercentDecode(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); {
		if s[i] == '%' && i+2 < len(s) {
			hi, okHi := fromHex(s[i+1])
			lo, okLo := fromHex(s[i+2])
			if okHi && okLo {
				out = append(out, hi<<4|lo)
				i += 3
				continue
			}
		}
		if s[i] == '+' {
			out = append(out, ' ')
			i++
			continue
		}
		out = append(out, s[i])
		i++
	}
	if !utf8.Valid(out) {
		return s
	}
	return string(out)
}

// FilenameFromContentDisposition extracts a filename from a
// Content-Disposition header value. The extended filename* parameter
// (RFC 5987, charset''percent-encoded) wins over a plain filename parameter.
// Returns "" when the header carries neither.
func FilenameFromContentDisposition(cd string) string {
	var star, plain string
	for _, part := range strings.Split(cd, ";") {
		part = strings.TrimSpace(part)
		if rest, ok := strings.CutPrefix(part, "filename*="); ok {
			v := strings.Trim(rest, `"`)
			if pos := strings.Index(v, "''"); pos != -1 {
				star = PercentDecode(v[pos+2:])
			} else {
				// Malformed extended value without the charset
				// separator; decode it whole.
				star = PercentDecode(v)
			}
		} else if rest, ok := strings.CutPrefix(part, "filename="); ok {
			v := strings.TrimSpace(rest)
			if len(v) >= 2 && strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`) {
				v = v[1 : len(v)-1]
			}
			plain = v
		}
	}
	if star != "" {
		return star
	}
	return plain
}

// FilenameFromResponse resolves a filename from response headers. The
// tolerant splitter above is tried first; when it comes up empty, the strict
// RFC 6266 parser gets a second opinion (it copes with oddities like
// unquoted values containing spaces).
func FilenameFromResponse(h http.Header) string {
	cd := h.Get("Content-Disposition")
	if cd == "" {
		return ""
	}
	if name := FilenameFromContentDisposition(cd); name != "" {
		return name
	}
	if _, name, err := httpheader.ContentDisposition(h); err == nil && name != "" {
		return name
	}
	return ""
}

// FilenameFromURL derives a fallback filename from the raw URL: the segment
// after the last '/', cut before any query string, percent-decoded.
func FilenameFromURL(rawurl string) string {
	name := rawurl
	if idx := strings.LastIndex(name, "/"); idx != -1 {
		name = name[idx+1:]
	}
	if idx := strings.Index(name, "?"); idx != -1 {
		name = name[:idx]
	}
	if name == "" || name == "/" {
		name = "download.bin"
	}
	return PercentDecode(name)
}

// SanitizeFilename strips path separators and characters that are unsafe in
// filenames on common filesystems.
func SanitizeFilename(name string) string {
	// Treat backslashes as separators so filepath.Base drops Windows-style
	// directory prefixes too.
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "." {
		return name
	}
	if name == "/" || name == "\\" {
		return "_"
	}
	name = strings.TrimSpace(name)
	replacer := strings.NewReplacer(
		"/", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(name)
}
