package parse

import (
	"net"
	"net/url"
	"regexp"
	"strings"
)

// The six entities the source markup actually uses. Single-pass replacement so
// an already-decoded "&" never re-triggers a second decode.
var entityRe = regexp.MustCompile(`&(?:nbsp|amp|lt|gt|quot|#39);`)

var entityReplacements = map[string]string{
	"&nbsp;": " ",
	"&amp;":  "&",
	"&lt;":   "<",
	"&gt;":   ">",
	"&quot;": `"`,
	"&#39;":  "'",
}

// U+00A0 is included because HTML parsers hand back &nbsp; already decoded,
// and Go's \s does not cover it
var whitespaceRe = regexp.MustCompile(`[\s\x{00a0}]+`)

// CleanText decodes the common HTML entities, collapses runs of whitespace to
// a single space and trims. Safe for empty input; never returns an error.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	decoded := entityRe.ReplaceAllStringFunc(text, func(entity string) string {
		return entityReplacements[entity]
	})
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(decoded, " "))
}

// NormalizeURL standardizes a URL for use as a cache key.
// It lowercases the scheme and host, removes default ports (80 for http,
// 443 for https), removes trailing slashes from paths (unless root "/"),
// ensures empty path becomes "/", and removes fragments. The query string is
// kept: the cache is content-addressed by the full request.
// Does not modify the input *url.URL
func NormalizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	// Work on a copy
	normalized := *u

	normalized.Scheme = strings.ToLower(normalized.Scheme)
	normalized.Host = strings.ToLower(normalized.Host)

	// Remove default ports
	host, port, err := net.SplitHostPort(normalized.Host)
	if err == nil { // Host included a port
		if (normalized.Scheme == "http" && port == "80") ||
			(normalized.Scheme == "https" && port == "443") {
			normalized.Host = host // Use hostname without default port
		}
	} // If no port or error, Host remains unchanged

	// Handle path normalization
	if normalized.Path == "" {
		normalized.Path = "/" // Ensure empty path becomes "/"
	} else if len(normalized.Path) > 1 && strings.HasSuffix(normalized.Path, "/") {
		normalized.Path = normalized.Path[:len(normalized.Path)-1] // Remove trailing slash
	}

	normalized.Fragment = "" // Remove fragment

	return normalized.String()
}

// ParseAndNormalize parses a URL string using the stricter url.ParseRequestURI
// (requiring a scheme) and then normalizes it using NormalizeURL.
// Returns the normalized string, the parsed URL object, and any parse error
func ParseAndNormalize(urlStr string) (string, *url.URL, error) {
	parsed, err := url.ParseRequestURI(urlStr) // Stricter parsing
	if err != nil {
		return "", nil, err
	}
	normalizedStr := NormalizeURL(parsed)
	return normalizedStr, parsed, nil
}
