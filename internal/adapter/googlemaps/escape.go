package googlemaps

import "strings"

const upperhex = "0123456789ABCDEF"

// uriSafe reports whether c may appear unescaped in a URI under the RFC 2396
// rules Google's URL signing examples are built with: alphanumerics, the
// marks -_.!~*'() and the reserved set ;/?:@&=+$,[].
func uriSafe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'();/?:@&=+$,[]", c) >= 0
}

// uriEscape percent-encodes every byte of s that is not URI-safe. Existing
// %XX escapes are kept so an already-encoded URL passes through unchanged.
func uriEscape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]):
			b.WriteByte(c)
		case uriSafe(c):
			b.WriteByte(c)
		default:
			writeEscaped(&b, c)
		}
	}
	return b.String()
}

// queryValueEscape encodes a single query parameter value. It escapes what
// uriEscape would plus the query delimiters, so the result is a fixed point of
// uriEscape and the signed string equals the sent string.
func queryValueEscape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if uriSafe(c) && strings.IndexByte("&=+#", c) < 0 {
			b.WriteByte(c)
			continue
		}
		writeEscaped(&b, c)
	}
	return b.String()
}

func writeEscaped(b *strings.Builder, c byte) {
	b.WriteByte('%')
	b.WriteByte(upperhex[c>>4])
	b.WriteByte(upperhex[c&15])
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}
