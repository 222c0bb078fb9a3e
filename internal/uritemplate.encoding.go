package internal

import (
	"strings"
)

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isHex(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// IsUnreserved reports whether b is in the RFC 3986 unreserved set.
func IsUnreserved(b byte) bool {
	return isAlpha(b) || isDigit(b) || strings.IndexByte(CharsUnreservedPunct, b) >= 0
}

// IsReserved reports whether b is a general or sub delimiter.
func IsReserved(b byte) bool {
	return strings.IndexByte(CharsGenDelims, b) >= 0 || strings.IndexByte(CharsSubDelims, b) >= 0
}

// isPctTriplet reports whether s[i:] starts with a valid %XX triplet.
func isPctTriplet(s string, i int) bool {
	return i+2 < len(s) && s[i] == CharPercent && isHex(s[i+1]) && isHex(s[i+2])
}

// Encode percent-encodes s byte by byte (UTF-8). Unreserved characters are
// always kept. With allowReserved, reserved characters and existing %XX
// triplets are kept as well.
func Encode(s string, allowReserved bool) string {
	if !needsEncoding(s, allowReserved) {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch {
		case IsUnreserved(b):
			sb.WriteByte(b)
		case allowReserved && IsReserved(b):
			sb.WriteByte(b)
		case allowReserved && isPctTriplet(s, i):
			sb.WriteString(s[i : i+3])
			i += 2
		default:
			sb.WriteByte(CharPercent)
			sb.WriteByte(StrHexUpper[b>>4])
			sb.WriteByte(StrHexUpper[b&0x0F])
		}
	}
	return sb.String()
}

func needsEncoding(s string, allowReserved bool) bool {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if IsUnreserved(b) {
			continue
		}
		if allowReserved && IsReserved(b) {
			continue
		}
		if allowReserved && isPctTriplet(s, i) {
			i += 2
			continue
		}
		return true
	}
	return false
}

// EncodeLiteral copies literal template text, encoding only characters
// that may not appear anywhere in a URI.
func EncodeLiteral(s string) string {
	return Encode(s, true)
}

// IsURISafe reports whether s consists of unreserved and reserved
// characters and %XX triplets only.
func IsURISafe(s string) bool {
	return !needsEncoding(s, true)
}

// Truncate returns the first n characters (not bytes) of s.
func Truncate(s string, n int) string {
	if n < 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
