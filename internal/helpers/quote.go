package helpers

import "unicode/utf8"

const hexChars = "0123456789ABCDEF"
const firstASCII = 0x20
const lastASCII = 0x7E
const firstHighSurrogate = 0xD800
const lastLowSurrogate = 0xDFFF

func canPrintWithoutEscape(c rune, quoteChar byte) bool {
	if c <= lastASCII {
		return c >= firstASCII && c != '\\' && c != rune(quoteChar)
	}
	return c != '\uFEFF' && (c < firstHighSurrogate || c > lastLowSurrogate)
}

// QuoteSingle returns text as a single-quoted JavaScript string literal.
func QuoteSingle(text string) string {
	return internalQuote(text, '\'')
}

// QuoteDouble returns text as a double-quoted JavaScript string literal. The
// output is also valid JSON.
func QuoteDouble(text string) string {
	return internalQuote(text, '"')
}

func internalQuote(text string, quoteChar byte) string {
	b := make([]byte, 0, len(text)+2)
	b = append(b, quoteChar)

	for i, width := 0, 0; i < len(text); i += width {
		c, w := utf8.DecodeRuneInString(text[i:])
		width = w

		if canPrintWithoutEscape(c, quoteChar) {
			b = append(b, text[i:i+width]...)
			continue
		}

		switch c {
		case '\b':
			b = append(b, '\\', 'b')
		case '\f':
			b = append(b, '\\', 'f')
		case '\n':
			b = append(b, '\\', 'n')
		case '\r':
			b = append(b, '\\', 'r')
		case '\t':
			b = append(b, '\\', 't')
		case '\\':
			b = append(b, '\\', '\\')
		case rune(quoteChar):
			b = append(b, '\\', quoteChar)
		default:
			if c <= 0xFFFF {
				b = append(b,
					'\\', 'u', hexChars[c>>12], hexChars[(c>>8)&15], hexChars[(c>>4)&15], hexChars[c&15])
			} else {
				// Encode as a surrogate pair so the output stays valid JSON
				c -= 0x10000
				lo := rune(0xD800 + ((c >> 10) & 0x3FF))
				hi := rune(0xDC00 + (c & 0x3FF))
				b = append(b,
					'\\', 'u', hexChars[lo>>12], hexChars[(lo>>8)&15], hexChars[(lo>>4)&15], hexChars[lo&15],
					'\\', 'u', hexChars[hi>>12], hexChars[(hi>>8)&15], hexChars[(hi>>4)&15], hexChars[hi&15])
			}
		}
	}

	return string(append(b, quoteChar))
}
