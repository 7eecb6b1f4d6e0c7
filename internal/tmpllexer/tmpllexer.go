// Package tmpllexer tokenizes SFC template source. The lexer is pull-based:
// the parser asks for one token at a time and the lexer switches between
// text mode and tag mode as it goes. All positions are byte offsets into
// the original source so downstream spans stay exact.
package tmpllexer

import (
	"strings"
	"unicode/utf8"

	"github.com/ushironoko/vize/internal/logger"
)

type T uint8

const (
	TEndOfFile T = iota

	TText          // a raw text run
	TInterpolation // "{{ ... }}" including the delimiters
	TComment       // "<!-- ... -->"

	TTagOpenBegin  // "<div" including the name
	TAttributeName // an attribute or directive name inside an open tag
	TAttributeValue
	TTagOpenEnd   // ">"
	TTagSelfClose // "/>"
	TTagClose     // "</div>"
)

var tokenToString = []string{
	"end of file",
	"text",
	"interpolation",
	"comment",
	"open tag",
	"attribute name",
	"attribute value",
	"\">\"",
	"\"/>\"",
	"close tag",
}

func (t T) String() string {
	return tokenToString[t]
}

const eof = -1

type Options struct {
	// Interpolation delimiters, fixed per compilation. Zero value means
	// the default "{{" and "}}".
	Delimiters [2]string
}

type Lexer struct {
	log    logger.Log
	source *logger.Source

	openDelim  string
	closeDelim string

	contents  string
	current   int // index of the next byte to read
	codePoint rune
	width     int

	// Current token
	Token T
	Start int32
	End   int32

	// Token payload. For TTagOpenBegin/TTagClose this is the tag name; for
	// TAttributeName the raw name; for TAttributeValue the unquoted value;
	// for TInterpolation the expression text between the delimiters; for
	// TText/TComment the raw content.
	Text string

	// Byte span of Text within the source (excludes quotes and delimiters)
	TextStart int32
	TextEnd   int32

	// True while tokenizing inside an open tag
	inTag bool
}

func NewLexer(log logger.Log, source *logger.Source, options Options) *Lexer {
	openDelim, closeDelim := options.Delimiters[0], options.Delimiters[1]
	if openDelim == "" {
		openDelim, closeDelim = "{{", "}}"
	}
	lexer := &Lexer{
		log:        log,
		source:     source,
		contents:   source.Contents,
		openDelim:  openDelim,
		closeDelim: closeDelim,
	}
	lexer.step()
	return lexer
}

func (l *Lexer) step() {
	if l.current >= len(l.contents) {
		l.codePoint = eof
		l.width = 0
		l.current = len(l.contents)
		return
	}
	c, w := utf8.DecodeRuneInString(l.contents[l.current:])
	l.codePoint = c
	l.width = w
	l.current += w
}

// pos is the byte offset of the code point currently held in l.codePoint.
func (l *Lexer) pos() int {
	return l.current - l.width
}

func (l *Lexer) addError(code logger.MsgCode, r logger.Range, text string) {
	l.log.AddError(code, l.source, r, text)
}

func (l *Lexer) rangeFrom(start int) logger.Range {
	return logger.Range{Loc: logger.Loc{Start: int32(start)}, Len: int32(l.pos() - start)}
}

func isWhitespace(c rune) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f'
}

func isTagNameStart(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isTagNameChar(c rune) bool {
	return isTagNameStart(c) || (c >= '0' && c <= '9') || c == '-' || c == '.' || c == '_'
}

// Next advances to the next token.
func (l *Lexer) Next() {
	if l.inTag {
		l.nextInTag()
		return
	}
	l.nextInText()
}

func (l *Lexer) nextInText() {
	start := l.pos()
	l.Start = int32(start)

	switch {
	case l.codePoint == eof:
		l.Token = TEndOfFile
		l.End = int32(start)
		return

	case l.codePoint == '<':
		rest := l.contents[start:]
		switch {
		case strings.HasPrefix(rest, "<!--"):
			l.lexComment(start)
			return

		case len(rest) > 1 && rest[1] == '/':
			l.lexCloseTag(start)
			return

		case len(rest) > 1 && isTagNameStart(rune(rest[1])):
			l.lexOpenTagBegin(start)
			return
		}
		// A lone "<" is just text

	case strings.HasPrefix(l.contents[start:], l.openDelim):
		l.lexInterpolation(start)
		return
	}

	// Text run: consume until a "<" that starts a tag, end tag or comment,
	// the open delimiter, or EOF. The first code point is always part of
	// the run, and any other "<" stays inside it as text.
	l.step()
	for l.codePoint != eof {
		rest := l.contents[l.pos():]
		if l.codePoint == '<' && (strings.HasPrefix(rest, "<!--") ||
			(len(rest) > 1 && (rest[1] == '/' || isTagNameStart(rune(rest[1]))))) {
			break
		}
		if strings.HasPrefix(rest, l.openDelim) {
			break
		}
		l.step()
	}
	end := l.pos()
	l.Token = TText
	l.End = int32(end)
	l.Text = l.contents[start:end]
	l.TextStart = int32(start)
	l.TextEnd = int32(end)
}

func (l *Lexer) lexComment(start int) {
	// Skip "<!--"
	for i := 0; i < 4; i++ {
		l.step()
	}
	textStart := l.pos()
	idx := strings.Index(l.contents[textStart:], "-->")
	if idx < 0 {
		l.addError(logger.CodeUnterminatedComment,
			logger.Range{Loc: logger.Loc{Start: int32(start)}, Len: 4},
			"Unterminated comment")
		// Recover by treating the rest of the file as the comment body
		l.current = len(l.contents)
		l.step()
		l.Token = TComment
		l.Start = int32(start)
		l.End = int32(len(l.contents))
		l.Text = l.contents[textStart:]
		l.TextStart = int32(textStart)
		l.TextEnd = int32(len(l.contents))
		return
	}
	textEnd := textStart + idx
	l.current = textEnd + len("-->")
	l.step()
	l.Token = TComment
	l.Start = int32(start)
	l.End = int32(textEnd + 3)
	l.Text = l.contents[textStart:textEnd]
	l.TextStart = int32(textStart)
	l.TextEnd = int32(textEnd)
}

func (l *Lexer) lexInterpolation(start int) {
	exprStart := start + len(l.openDelim)
	idx := strings.Index(l.contents[exprStart:], l.closeDelim)
	if idx < 0 {
		l.addError(logger.CodeUnterminatedInterpolate,
			logger.Range{Loc: logger.Loc{Start: int32(start)}, Len: int32(len(l.openDelim))},
			"Interpolation is missing its closing \""+l.closeDelim+"\"")
		l.current = len(l.contents)
		l.step()
		l.Token = TInterpolation
		l.Start = int32(start)
		l.End = int32(len(l.contents))
		l.Text = l.contents[exprStart:]
		l.TextStart = int32(exprStart)
		l.TextEnd = int32(len(l.contents))
		return
	}
	exprEnd := exprStart + idx
	l.current = exprEnd + len(l.closeDelim)
	l.step()
	l.Token = TInterpolation
	l.Start = int32(start)
	l.End = int32(exprEnd + len(l.closeDelim))
	l.Text = l.contents[exprStart:exprEnd]
	l.TextStart = int32(exprStart)
	l.TextEnd = int32(exprEnd)
}

func (l *Lexer) lexOpenTagBegin(start int) {
	// Skip "<"
	l.step()
	nameStart := l.pos()
	for isTagNameChar(l.codePoint) {
		l.step()
	}
	nameEnd := l.pos()
	l.Token = TTagOpenBegin
	l.Start = int32(start)
	l.End = int32(nameEnd)
	l.Text = l.contents[nameStart:nameEnd]
	l.TextStart = int32(nameStart)
	l.TextEnd = int32(nameEnd)
	l.inTag = true
}

func (l *Lexer) lexCloseTag(start int) {
	// Skip "</"
	l.step()
	l.step()
	nameStart := l.pos()
	for isTagNameChar(l.codePoint) {
		l.step()
	}
	nameEnd := l.pos()
	for isWhitespace(l.codePoint) {
		l.step()
	}
	if l.codePoint == '>' {
		l.step()
	} else {
		l.addError(logger.CodeInvalidEndTag, l.rangeFrom(start), "Invalid end tag")
	}
	l.Token = TTagClose
	l.Start = int32(start)
	l.End = int32(l.pos())
	l.Text = l.contents[nameStart:nameEnd]
	l.TextStart = int32(nameStart)
	l.TextEnd = int32(nameEnd)
}

func (l *Lexer) nextInTag() {
	for isWhitespace(l.codePoint) {
		l.step()
	}
	start := l.pos()
	l.Start = int32(start)

	switch l.codePoint {
	case eof:
		l.addError(logger.CodeUnclosedTag, l.rangeFrom(start), "Unexpected end of file inside a tag")
		l.Token = TEndOfFile
		l.End = int32(start)
		l.inTag = false
		return

	case '>':
		l.step()
		l.Token = TTagOpenEnd
		l.End = int32(l.pos())
		l.inTag = false
		return

	case '/':
		l.step()
		if l.codePoint == '>' {
			l.step()
			l.Token = TTagSelfClose
			l.End = int32(l.pos())
			l.inTag = false
			return
		}
		// Stray "/" inside a tag; skip it
		l.Next()
		return

	case '=':
		l.step()
		l.lexAttributeValue()
		return
	}

	// Attribute (or directive) name: everything up to whitespace, "=", "/"
	// or ">". Directive syntax characters (":@#.[]") are part of the name.
	for l.codePoint != eof && !isWhitespace(l.codePoint) &&
		l.codePoint != '=' && l.codePoint != '>' &&
		!(l.codePoint == '/' && strings.HasPrefix(l.contents[l.pos():], "/>")) {
		l.step()
	}
	end := l.pos()
	if end == start {
		// Not a name character at all; skip one to guarantee progress
		l.step()
		l.Next()
		return
	}
	l.Token = TAttributeName
	l.End = int32(end)
	l.Text = l.contents[start:end]
	l.TextStart = int32(start)
	l.TextEnd = int32(end)
}

func (l *Lexer) lexAttributeValue() {
	for isWhitespace(l.codePoint) {
		l.step()
	}
	start := l.pos()
	l.Start = int32(start)

	if l.codePoint == '"' || l.codePoint == '\'' {
		quote := l.codePoint
		l.step()
		valueStart := l.pos()
		for l.codePoint != quote {
			if l.codePoint == eof {
				l.addError(logger.CodeUnterminatedString,
					logger.Range{Loc: logger.Loc{Start: int32(start)}, Len: 1},
					"Unterminated string literal")
				l.Token = TAttributeValue
				l.End = int32(l.pos())
				l.Text = l.contents[valueStart:l.pos()]
				l.TextStart = int32(valueStart)
				l.TextEnd = int32(l.pos())
				return
			}
			l.step()
		}
		valueEnd := l.pos()
		l.step() // closing quote
		l.Token = TAttributeValue
		l.End = int32(l.pos())
		l.Text = l.contents[valueStart:valueEnd]
		l.TextStart = int32(valueStart)
		l.TextEnd = int32(valueEnd)
		return
	}

	// Unquoted value
	for l.codePoint != eof && !isWhitespace(l.codePoint) && l.codePoint != '>' &&
		!(l.codePoint == '/' && strings.HasPrefix(l.contents[l.pos():], "/>")) {
		l.step()
	}
	end := l.pos()
	l.Token = TAttributeValue
	l.End = int32(end)
	l.Text = l.contents[start:end]
	l.TextStart = int32(start)
	l.TextEnd = int32(end)
}
