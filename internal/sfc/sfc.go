// Package sfc splits a single-file component into its top-level blocks.
// Block content spans verbatim from the character after ">" to the
// character before the closing tag; the compiler never re-serializes it.
package sfc

import (
	"strings"

	"github.com/ushironoko/vize/internal/logger"
)

type Block struct {
	// "template", "script", or "style"
	Type string

	// Raw attributes from the opening tag, in source order
	Attrs map[string]string

	// Recognized attributes, split out for convenience
	Lang   string
	Scoped bool
	Src    string
	Setup  bool

	Content string

	// Byte span of Content within the SFC source
	ContentStart int32
	ContentEnd   int32
}

type Descriptor struct {
	Source *logger.Source

	Template    *Block
	Script      *Block
	ScriptSetup *Block
	Styles      []*Block
}

// ParseDescriptor scans the SFC for top-level blocks. Unknown top-level
// tags are skipped; duplicate template or script blocks are diagnostics,
// with the first occurrence winning.
func ParseDescriptor(log logger.Log, source *logger.Source) *Descriptor {
	d := &Descriptor{Source: source}
	contents := source.Contents
	i := 0

	for i < len(contents) {
		lt := strings.IndexByte(contents[i:], '<')
		if lt < 0 {
			break
		}
		i += lt

		rest := contents[i:]
		var tag string
		switch {
		case strings.HasPrefix(rest, "<template"):
			tag = "template"
		case strings.HasPrefix(rest, "<script"):
			tag = "script"
		case strings.HasPrefix(rest, "<style"):
			tag = "style"
		case strings.HasPrefix(rest, "<!--"):
			end := strings.Index(rest, "-->")
			if end < 0 {
				return d
			}
			i += end + 3
			continue
		default:
			i++
			continue
		}

		block, next, ok := parseBlock(log, source, contents, i, tag)
		if !ok {
			return d
		}
		i = next

		switch tag {
		case "template":
			if d.Template != nil {
				log.AddError(logger.CodeDuplicateTemplateBlock, source,
					logger.Range{Loc: logger.Loc{Start: block.ContentStart}, Len: 0},
					"Single file component can contain only one <template> block")
				continue
			}
			d.Template = block
		case "script":
			if block.Setup {
				if d.ScriptSetup != nil {
					log.AddError(logger.CodeDuplicateScriptBlock, source,
						logger.Range{Loc: logger.Loc{Start: block.ContentStart}, Len: 0},
						"Single file component can contain only one <script setup> block")
					continue
				}
				d.ScriptSetup = block
			} else {
				if d.Script != nil {
					log.AddError(logger.CodeDuplicateScriptBlock, source,
						logger.Range{Loc: logger.Loc{Start: block.ContentStart}, Len: 0},
						"Single file component can contain only one <script> block")
					continue
				}
				d.Script = block
			}
		case "style":
			d.Styles = append(d.Styles, block)
		}
	}

	return d
}

// parseBlock reads one block starting at the "<" of its opening tag and
// returns the block plus the scan position after its closing tag.
func parseBlock(log logger.Log, source *logger.Source, contents string, start int, tag string) (*Block, int, bool) {
	openEnd := strings.IndexByte(contents[start:], '>')
	if openEnd < 0 {
		log.AddError(logger.CodeUnterminatedBlock, source,
			logger.Range{Loc: logger.Loc{Start: int32(start)}, Len: int32(len(tag) + 1)},
			"Unterminated <"+tag+"> block")
		return nil, 0, false
	}
	openEnd += start

	attrText := contents[start+1+len(tag) : openEnd]
	selfClosing := strings.HasSuffix(strings.TrimSpace(attrText), "/")

	block := &Block{
		Type:  tag,
		Attrs: parseBlockAttrs(attrText),
	}
	block.Lang = block.Attrs["lang"]
	block.Src = block.Attrs["src"]
	_, block.Scoped = block.Attrs["scoped"]
	_, block.Setup = block.Attrs["setup"]

	if selfClosing {
		block.ContentStart = int32(openEnd + 1)
		block.ContentEnd = int32(openEnd + 1)
		return block, openEnd + 1, true
	}

	contentStart := openEnd + 1
	closeTag := "</" + tag

	var contentEnd, next int
	if tag == "template" {
		// Templates may nest <template> elements, so balance them
		depth := 1
		j := contentStart
		for depth > 0 {
			closeIdx := strings.Index(contents[j:], closeTag)
			if closeIdx < 0 {
				log.AddError(logger.CodeUnterminatedBlock, source,
					logger.Range{Loc: logger.Loc{Start: int32(start)}, Len: int32(len(tag) + 1)},
					"Unterminated <"+tag+"> block")
				return nil, 0, false
			}
			openIdx := strings.Index(contents[j:], "<template")
			if openIdx >= 0 && openIdx < closeIdx {
				depth++
				j += openIdx + len("<template")
				continue
			}
			depth--
			j += closeIdx
			if depth == 0 {
				contentEnd = j
			}
			j += len(closeTag)
		}
		gt := strings.IndexByte(contents[j:], '>')
		if gt < 0 {
			next = len(contents)
		} else {
			next = j + gt + 1
		}
	} else {
		closeIdx := strings.Index(contents[contentStart:], closeTag)
		if closeIdx < 0 {
			log.AddError(logger.CodeUnterminatedBlock, source,
				logger.Range{Loc: logger.Loc{Start: int32(start)}, Len: int32(len(tag) + 1)},
				"Unterminated <"+tag+"> block")
			return nil, 0, false
		}
		contentEnd = contentStart + closeIdx
		gt := strings.IndexByte(contents[contentEnd:], '>')
		if gt < 0 {
			next = len(contents)
		} else {
			next = contentEnd + gt + 1
		}
	}

	block.Content = contents[contentStart:contentEnd]
	block.ContentStart = int32(contentStart)
	block.ContentEnd = int32(contentEnd)
	return block, next, true
}

// parseBlockAttrs scans the attribute text of a block opening tag.
func parseBlockAttrs(text string) map[string]string {
	attrs := make(map[string]string)
	i := 0
	for i < len(text) {
		for i < len(text) && isSpace(text[i]) {
			i++
		}
		if i >= len(text) || text[i] == '/' {
			break
		}

		nameStart := i
		for i < len(text) && !isSpace(text[i]) && text[i] != '=' && text[i] != '/' {
			i++
		}
		name := text[nameStart:i]
		if name == "" {
			break
		}

		for i < len(text) && isSpace(text[i]) {
			i++
		}
		if i >= len(text) || text[i] != '=' {
			attrs[name] = ""
			continue
		}
		i++
		for i < len(text) && isSpace(text[i]) {
			i++
		}
		if i < len(text) && (text[i] == '"' || text[i] == '\'') {
			quote := text[i]
			i++
			valueStart := i
			for i < len(text) && text[i] != quote {
				i++
			}
			attrs[name] = text[valueStart:i]
			if i < len(text) {
				i++
			}
		} else {
			valueStart := i
			for i < len(text) && !isSpace(text[i]) {
				i++
			}
			attrs[name] = text[valueStart:i]
		}
	}
	return attrs
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
