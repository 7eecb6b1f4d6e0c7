// Package tmplparser builds the template AST from SFC template source.
//
// Parsing fails soft: malformed fragments produce diagnostics on the log
// and a best-effort AST is always returned so editor tooling keeps working
// on broken input. Expressions are captured as raw source substrings;
// parsing them into JS ASTs is deferred to the expression rewriter.
package tmplparser

import (
	"strings"

	"github.com/ushironoko/vize/internal/logger"
	"github.com/ushironoko/vize/internal/tmplast"
	"github.com/ushironoko/vize/internal/tmpllexer"
)

type Options struct {
	Delimiters [2]string
}

type parser struct {
	log     logger.Log
	source  *logger.Source
	lexer   *tmpllexer.Lexer
	options Options
}

// Parse tokenizes and parses the template, returning the root node. Errors
// are appended to log; the returned tree is always usable.
func Parse(log logger.Log, source *logger.Source, options Options) *tmplast.Root {
	p := &parser{
		log:     log,
		source:  source,
		lexer:   tmpllexer.NewLexer(log, source, tmpllexer.Options{Delimiters: options.Delimiters}),
		options: options,
	}
	p.lexer.Next()
	children := p.parseChildren("")
	return &tmplast.Root{
		Children: children,
		Loc:      p.loc(0, int32(len(source.Contents))),
	}
}

func (p *parser) loc(start int32, end int32) tmplast.Loc {
	return tmplast.Loc{Start: start, End: end, Source: p.source.Contents[start:end]}
}

func (p *parser) tokenLoc() tmplast.Loc {
	return p.loc(p.lexer.Start, p.lexer.End)
}

func (p *parser) textLoc() tmplast.Loc {
	return p.loc(p.lexer.TextStart, p.lexer.TextEnd)
}

func (p *parser) addError(code logger.MsgCode, loc tmplast.Loc, text string) {
	p.log.AddError(code, p.source, logger.Range{
		Loc: logger.Loc{Start: loc.Start},
		Len: loc.End - loc.Start,
	}, text)
}

// parseChildren consumes nodes until the matching close tag (or EOF when
// closeTag is empty). Whitespace-only text runs between tags are dropped,
// matching the condensed whitespace strategy.
func (p *parser) parseChildren(closeTag string) []tmplast.Node {
	var children []tmplast.Node

	for {
		switch p.lexer.Token {
		case tmpllexer.TEndOfFile:
			return children

		case tmpllexer.TText:
			if strings.TrimSpace(p.lexer.Text) != "" {
				children = append(children, &tmplast.Text{
					Content: p.lexer.Text,
					Loc:     p.tokenLoc(),
				})
			}
			p.lexer.Next()

		case tmpllexer.TInterpolation:
			content := tmplast.NewSimpleExpr(strings.TrimSpace(p.lexer.Text), false, p.textLoc())
			children = append(children, &tmplast.Interpolation{
				Content: content,
				Loc:     p.tokenLoc(),
			})
			p.lexer.Next()

		case tmpllexer.TComment:
			children = append(children, &tmplast.Comment{
				Content: p.lexer.Text,
				Loc:     p.tokenLoc(),
			})
			p.lexer.Next()

		case tmpllexer.TTagClose:
			if p.lexer.Text == closeTag {
				return children
			}
			// A close tag for something that isn't open. Report it and skip
			// so parsing can continue.
			p.addError(logger.CodeInvalidEndTag, p.tokenLoc(),
				"Unexpected closing tag \"</"+p.lexer.Text+">\"")
			p.lexer.Next()

		case tmpllexer.TTagOpenBegin:
			children = append(children, p.parseElement())

		default:
			// Attribute tokens outside a tag mean the lexer already
			// reported the problem; just skip
			p.lexer.Next()
		}
	}
}

func (p *parser) parseElement() tmplast.Node {
	start := p.lexer.Start
	tag := p.lexer.Text
	tagLoc := p.tokenLoc()
	p.lexer.Next()

	el := &tmplast.Element{
		Tag:               tag,
		Type:              classifyTag(tag),
		HoistedIndex:      -1,
		HoistedPropsIndex: -1,
	}

	// Parse attributes and directives until the tag ends
	seenAttrs := make(map[string]bool)
	selfClosing := false

attrs:
	for {
		switch p.lexer.Token {
		case tmpllexer.TTagOpenEnd:
			p.lexer.Next()
			break attrs

		case tmpllexer.TTagSelfClose:
			selfClosing = true
			p.lexer.Next()
			break attrs

		case tmpllexer.TEndOfFile:
			// The lexer already reported the unclosed tag
			el.Loc = p.loc(start, int32(len(p.source.Contents)))
			return el

		case tmpllexer.TAttributeName:
			p.parseProp(el, seenAttrs)

		default:
			p.lexer.Next()
		}
	}

	el.SelfClosing = selfClosing

	if selfClosing || IsVoidTag(tag) {
		el.Loc = p.loc(start, p.lexer.Start)
		p.checkStructuralConflicts(el)
		return el
	}

	el.Children = p.parseChildren(tag)

	if p.lexer.Token == tmpllexer.TTagClose && p.lexer.Text == tag {
		el.Loc = p.loc(start, p.lexer.End)
		p.lexer.Next()
	} else {
		p.addError(logger.CodeUnclosedTag, tagLoc, "Element <"+tag+"> is never closed")
		el.Loc = p.loc(start, p.lexer.Start)
	}

	p.checkStructuralConflicts(el)
	return el
}

// parseProp reads one attribute-name token (plus its optional value) and
// appends either a plain attribute or a directive to the element.
func (p *parser) parseProp(el *tmplast.Element, seenAttrs map[string]bool) {
	rawName := p.lexer.Text
	nameLoc := p.textLoc()
	propStart := p.lexer.Start
	p.lexer.Next()

	var value *tmplast.AttributeValue
	if p.lexer.Token == tmpllexer.TAttributeValue {
		value = &tmplast.AttributeValue{
			Content: p.lexer.Text,
			Loc:     p.textLoc(),
		}
		p.lexer.Next()
	}

	propEnd := nameLoc.End
	if value != nil {
		propEnd = value.Loc.End
	}
	propLoc := p.loc(propStart, propEnd)

	if isDirectiveName(rawName) {
		dir := p.parseDirective(rawName, nameLoc, value, propLoc)
		if dir != nil {
			el.Props = append(el.Props, dir)
		}
		return
	}

	if seenAttrs[rawName] {
		p.addError(logger.CodeDuplicateAttribute, nameLoc,
			"Duplicate attribute \""+rawName+"\"")
	}
	seenAttrs[rawName] = true

	el.Props = append(el.Props, &tmplast.Attribute{
		Name:    rawName,
		NameLoc: nameLoc,
		Value:   value,
		Loc:     propLoc,
	})
}

func isDirectiveName(name string) bool {
	if name == "" {
		return false
	}
	switch name[0] {
	case ':', '@', '#', '.':
		return true
	}
	return strings.HasPrefix(name, "v-")
}

// parseDirective decomposes a raw attribute name of the form
// "v-name:arg.mod1.mod2", "@event", ":prop", ".prop", or "#slot" into a
// directive node. The argument may be dynamic ("[expr]").
func (p *parser) parseDirective(rawName string, nameLoc tmplast.Loc, value *tmplast.AttributeValue, propLoc tmplast.Loc) *tmplast.Directive {
	dir := &tmplast.Directive{
		RawName: rawName,
		Loc:     propLoc,
	}

	rest := rawName
	argOffset := nameLoc.Start

	switch {
	case strings.HasPrefix(rawName, "v-"):
		rest = rawName[2:]
		argOffset += 2
		if rest == "" {
			p.addError(logger.CodeMalformedDirective, nameLoc, "Directive name is missing")
			return nil
		}
		if idx := indexOfArgSeparator(rest); idx >= 0 {
			dir.Name = rest[:idx]
			rest = rest[idx+1:]
			argOffset += int32(idx) + 1
		} else {
			// No argument; modifiers may still follow
			name, mods := splitModifiers(rest)
			dir.Name = name
			p.appendModifiers(dir, mods, argOffset+int32(len(name)))
			rest = ""
		}

	case rawName[0] == ':':
		dir.Name = "bind"
		rest = rawName[1:]
		argOffset++

	case rawName[0] == '@':
		dir.Name = "on"
		rest = rawName[1:]
		argOffset++

	case rawName[0] == '#':
		dir.Name = "slot"
		rest = rawName[1:]
		argOffset++

	case rawName[0] == '.':
		// ".prop" shorthand is v-bind with the prop modifier
		dir.Name = "bind"
		rest = rawName[1:]
		argOffset++
		defer func() {
			dir.Modifiers = append(dir.Modifiers, tmplast.Modifier{Content: "prop", Loc: tmplast.StubLoc})
		}()
	}

	if rest != "" {
		argText, mods := splitModifiers(rest)
		if argText != "" {
			if strings.HasPrefix(argText, "[") {
				if !strings.HasSuffix(argText, "]") {
					p.addError(logger.CodeMalformedDirective, nameLoc,
						"Dynamic argument is missing its closing \"]\"")
					return dir
				}
				inner := argText[1 : len(argText)-1]
				argLoc := p.loc(argOffset+1, argOffset+1+int32(len(inner)))
				dir.Arg = tmplast.NewSimpleExpr(inner, false, argLoc)
			} else {
				argLoc := p.loc(argOffset, argOffset+int32(len(argText)))
				dir.Arg = tmplast.NewSimpleExpr(argText, true, argLoc)
			}
		}
		p.appendModifiers(dir, mods, argOffset+int32(len(argText)))
	}

	if value != nil {
		dir.Exp = tmplast.NewSimpleExpr(value.Content, false, value.Loc)
	}

	if dir.Name == "" {
		p.addError(logger.CodeMalformedDirective, nameLoc, "Directive name is missing")
		return nil
	}

	return dir
}

// indexOfArgSeparator finds the ":" that separates the directive name from
// its argument, ignoring colons inside a dynamic "[...]" argument.
func indexOfArgSeparator(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		case ':':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitModifiers splits "arg.mod1.mod2" into the argument text and the
// modifier list. Dots inside a dynamic "[...]" argument are not modifiers.
func splitModifiers(s string) (string, []string) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		case '.':
			if depth == 0 {
				return s[:i], strings.Split(s[i+1:], ".")
			}
		}
	}
	return s, nil
}

func (p *parser) appendModifiers(dir *tmplast.Directive, mods []string, offset int32) {
	for _, m := range mods {
		offset++ // the "." separator
		if m == "" {
			continue
		}
		dir.Modifiers = append(dir.Modifiers, tmplast.Modifier{
			Content: m,
			Loc:     p.loc(offset, offset+int32(len(m))),
		})
		offset += int32(len(m))
	}
}

// checkStructuralConflicts reports directive combinations the compiler
// refuses at parse time.
func (p *parser) checkStructuralConflicts(el *tmplast.Element) {
	if vif := el.Directive("if"); vif != nil {
		if vfor := el.Directive("for"); vfor != nil {
			p.addError(logger.CodeVIfWithVFor, vif.Loc,
				"v-if and v-for cannot be used on the same element because v-for has higher priority")
		}
	}
	if vslot := el.Directive("slot"); vslot != nil {
		if el.Type != tmplast.ElementComponent && el.Type != tmplast.ElementTemplate {
			p.addError(logger.CodeVSlotMisplaced, vslot.Loc,
				"v-slot can only be used on components or <template>")
		}
	}
}

func classifyTag(tag string) tmplast.ElementType {
	switch {
	case tag == "template":
		return tmplast.ElementTemplate
	case tag == "slot":
		return tmplast.ElementSlot
	case IsNativeTag(tag):
		return tmplast.ElementPlain
	default:
		return tmplast.ElementComponent
	}
}
