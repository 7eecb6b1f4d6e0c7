package transforms

import (
	"strings"

	"github.com/ushironoko/vize/internal/logger"
	"github.com/ushironoko/vize/internal/tmplast"
)

// transformVFor lowers a v-for element into a For node. Recognized forms:
//
//	alias in source
//	alias of source
//	(value, key) in source
//	(value, key, index) in source
//
// The aliases go into template scope for the duration of child traversal,
// which happens back in the driver.
func transformVFor(ctx *Context, el *tmplast.Element, dir *tmplast.Directive) {
	if dir.Exp == nil {
		ctx.OnError(logger.CodeVForNoExpression, dir.Loc, "v-for is missing its expression")
		return
	}

	content := tmplast.ExprContent(dir.Exp)
	expLoc := dir.Exp.ExprLoc()

	parsed, ok := parseVForExpression(content)
	if !ok {
		ctx.OnError(logger.CodeVForMalformed, expLoc,
			"v-for expects expressions of the form \"alias in source\"")
		return
	}

	taken := ctx.TakeCurrentNode()
	takenEl, okEl := taken.(*tmplast.Element)
	if !okEl {
		return
	}

	source := tmplast.NewSimpleExpr(parsed.Source, false, expLoc)
	var sourceExpr tmplast.Expr = source
	if ctx.Options.PrefixIdentifiers || ctx.Options.IsTS {
		// The source is evaluated outside the loop scope, so the aliases
		// must not be visible yet
		sourceExpr = ProcessExpression(ctx, sourceExpr)
	}

	forNode := &tmplast.For{
		Source:      sourceExpr,
		ValueAlias:  aliasExpr(parsed.Value),
		KeyAlias:    aliasExpr(parsed.Key),
		IndexAlias:  aliasExpr(parsed.Index),
		ParseResult: parsed,
		Loc:         takenEl.Loc,
	}

	if memo := takenEl.Directive("memo"); memo != nil && memo.Exp != nil {
		forNode.Memo = memo.Exp
	}

	forNode.Children = []tmplast.Node{takenEl}
	ctx.ReplaceNode(forNode)

	ctx.Helper(tmplast.HelperRenderList)
	ctx.Helper(tmplast.HelperOpenBlock)
	ctx.Helper(tmplast.HelperCreateElementBlock)
	ctx.Helper(tmplast.HelperFragment)
}

func aliasExpr(content string) tmplast.Expr {
	if content == "" {
		return nil
	}
	return tmplast.NewSimpleExpr(content, false, tmplast.StubLoc)
}

// parseVForExpression splits the v-for body on the top-level " in " / " of "
// separator and decomposes the alias part.
func parseVForExpression(content string) (tmplast.ForParseResult, bool) {
	var aliasPart, sourcePart string
	if idx := strings.Index(content, " in "); idx >= 0 {
		aliasPart, sourcePart = content[:idx], content[idx+4:]
	} else if idx := strings.Index(content, " of "); idx >= 0 {
		aliasPart, sourcePart = content[:idx], content[idx+4:]
	} else {
		return tmplast.ForParseResult{}, false
	}

	result := tmplast.ForParseResult{Source: strings.TrimSpace(sourcePart)}
	aliasPart = strings.TrimSpace(aliasPart)
	if result.Source == "" {
		return result, false
	}

	if strings.HasPrefix(aliasPart, "(") && strings.HasSuffix(aliasPart, ")") {
		inner := aliasPart[1 : len(aliasPart)-1]
		parts := strings.Split(inner, ",")
		if len(parts) > 0 {
			result.Value = strings.TrimSpace(parts[0])
		}
		if len(parts) > 1 {
			result.Key = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			result.Index = strings.TrimSpace(parts[2])
		}
	} else {
		result.Value = aliasPart
	}

	return result, true
}
