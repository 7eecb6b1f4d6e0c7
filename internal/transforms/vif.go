package transforms

import (
	"github.com/ushironoko/vize/internal/logger"
	"github.com/ushironoko/vize/internal/tmplast"
)

// transformVIf lowers v-if/v-else-if/v-else into If nodes. A v-if wraps the
// element into a fresh If node with one branch; v-else-if and v-else scan
// backward over whitespace and comments for the If node to extend.
func transformVIf(ctx *Context, el *tmplast.Element, dir *tmplast.Directive, isRoot bool) {
	if isRoot {
		taken := ctx.TakeCurrentNode()
		takenEl, ok := taken.(*tmplast.Element)
		if !ok {
			return
		}

		branch := newIfBranch(ctx, takenEl, dir)
		ifNode := &tmplast.If{
			Branches: []*tmplast.IfBranch{branch},
			Loc:      takenEl.Loc,
		}
		ctx.ReplaceNode(ifNode)

		ctx.Helper(tmplast.HelperOpenBlock)
		ctx.Helper(tmplast.HelperCreateElementBlock)
		ctx.Helper(tmplast.HelperCreateCommentVNode)
		return
	}

	// Find the nearest preceding If node, skipping whitespace text and
	// comments
	children := *ctx.parent.ChildSlice()
	ifIndex := -1
	for j := ctx.childIndex - 1; j >= 0; j-- {
		if _, ok := children[j].(*tmplast.If); ok {
			ifIndex = j
			break
		}
		if tmplast.IsWhitespaceOnly(children[j]) {
			continue
		}
		break
	}

	if ifIndex < 0 {
		ctx.OnError(logger.CodeVElseNoAdjacentIf, dir.Loc,
			"v-"+dir.Name+" has no adjacent v-if or v-else-if")
		return
	}

	taken := ctx.TakeCurrentNode()
	takenEl, ok := taken.(*tmplast.Element)
	if !ok {
		return
	}

	var branch *tmplast.IfBranch
	if dir.Name == "else" {
		branch = newElseBranch(ctx, takenEl)
	} else {
		branch = newIfBranch(ctx, takenEl, dir)
	}

	if ifNode, ok := children[ifIndex].(*tmplast.If); ok {
		ifNode.Branches = append(ifNode.Branches, branch)
	}

	// Drop the placeholder left behind by TakeCurrentNode
	ctx.RemoveNode()
}

func newIfBranch(ctx *Context, el *tmplast.Element, dir *tmplast.Directive) *tmplast.IfBranch {
	var condition tmplast.Expr
	if dir.Exp != nil {
		condition = dir.Exp
		if ctx.Options.PrefixIdentifiers || ctx.Options.IsTS {
			condition = ProcessExpression(ctx, condition)
		}
	}

	branch := &tmplast.IfBranch{
		Condition:    condition,
		UserKey:      extractKeyProp(el),
		IsTemplateIf: el.Type == tmplast.ElementTemplate,
		Loc:          el.Loc,
	}
	branch.Children = []tmplast.Node{el}
	return branch
}

func newElseBranch(ctx *Context, el *tmplast.Element) *tmplast.IfBranch {
	branch := &tmplast.IfBranch{
		UserKey:      extractKeyProp(el),
		IsTemplateIf: el.Type == tmplast.ElementTemplate,
		Loc:          el.Loc,
	}
	branch.Children = []tmplast.Node{el}
	return branch
}
