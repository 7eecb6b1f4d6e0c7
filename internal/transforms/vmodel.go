package transforms

import (
	"strings"

	"github.com/ushironoko/vize/internal/logger"
	"github.com/ushironoko/vize/internal/tmplast"
)

// lowerVModel runs at element exit. On components the directive becomes the
// :prop + @update:prop pair (plus a modifiers prop); on native elements the
// directive stays for withDirectives emission and gains the update handler.
// Dynamic arguments keep the directive so codegen can wrap the computed
// keys with normalizeProps.
func lowerVModel(ctx *Context, el *tmplast.Element) {
	isComponent := el.Type == tmplast.ElementComponent

	if !isComponent && el.Type != tmplast.ElementPlain {
		if dir := el.Directive("model"); dir != nil {
			ctx.OnError(logger.CodeVModelUnsupported, dir.Loc,
				"v-model can only be used on form elements or components")
		}
		return
	}

	// Collect first, then mutate: prop insertion shifts indices
	var models []modelData

	for i, p := range el.Props {
		dir, ok := p.(*tmplast.Directive)
		if !ok || dir.Name != "model" {
			continue
		}
		if dir.Exp == nil {
			ctx.OnError(logger.CodeVModelNoExpression, dir.Loc, "v-model is missing its expression")
			continue
		}

		propName := "modelValue"
		if !isComponent {
			propName = "value"
		}
		isDynamic := false
		if dir.Arg != nil {
			if name, static := dir.ArgIsStatic(); static {
				propName = name
			} else {
				isDynamic = true
			}
		}

		models = append(models, modelData{
			index:     i,
			dir:       dir,
			valueExp:  tmplast.ExprContent(dir.Exp),
			propName:  propName,
			isDynamic: isDynamic,
		})
	}

	if len(models) == 0 {
		return
	}

	if isComponent {
		lowerComponentVModel(ctx, el, models)
		return
	}

	// Native elements: keep the directive, insert the update handler right
	// after it so prop order stays stable
	for i := len(models) - 1; i >= 0; i-- {
		data := models[i]
		handler := "$event => ((" + data.valueExp + ") = $event)"
		eventProp := &tmplast.Directive{
			Name:    "on",
			RawName: "onUpdate:modelValue",
			Arg:     tmplast.NewSimpleExpr("update:modelValue", true, tmplast.StubLoc),
			Exp:     synthesizedHandler(handler),
			Loc:     data.dir.Loc,
		}
		el.Props = append(el.Props, nil)
		copy(el.Props[data.index+2:], el.Props[data.index+1:])
		el.Props[data.index+1] = eventProp
	}
}

type modelData struct {
	index     int
	dir       *tmplast.Directive
	valueExp  string
	propName  string
	isDynamic bool
}

func lowerComponentVModel(ctx *Context, el *tmplast.Element, models []modelData) {
	// Remove static v-model directives in reverse order to keep indices
	// valid, then append the generated props in forward order
	hasDynamic := false
	for i := len(models) - 1; i >= 0; i-- {
		if models[i].isDynamic {
			hasDynamic = true
			continue
		}
		el.Props = append(el.Props[:models[i].index], el.Props[models[i].index+1:]...)
	}

	for _, data := range models {
		if data.isDynamic {
			continue
		}

		valueProp := &tmplast.Directive{
			Name: "bind",
			Arg:  tmplast.NewSimpleExpr(data.propName, true, tmplast.StubLoc),
			Exp:  synthesizedExpr(data.valueExp),
			Loc:  data.dir.Loc,
		}
		el.Props = append(el.Props, valueProp)

		handler := "$event => ((" + data.valueExp + ") = $event)"
		eventProp := &tmplast.Directive{
			Name: "on",
			Arg:  tmplast.NewSimpleExpr("update:"+data.propName, true, tmplast.StubLoc),
			Exp:  synthesizedHandler(handler),
			Loc:  data.dir.Loc,
		}
		el.Props = append(el.Props, eventProp)

		if len(data.dir.Modifiers) > 0 {
			var mods []string
			for _, m := range data.dir.Modifiers {
				mods = append(mods, m.Content+": true")
			}
			key := data.propName + "Modifiers"
			if data.propName == "modelValue" {
				key = "modelModifiers"
			}
			modifiersProp := &tmplast.Directive{
				Name: "bind",
				Arg:  tmplast.NewSimpleExpr(key, true, tmplast.StubLoc),
				Exp:  synthesizedExpr("{ " + strings.Join(mods, ", ") + " }"),
				Loc:  tmplast.StubLoc,
			}
			el.Props = append(el.Props, modifiersProp)
		}
	}

	if hasDynamic {
		ctx.Helper(tmplast.HelperNormalizeProps)
	}
}

// synthesizedExpr marks transform-created expressions as already rewritten
// so a second rewriter pass leaves them alone.
func synthesizedExpr(content string) *tmplast.SimpleExpr {
	exp := tmplast.NewSimpleExpr(content, false, tmplast.StubLoc)
	exp.IsRefTransformed = true
	return exp
}

func synthesizedHandler(content string) *tmplast.SimpleExpr {
	exp := synthesizedExpr(content)
	exp.IsHandlerKey = true
	return exp
}
