package tmplparser

// The fixed set of native HTML element names consulted once per tag at
// parse time. Anything not in this table (and not "template"/"slot") is
// treated as a component.
var nativeTags = map[string]bool{
	"a": true, "abbr": true, "address": true, "area": true, "article": true,
	"aside": true, "audio": true, "b": true, "base": true, "bdi": true,
	"bdo": true, "blockquote": true, "body": true, "br": true, "button": true,
	"canvas": true, "caption": true, "cite": true, "code": true, "col": true,
	"colgroup": true, "data": true, "datalist": true, "dd": true, "del": true,
	"details": true, "dfn": true, "dialog": true, "div": true, "dl": true,
	"dt": true, "em": true, "embed": true, "fieldset": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "head": true,
	"header": true, "hgroup": true, "hr": true, "html": true, "i": true,
	"iframe": true, "img": true, "input": true, "ins": true, "kbd": true,
	"label": true, "legend": true, "li": true, "link": true, "main": true,
	"map": true, "mark": true, "menu": true, "meta": true, "meter": true,
	"nav": true, "noscript": true, "object": true, "ol": true, "optgroup": true,
	"option": true, "output": true, "p": true, "picture": true, "pre": true,
	"progress": true, "q": true, "rp": true, "rt": true, "ruby": true,
	"s": true, "samp": true, "script": true, "section": true, "select": true,
	"small": true, "source": true, "span": true, "strong": true, "style": true,
	"sub": true, "summary": true, "sup": true, "table": true, "tbody": true,
	"td": true, "textarea": true, "tfoot": true, "th": true, "thead": true,
	"time": true, "title": true, "tr": true, "track": true, "u": true,
	"ul": true, "var": true, "video": true, "wbr": true,

	// Common SVG elements appear in templates often enough to classify here
	"svg": true, "path": true, "circle": true, "ellipse": true, "line": true,
	"polygon": true, "polyline": true, "rect": true, "g": true, "defs": true,
	"use": true, "text": true, "tspan": true,
}

// Void elements never have children and don't need a closing tag.
var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

func IsNativeTag(tag string) bool {
	return nativeTags[tag]
}

func IsVoidTag(tag string) bool {
	return voidTags[tag]
}
