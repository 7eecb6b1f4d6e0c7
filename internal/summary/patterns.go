package summary

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/ushironoko/vize/internal/jsparse"
)

// analyzeScriptPatterns derives the lint tables the cross-file checks
// consume: watch-can-be-computed candidates, DOM access inside setup, and
// reactive references escaping to unknown functions.
func analyzeScriptPatterns(s *Summary, content string, lang jsparse.Lang) {
	tree, err := jsparse.ParseProgram([]byte(content), lang)
	if err != nil {
		return
	}
	defer tree.Close()

	root := tree.Root()
	if root.HasError() {
		return
	}

	reactiveNames := make(map[string]bool)
	for _, r := range s.Reactivity {
		reactiveNames[r.Name] = true
	}

	escapes := make(map[string]*ReactiveEscape)

	jsparse.VisitNamed(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "call_expression":
			analyzeCall(s, tree, n, reactiveNames, escapes)

		case "identifier":
			name := n.Content(tree.Source)
			if name == "document" || name == "window" {
				s.DomAccesses = append(s.DomAccesses, DomAccess{
					API:            name,
					Offset:         int32(n.StartByte()),
					InMountedScope: insideMountedCallback(n, tree.Source),
				})
			}

		case "assignment_expression", "augmented_assignment_expression":
			// A member write on an escaped reactive source marks the escape
			// as mutated-after
			if left := n.ChildByFieldName("left"); left != nil && left.Type() == "member_expression" {
				if obj := rootObject(left, tree.Source); obj != "" {
					if escape, ok := escapes[obj]; ok && int32(n.StartByte()) > escape.EscapeOffset {
						escape.MutatedAfter = true
						escape.MutateOffset = int32(n.StartByte())
					}
				}
			}
		}
		return true
	})

	for _, escape := range escapes {
		s.ReactiveEscapes = append(s.ReactiveEscapes, *escape)
	}
}

var vueCallees = map[string]bool{
	"ref": true, "shallowRef": true, "reactive": true, "shallowReactive": true,
	"computed": true, "readonly": true, "watch": true, "watchEffect": true,
	"toRef": true, "toRefs": true, "unref": true, "isRef": true, "toRaw": true,
	"provide": true, "inject": true, "nextTick": true, "defineProps": true,
	"defineEmits": true, "defineExpose": true, "defineOptions": true,
	"defineSlots": true, "defineModel": true, "withDefaults": true,
	"onMounted": true, "onUnmounted": true, "onBeforeMount": true,
	"onBeforeUnmount": true, "onUpdated": true, "onBeforeUpdate": true,
	"onActivated": true, "onDeactivated": true, "useModel": true,
	"console": true,
}

func analyzeCall(s *Summary, tree *jsparse.Tree, call *sitter.Node, reactiveNames map[string]bool, escapes map[string]*ReactiveEscape) {
	callee := call.ChildByFieldName("function")
	if callee == nil {
		return
	}
	calleeName := callee.Content(tree.Source)

	if calleeName == "watch" {
		if pattern, ok := watchPatternOf(tree, call); ok {
			s.WatchPatterns = append(s.WatchPatterns, pattern)
		}
		return
	}

	// A reactive source passed to a function the compiler doesn't know
	// escapes the setup scope
	if callee.Type() == "identifier" && !vueCallees[calleeName] {
		args := call.ChildByFieldName("arguments")
		if args == nil {
			return
		}
		count := int(args.NamedChildCount())
		for i := 0; i < count; i++ {
			arg := args.NamedChild(i)
			if arg.Type() != "identifier" {
				continue
			}
			name := arg.Content(tree.Source)
			if reactiveNames[name] {
				if _, seen := escapes[name]; !seen {
					escapes[name] = &ReactiveEscape{
						Name:         name,
						EscapeOffset: int32(call.StartByte()),
					}
				}
			}
		}
	}
}

// watchPatternOf recognizes watch(src, cb) whose callback body is a single
// "target.value = f(src.value)" mutation, the shape computed() expresses
// directly.
func watchPatternOf(tree *jsparse.Tree, call *sitter.Node) (WatchPattern, bool) {
	args := call.ChildByFieldName("arguments")
	if args == nil || int(args.NamedChildCount()) < 2 {
		return WatchPattern{}, false
	}

	src := args.NamedChild(0)
	cb := args.NamedChild(1)
	if src.Type() != "identifier" {
		return WatchPattern{}, false
	}
	srcName := src.Content(tree.Source)

	if cb.Type() != "arrow_function" && cb.Type() != "function_expression" && cb.Type() != "function" {
		return WatchPattern{}, false
	}

	body := cb.ChildByFieldName("body")
	if body == nil {
		return WatchPattern{}, false
	}

	// Unwrap a single-statement block
	assign := body
	if body.Type() == "statement_block" {
		if int(body.NamedChildCount()) != 1 {
			return WatchPattern{}, false
		}
		stmt := body.NamedChild(0)
		if stmt.Type() != "expression_statement" {
			return WatchPattern{}, false
		}
		assign = stmt.NamedChild(0)
	}
	if assign == nil || assign.Type() != "assignment_expression" {
		return WatchPattern{}, false
	}

	left := assign.ChildByFieldName("left")
	right := assign.ChildByFieldName("right")
	if left == nil || right == nil || left.Type() != "member_expression" {
		return WatchPattern{}, false
	}
	leftText := left.Content(tree.Source)
	if !strings.HasSuffix(leftText, ".value") {
		return WatchPattern{}, false
	}
	targetName := strings.TrimSuffix(leftText, ".value")

	// The RHS must read the watched source and nothing suggests other side
	// effects in a single pure expression
	pure := strings.Contains(right.Content(tree.Source), srcName)

	return WatchPattern{
		SourceName:  srcName,
		TargetName:  targetName,
		Offset:      int32(call.StartByte()),
		PureCompute: pure,
	}, pure
}

func insideMountedCallback(n *sitter.Node, source []byte) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() != "call_expression" {
			continue
		}
		if callee := p.ChildByFieldName("function"); callee != nil {
			switch callee.Content(source) {
			case "onMounted", "onBeforeUnmount", "onUnmounted", "nextTick":
				return true
			}
		}
	}
	return false
}

func rootObject(member *sitter.Node, source []byte) string {
	obj := member.ChildByFieldName("object")
	for obj != nil && (obj.Type() == "member_expression" || obj.Type() == "subscript_expression") {
		obj = obj.ChildByFieldName("object")
	}
	if obj != nil && obj.Type() == "identifier" {
		return obj.Content(source)
	}
	return ""
}
