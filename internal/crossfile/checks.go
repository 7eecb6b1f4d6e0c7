package crossfile

import (
	"sort"
	"strings"

	"github.com/ushironoko/vize/internal/logger"
)

// Diagnostic is one cross-file finding. Offsets are byte positions in the
// primary file; related locations point at the other side of the
// relationship.
type Diagnostic struct {
	Severity logger.MsgKind
	Code     logger.MsgCode
	File     FileID
	Offset   int32
	Message  string

	Related    []RelatedLocation
	Suggestion string
}

type RelatedLocation struct {
	File        FileID
	Offset      int32
	Description string
}

// Check runs every rule over the registry and returns the findings in
// file-id then offset order.
func Check(r *Registry) []Diagnostic {
	var out []Diagnostic

	out = append(out, checkProvideInject(r)...)
	out = append(out, checkEmits(r)...)
	out = append(out, checkProps(r)...)
	out = append(out, checkCycles(r)...)
	out = append(out, checkReactivity(r)...)

	sortDiagnostics(out)
	return out
}

func sortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].File != diags[j].File {
			return diags[i].File < diags[j].File
		}
		return diags[i].Offset < diags[j].Offset
	})
}

// checkProvideInject verifies that every inject(key) has a provide(key)
// somewhere among the file's ancestors, and that every provided key is
// injected by at least one registered file.
func checkProvideInject(r *Registry) []Diagnostic {
	var out []Diagnostic

	type provideSite struct {
		file   FileID
		offset int32
	}
	provides := make(map[string][]provideSite)
	injected := make(map[string]bool)

	for _, id := range r.Files() {
		s := r.Summary(id)
		if s == nil {
			continue
		}
		for _, pi := range s.ProvideInject {
			if pi.IsProvide {
				provides[pi.Key] = append(provides[pi.Key], provideSite{id, pi.Start})
			}
		}
	}

	for _, id := range r.Files() {
		s := r.Summary(id)
		if s == nil {
			continue
		}
		for _, pi := range s.ProvideInject {
			if pi.IsProvide {
				continue
			}
			injected[pi.Key] = true

			// Any ancestor (or the file itself) providing the key matches
			sites := provides[pi.Key]
			if len(sites) == 0 {
				out = append(out, Diagnostic{
					Severity: logger.Error,
					Code:     logger.CodeUnmatchedInject,
					File:     id,
					Offset:   pi.Start,
					Message:  "inject(\"" + pi.Key + "\") has no matching provide() in any ancestor component",
				})
				continue
			}
			matched := false
			ancestors := append(r.Ancestors(id), id)
			for _, site := range sites {
				for _, ancestor := range ancestors {
					if site.file == ancestor {
						matched = true
						break
					}
				}
			}
			if !matched {
				related := []RelatedLocation{{
					File:        sites[0].file,
					Offset:      sites[0].offset,
					Description: "provided here, outside this component's ancestry",
				}}
				out = append(out, Diagnostic{
					Severity: logger.Error,
					Code:     logger.CodeUnmatchedInject,
					File:     id,
					Offset:   pi.Start,
					Message:  "inject(\"" + pi.Key + "\") is not provided by any ancestor component",
					Related:  related,
				})
			}
		}
	}

	// Unused provides are warnings
	for key, sites := range provides {
		if injected[key] {
			continue
		}
		for _, site := range sites {
			out = append(out, Diagnostic{
				Severity: logger.Warning,
				Code:     logger.CodeUnusedProvide,
				File:     site.file,
				Offset:   site.offset,
				Message:  "provide(\"" + key + "\") is never injected by any descendant",
			})
		}
	}

	return out
}

// checkEmits verifies that emit calls are declared and that declared emits
// are called.
func checkEmits(r *Registry) []Diagnostic {
	var out []Diagnostic

	for _, id := range r.Files() {
		s := r.Summary(id)
		if s == nil {
			continue
		}

		declared := make(map[string]bool)
		for _, name := range s.Emits {
			declared[name] = true
		}
		called := make(map[string]bool)

		for _, call := range s.EmitCalls {
			called[call.Name] = true
			if len(s.Emits) > 0 && !declared[call.Name] {
				out = append(out, Diagnostic{
					Severity:   logger.Error,
					Code:       logger.CodeUndeclaredEmit,
					File:       id,
					Offset:     call.Start,
					Message:    "event \"" + call.Name + "\" is emitted but not declared in defineEmits",
					Suggestion: "add \"" + call.Name + "\" to defineEmits",
				})
			}
		}

		for _, name := range s.Emits {
			if strings.HasPrefix(name, "update:") {
				// defineModel emits fire through the model helper
				continue
			}
			if !called[name] {
				out = append(out, Diagnostic{
					Severity: logger.Warning,
					Code:     logger.CodeUnusedEmit,
					File:     id,
					Offset:   0,
					Message:  "declared emit \"" + name + "\" is never called",
				})
			}
		}
	}

	return out
}

// checkProps verifies parent-child prop contracts: props passed on a child
// tag must exist on the child, and required child props must be passed.
func checkProps(r *Registry) []Diagnostic {
	var out []Diagnostic

	for _, id := range r.Files() {
		s := r.Summary(id)
		if s == nil {
			continue
		}
		for _, usage := range s.Components {
			childID, ok := r.LookupByName(usage.Name)
			if !ok {
				continue
			}
			child := r.Summary(childID)
			if child == nil || len(child.Props) == 0 {
				continue
			}

			declared := make(map[string]summaryProp)
			for _, prop := range child.Props {
				declared[prop.Name] = summaryProp{required: prop.Required}
			}

			passed := make(map[string]bool)
			for _, prop := range usage.Props {
				passed[prop.Name] = true
				if isGlobalAttr(prop.Name) {
					continue
				}
				if _, ok := declared[prop.Name]; !ok {
					out = append(out, Diagnostic{
						Severity: logger.Warning,
						Code:     logger.CodeUndeclaredProp,
						File:     id,
						Offset:   usage.Offset,
						Message: "component <" + usage.Name + "> does not declare a prop named \"" +
							prop.Name + "\"",
						Related: []RelatedLocation{{File: childID, Description: "component defined here"}},
					})
				}
			}

			for name, prop := range declared {
				if prop.required && !passed[name] {
					out = append(out, Diagnostic{
						Severity: logger.Error,
						Code:     logger.CodeMissingRequiredProp,
						File:     id,
						Offset:   usage.Offset,
						Message: "component <" + usage.Name + "> requires prop \"" + name +
							"\" but it is not passed",
						Related: []RelatedLocation{{File: childID, Description: "prop declared here"}},
					})
				}
			}
		}
	}

	return out
}

type summaryProp struct {
	required bool
}

// Attributes that fall through to the root element and never need a prop
// declaration.
func isGlobalAttr(name string) bool {
	switch name {
	case "class", "style", "id", "key", "ref":
		return true
	}
	return strings.HasPrefix(name, "data-") || strings.HasPrefix(name, "aria-")
}

func checkCycles(r *Registry) []Diagnostic {
	var out []Diagnostic
	for _, cycle := range r.Cycles() {
		names := make([]string, 0, len(cycle))
		for _, id := range cycle {
			names = append(names, r.Path(id))
		}
		out = append(out, Diagnostic{
			Severity: logger.Warning,
			Code:     logger.CodeCircularDependency,
			File:     cycle[0],
			Offset:   0,
			Message:  "circular dependency: " + strings.Join(names, " -> "),
		})
	}
	return out
}

// checkReactivity surfaces the per-file lint tables as diagnostics.
func checkReactivity(r *Registry) []Diagnostic {
	var out []Diagnostic

	for _, id := range r.Files() {
		s := r.Summary(id)
		if s == nil {
			continue
		}

		for _, escape := range s.ReactiveEscapes {
			if !escape.MutatedAfter {
				continue
			}
			out = append(out, Diagnostic{
				Severity: logger.Warning,
				Code:     logger.CodeReactiveMutatedAfterEscape,
				File:     id,
				Offset:   escape.MutateOffset,
				Message: "reactive object \"" + escape.Name +
					"\" is mutated after being passed to an external function",
				Related: []RelatedLocation{{
					File:        id,
					Offset:      escape.EscapeOffset,
					Description: "escapes here",
				}},
			})
		}

		for _, watch := range s.WatchPatterns {
			if !watch.PureCompute {
				continue
			}
			out = append(out, Diagnostic{
				Severity: logger.Hint,
				Code:     logger.CodeWatchCanBeComputed,
				File:     id,
				Offset:   watch.Offset,
				Message: "watch on \"" + watch.SourceName + "\" only assigns \"" +
					watch.TargetName + "\"; a computed expresses this directly",
				Suggestion: "const " + watch.TargetName + " = computed(() => ...)",
			})
		}

		for _, access := range s.DomAccesses {
			if access.InMountedScope {
				continue
			}
			out = append(out, Diagnostic{
				Severity: logger.Warning,
				Code:     logger.CodeDomAccessWithoutNextTick,
				File:     id,
				Offset:   access.Offset,
				Message: "\"" + access.API + "\" is accessed during setup; the DOM is not " +
					"mounted yet, wrap the access in onMounted or nextTick",
			})
		}
	}

	return out
}

// BuildEdges derives the dependency edge set from component usage: a file
// that renders a component named like another file's component gains an
// edge to it.
func BuildEdges(r *Registry) {
	for _, id := range r.Files() {
		s := r.Summary(id)
		if s == nil {
			continue
		}
		for _, usage := range s.Components {
			if childID, ok := r.LookupByName(usage.Name); ok && childID != id {
				r.AddEdge(id, childID)
			}
		}
	}
}
