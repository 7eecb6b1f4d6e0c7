package api

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/ushironoko/vize/internal/arena"
	"github.com/ushironoko/vize/internal/codegen"
	"github.com/ushironoko/vize/internal/crossfile"
	"github.com/ushironoko/vize/internal/jsparse"
	"github.com/ushironoko/vize/internal/logger"
	"github.com/ushironoko/vize/internal/script"
	"github.com/ushironoko/vize/internal/sfc"
	"github.com/ushironoko/vize/internal/summary"
	"github.com/ushironoko/vize/internal/tmplast"
	"github.com/ushironoko/vize/internal/tmplparser"
	"github.com/ushironoko/vize/internal/transforms"
)

// CompileTemplate compiles template source (not a whole SFC) into a render
// function. One compilation owns one arena and one deferred log; the arena
// is dropped when the result is returned.
func CompileTemplate(source string, options Options) Result {
	log := logger.NewDeferLog()
	src := &logger.Source{PrettyPath: "<template>", Contents: source}

	a := arena.New()
	defer a.Reset()

	root := tmplparser.Parse(log, src, tmplparser.Options{Delimiters: options.Delimiters})
	transforms.Transform(a, log, src, root, transformOptions(options))
	result := codegen.Generate(root, codegenOptions(options))

	// The helper set recorded on the root is the set the emitted code
	// references
	root.Helpers = result.Helpers

	return Result{
		Code:     result.Code,
		Bindings: options.BindingMetadata,
		Helpers:  helperNames(result.Helpers),
		Messages: log.Done(),
	}
}

// CompileSFC compiles a whole single-file component into a JavaScript
// module: block splitting, script analysis, template transform, code
// generation, and module assembly.
func CompileSFC(filename string, source string, options Options) Result {
	log := logger.NewDeferLog()
	src := &logger.Source{PrettyPath: filename, Contents: source}

	a := arena.New()
	defer a.Reset()

	descriptor := sfc.ParseDescriptor(log, src)

	name := options.ComponentName
	if name == "" {
		name = componentNameFromFile(filename)
	}

	// Script analysis first: the template transform needs the bindings
	var analysis *script.Analysis
	scriptContent := ""
	lang := jsparse.LangJS
	if descriptor.ScriptSetup != nil {
		scriptContent = descriptor.ScriptSetup.Content
		if descriptor.ScriptSetup.Lang == "ts" {
			lang = jsparse.LangTS
		}
		analysis = script.Analyze(log, src, scriptContent, lang, descriptor.ScriptSetup.ContentStart)
	}

	bindings := options.BindingMetadata
	if bindings == nil && analysis != nil {
		bindings = analysis.Bindings
	}

	isTS := options.IsTS || lang == jsparse.LangTS

	scopeID := options.ScopeID
	if scopeID == "" && hasScopedStyle(descriptor) {
		scopeID = scopeIDFor(filename)
	}

	// Template pipeline
	var tplResult codegen.Result
	if descriptor.Template != nil {
		tplSrc := &logger.Source{PrettyPath: filename, Contents: descriptor.Template.Content}
		root := tmplparser.Parse(log, tplSrc, tmplparser.Options{Delimiters: options.Delimiters})

		topts := transformOptions(options)
		topts.BindingMetadata = bindings
		topts.IsTS = isTS
		topts.ScopeID = scopeID
		if analysis != nil {
			// Compiling against a script block implies the optimized mode
			topts.PrefixIdentifiers = true
			topts.Inline = options.Inline
		}
		transforms.Transform(a, log, tplSrc, root, topts)

		copts := codegenOptions(options)
		copts.BindingMetadata = bindings
		copts.ScopeID = scopeID
		if analysis != nil {
			copts.PrefixIdentifiers = true
		}
		tplResult = codegen.Generate(root, copts)
		root.Helpers = tplResult.Helpers
	}

	// No script setup: emit the render module alone
	if analysis == nil {
		return Result{
			Code:     tplResult.Code,
			Bindings: bindings,
			Helpers:  helperNames(tplResult.Helpers),
			Messages: log.Done(),
		}
	}

	compiled := script.CompileSetup(analysis, scriptContent, lang, script.TemplateParts{
		Imports:    tplResult.Imports,
		Hoists:     tplResult.Hoists,
		RenderBody: tplResult.RenderBody,
	}, script.CompileOptions{
		ComponentName: name,
		IsTS:          isTS,
		Inline:        options.Inline,
		ScopeID:       scopeID,
	})

	code := compiled.Code
	if !options.Inline && descriptor.Template != nil {
		// Function mode: the render function rides alongside the default
		// export and reads $setup
		code = attachRenderFunction(code, tplResult.RenderBody)
	}

	return Result{
		Code:     code,
		Bindings: compiled.Bindings,
		Helpers:  helperNames(tplResult.Helpers),
		Messages: log.Done(),
	}
}

// AnalyzeSFC produces the Summary for one SFC without generating code.
func AnalyzeSFC(filename string, source string) (*summary.Summary, []logger.Msg) {
	log := logger.NewDeferLog()
	src := &logger.Source{PrettyPath: filename, Contents: source}

	descriptor := sfc.ParseDescriptor(log, src)

	var analysis *script.Analysis
	scriptContent := ""
	lang := jsparse.LangJS
	if descriptor.ScriptSetup != nil {
		scriptContent = descriptor.ScriptSetup.Content
		if descriptor.ScriptSetup.Lang == "ts" {
			lang = jsparse.LangTS
		}
		analysis = script.Analyze(log, src, scriptContent, lang, descriptor.ScriptSetup.ContentStart)
	}

	var root *tmplast.Root
	if descriptor.Template != nil {
		tplSrc := &logger.Source{PrettyPath: filename, Contents: descriptor.Template.Content}
		root = tmplparser.Parse(log, tplSrc, tmplparser.Options{})
	}

	s := summary.Build(componentNameFromFile(filename), analysis, scriptContent, lang, root)

	// Undefined references become diagnostics here so single-file analysis
	// surfaces them without the cross-file pass
	for _, ref := range s.UndefinedRefs {
		log.AddMsg(logger.Msg{
			Kind: logger.Warning,
			Code: logger.CodeUndefinedReference,
			Data: logger.MsgData{
				Text: "\"" + ref.Name + "\" is used in the template (" + ref.Context +
					") but never declared",
			},
		})
	}

	return s, log.Done()
}

// CheckProject analyzes every file and runs the cross-file checks over the
// dependency graph derived from component usage.
func CheckProject(files map[string]string) []logger.Msg {
	log := logger.NewDeferLog()
	registry := crossfile.NewRegistry()

	// Deterministic registration order
	var paths []string
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		s, msgs := AnalyzeSFC(path, files[path])
		for _, msg := range msgs {
			log.AddMsg(msg)
		}
		registry.Register(path, s)
	}

	crossfile.BuildEdges(registry)

	for _, d := range crossfile.Check(registry) {
		msg := logger.Msg{
			Kind: d.Severity,
			Code: d.Code,
			Data: logger.MsgData{
				Text: d.Message,
				Location: &logger.MsgLocation{
					File:       registry.Path(d.File),
					Suggestion: d.Suggestion,
				},
			},
		}
		for _, rel := range d.Related {
			msg.Notes = append(msg.Notes, logger.MsgData{
				Text:     rel.Description,
				Location: &logger.MsgLocation{File: registry.Path(rel.File)},
			})
		}
		log.AddMsg(msg)
	}

	return log.Done()
}

func transformOptions(options Options) transforms.Options {
	return transforms.Options{
		PrefixIdentifiers: options.PrefixIdentifiers,
		Inline:            options.Inline,
		CacheHandlers:     options.CacheHandlers,
		HoistStatic:       options.HoistStatic,
		IsTS:              options.IsTS,
		ScopeID:           options.ScopeID,
		BindingMetadata:   options.BindingMetadata,
	}
}

func codegenOptions(options Options) codegen.Options {
	mode := codegen.ModuleMode
	if options.Mode == ModeFunction {
		mode = codegen.FunctionMode
	}
	return codegen.Options{
		Mode:              mode,
		Inline:            options.Inline,
		PrefixIdentifiers: options.PrefixIdentifiers,
		CacheHandlers:     options.CacheHandlers,
		ScopeID:           options.ScopeID,
		RuntimeModuleName: options.RuntimeModuleName,
		BindingMetadata:   options.BindingMetadata,
	}
}

func helperNames(hs []tmplast.RuntimeHelper) []string {
	var names []string
	for _, h := range hs {
		names = append(names, h.Name())
	}
	return names
}

func componentNameFromFile(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func hasScopedStyle(descriptor *sfc.Descriptor) bool {
	for _, style := range descriptor.Styles {
		if style.Scoped {
			return true
		}
	}
	return false
}

// scopeIDFor derives a stable scoped-style id from the file path. The hash
// is the usual FNV-1a, matching what the style pipeline stamps on
// selectors.
func scopeIDFor(filename string) string {
	const offsetBasis = 2166136261
	const prime = 16777619
	hash := uint32(offsetBasis)
	for i := 0; i < len(filename); i++ {
		hash ^= uint32(filename[i])
		hash *= prime
	}
	const digits = "0123456789abcdef"
	var b [8]byte
	for i := 7; i >= 0; i-- {
		b[i] = digits[hash&0xF]
		hash >>= 4
	}
	return "data-v-" + string(b[:])
}

// attachRenderFunction appends the function-mode render next to the export
// and wires it into the exported object.
func attachRenderFunction(moduleCode string, renderBody string) string {
	var sb strings.Builder
	sb.WriteString(moduleCode)
	sb.WriteString("\nexport function render(_ctx, _cache, $props, $setup, $data, $options) {\n")
	sb.WriteString(renderBody)
	sb.WriteString("\n}\n")
	return sb.String()
}

