package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ushironoko/vize/internal/logger"
	"github.com/ushironoko/vize/pkg/api"
)

var rootCmd = &cobra.Command{
	Use:   "vize",
	Short: "Compiler and analyzer for single-file components",
	Long: `vize compiles single-file components into JavaScript modules for the
companion virtual-DOM runtime, and runs single-file and cross-file
analysis for editor tooling.`,
	SilenceUsage: true,
}

var (
	flagInline  bool
	flagFnMode  bool
	flagHoist   bool
	flagCache   bool
	flagScopeID string
	flagRuntime string
	flagOutDir  string
	flagVerbose bool
)

var buildCmd = &cobra.Command{
	Use:   "build [files...]",
	Short: "Compile SFC files to JavaScript modules",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configureLogging()

		options := api.Options{
			Inline:            flagInline,
			PrefixIdentifiers: true,
			CacheHandlers:     flagCache,
			HoistStatic:       flagHoist,
			ScopeID:           flagScopeID,
			RuntimeModuleName: flagRuntime,
		}
		if flagFnMode {
			options.Mode = api.ModeFunction
		}

		stderr := logger.NewStderrLog(logger.OutputOptions{IncludeSource: true})
		failed := 0

		for _, path := range args {
			start := time.Now()
			source, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			result := api.CompileSFC(path, string(source), options)
			for _, msg := range result.Messages {
				stderr.AddMsg(msg)
			}
			if result.HasErrors() {
				failed++
				continue
			}

			outPath := outputPath(path)
			if err := os.WriteFile(outPath, []byte(result.Code), 0644); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}

			log.WithFields(log.Fields{
				"file":    path,
				"out":     outPath,
				"helpers": len(result.Helpers),
				"took":    time.Since(start).Round(time.Microsecond),
			}).Debug("compiled")
		}

		stderr.Done()
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed to compile", failed, len(args))
		}
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [dir]",
	Short: "Analyze a directory of SFCs and report diagnostics",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configureLogging()

		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}

		files := make(map[string]string)
		err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				base := filepath.Base(path)
				if base == "node_modules" || base == "dist" || strings.HasPrefix(base, ".") && base != "." {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(path, ".vue") {
				return nil
			}
			source, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			files[path] = string(source)
			return nil
		})
		if err != nil {
			return fmt.Errorf("walk %s: %w", dir, err)
		}

		log.WithField("files", len(files)).Debug("analyzing project")

		stderr := logger.NewStderrLog(logger.OutputOptions{})
		errors := 0
		for _, msg := range api.CheckProject(files) {
			stderr.AddMsg(msg)
			if msg.Kind == logger.Error {
				errors++
			}
		}
		stderr.Done()

		if errors > 0 {
			return fmt.Errorf("%d errors", errors)
		}
		return nil
	},
}

func configureLogging() {
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	if flagVerbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}
}

func outputPath(path string) string {
	out := strings.TrimSuffix(path, filepath.Ext(path)) + ".js"
	if flagOutDir != "" {
		out = filepath.Join(flagOutDir, filepath.Base(out))
	}
	return out
}

func init() {
	buildCmd.Flags().BoolVar(&flagInline, "inline", true, "embed the render function into setup")
	buildCmd.Flags().BoolVar(&flagFnMode, "function", false, "emit a plain render function instead of a module")
	buildCmd.Flags().BoolVar(&flagHoist, "hoist-static", true, "hoist constant subtrees to module scope")
	buildCmd.Flags().BoolVar(&flagCache, "cache-handlers", true, "cache event handlers in the _cache array")
	buildCmd.Flags().StringVar(&flagScopeID, "scope-id", "", "scoped-style id to stamp on native elements")
	buildCmd.Flags().StringVar(&flagRuntime, "runtime", "", "runtime import specifier (default \"vue\")")
	buildCmd.Flags().StringVarP(&flagOutDir, "outdir", "o", "", "output directory")

	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose pipeline logging")
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
