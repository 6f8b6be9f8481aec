package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/openstack-archive/rst2bash/internal/config"
	"github.com/openstack-archive/rst2bash/internal/logging"
	"github.com/openstack-archive/rst2bash/internal/parser"
	"github.com/openstack-archive/rst2bash/internal/script"
	"github.com/openstack-archive/rst2bash/internal/ui"
	"github.com/openstack-archive/rst2bash/internal/watch"
)

var version = "0.2.0"

var (
	cfgFile string
	verbose bool
	log     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "rst2bash [path]",
	Short: "Extract install-guide shell commands into runnable scripts",
	Long: `rst2bash walks a tree of reStructuredText sources, collects the
annotated shell code blocks, and reassembles them in reading order
into one executable bash script per target host.

The documentation stays the single source of truth: prose-authored
installation steps double as a testable deployment procedure.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

var targetsCmd = &cobra.Command{
	Use:   "targets [path]",
	Short: "List discovered targets without writing scripts",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTargets,
}

var browseCmd = &cobra.Command{
	Use:   "browse [path]",
	Short: "Preview assembled scripts in an interactive view",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBrowse,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(targetsCmd)
	rootCmd.AddCommand(browseCmd)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default: rst2bash.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug output on the console")
	rootCmd.PersistentFlags().StringP("out", "o", "", "Output directory for generated scripts")
	rootCmd.PersistentFlags().Bool("strict", false, "Treat unterminated code blocks as fatal")
	rootCmd.Flags().Bool("dry-run", false, "Assemble and report, write nothing")
	rootCmd.Flags().BoolP("watch", "w", false, "Re-extract whenever a source document changes")

	viper.BindPFlag("output_path", rootCmd.PersistentFlags().Lookup("out"))
	viper.BindPFlag("strict", rootCmd.PersistentFlags().Lookup("strict"))
}

func initConfig() {
	if err := config.Init(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
	}
}

// setup resolves the source path and builds the logger and core options.
func setup(args []string) (parser.Options, error) {
	var err error
	log, err = logging.New(verbose, config.GetLogFile())
	if err != nil {
		return parser.Options{}, fmt.Errorf("opening log file: %w", err)
	}
	if len(args) > 0 {
		config.SetSourcePath(args[0])
	}
	return config.Options(), nil
}

// assemble runs the full pipeline up to rendered script text.
func assemble(ctx context.Context, opts parser.Options) (*parser.Result, *script.Assembler, map[string]string, error) {
	res, err := parser.Walk(ctx, opts, log)
	if err != nil {
		return nil, nil, nil, err
	}
	asm := script.NewAssembler(opts, config.GetTemplateContext())
	res.Warnings = append(res.Warnings, asm.Consume(res.Blocks)...)

	scripts, err := asm.Render()
	if err != nil {
		return nil, nil, nil, err
	}
	return res, asm, scripts, nil
}

// reportWarnings prints the aggregate warning report after a run.
func reportWarnings(warnings []parser.Warning) {
	for _, w := range warnings {
		log.Warn(w.String())
	}
	if n := len(warnings); n > 0 {
		log.Info("run finished with warnings", zap.Int("count", n))
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	opts, err := setup(args)
	if err != nil {
		return err
	}
	defer log.Sync()
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	watchMode, _ := cmd.Flags().GetBool("watch")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	extract := func() error {
		res, asm, scripts, err := assemble(ctx, opts)
		if err != nil {
			return err
		}
		reportWarnings(res.Warnings)

		if dryRun {
			for _, t := range asm.Targets() {
				fmt.Printf("%s.sh\t%d blocks\n", t.Name, t.Blocks())
			}
			log.Info("dry run, nothing written")
			return nil
		}

		written, err := script.WriteAll(scripts, config.GetOutputPath())
		if err != nil {
			return err
		}
		log.Info("output written",
			zap.Int("documents", len(res.Documents)),
			zap.Int("blocks", len(res.Blocks)),
			zap.Int("skipped", res.Skipped()))
		for _, path := range written {
			log.Info(path)
		}
		return nil
	}

	if err := extract(); err != nil {
		return err
	}
	if watchMode && !dryRun {
		return watch.Run(ctx, opts.Root, log, extract)
	}
	return nil
}

func runTargets(cmd *cobra.Command, args []string) error {
	opts, err := setup(args)
	if err != nil {
		return err
	}
	defer log.Sync()

	res, asm, _, err := assemble(context.Background(), opts)
	if err != nil {
		return err
	}
	reportWarnings(res.Warnings)

	for _, t := range asm.Targets() {
		fmt.Printf("%-24s%d blocks\n", t.Name+".sh", t.Blocks())
	}
	if n := res.Skipped(); n > 0 {
		fmt.Printf("%-24s%d blocks\n", "(no-run)", n)
	}
	return nil
}

func runBrowse(cmd *cobra.Command, args []string) error {
	opts, err := setup(args)
	if err != nil {
		return err
	}
	defer log.Sync()

	res, asm, scripts, err := assemble(context.Background(), opts)
	if err != nil {
		return err
	}
	reportWarnings(res.Warnings)

	if len(asm.Targets()) == 0 {
		return fmt.Errorf("no code blocks found in %s", opts.Root)
	}
	return ui.Run(asm.Targets(), scripts)
}

func main() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
