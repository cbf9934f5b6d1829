package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rigup/rigup/internal/version"
	"github.com/rigup/rigup/pkg/catalog"
	"github.com/rigup/rigup/pkg/config"
	"github.com/rigup/rigup/pkg/filesystem"
	"github.com/rigup/rigup/pkg/installer"
	"github.com/rigup/rigup/pkg/logging"
	"github.com/rigup/rigup/pkg/paths"
	"github.com/rigup/rigup/pkg/platform"
	"github.com/rigup/rigup/pkg/provision"
	"github.com/rigup/rigup/pkg/style"
)

var (
	verbosity  int
	dryRun     bool
	sourceRoot string

	rootCmd = &cobra.Command{
		Use:   "rigup",
		Short: "An idempotent developer-environment provisioner",
		Long: `rigup converges a developer machine onto a declared end state:
shell, editor, multiplexer, and CLI tooling installed and configured.
Every step is guarded by an existence check, so running it again is
always safe and converges to the same result.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUp(cmd)
		},
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Preview changes without executing them")
	rootCmd.PersistentFlags().StringVar(&sourceRoot, "source", "", "Dotfiles source tree (default $RIGUP_SOURCE_ROOT, then ~/.dotfiles)")

	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(genconfigCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Run the full provisioning pass",
	Long: `Up detects the platform, installs every missing tool, and applies
the configuration edits. Already-satisfied steps are skipped, so the
command is safe to run any number of times.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUp(cmd)
	},
}

// loadEnvironment resolves paths and settings together. The source
// root obeys flag > RIGUP_SOURCE_ROOT > settings file > ~/.dotfiles >
// cwd: the settings file can only be found once paths exist, so paths
// are rebuilt when it names a source root and nothing stronger did.
func loadEnvironment(flagSource string) (paths.Paths, *config.Settings, error) {
	p, err := paths.New(flagSource)
	if err != nil {
		return nil, nil, err
	}

	settings, err := config.Load(p.SettingsPath())
	if err != nil {
		return nil, nil, err
	}

	if flagSource == "" && os.Getenv(paths.EnvSourceRoot) == "" && settings.Core.SourceRoot != "" {
		p, err = paths.New(settings.Core.SourceRoot)
		if err != nil {
			return nil, nil, err
		}
	}

	return p, settings, nil
}

func runUp(cmd *cobra.Command) error {
	logger := logging.GetLogger("cmd.up")
	logger.Info().Bool("dryRun", dryRun).Msg("Starting run")

	p, settings, err := loadEnvironment(sourceRoot)
	if err != nil {
		return err
	}
	if p.UsedFallback() {
		logger.Warn().Str("root", p.SourceRoot()).
			Msg("no dotfiles source found, using current directory")
	}

	fsys := filesystem.NewOS()
	runner := installer.NewExecRunner()
	plat := platform.Detect(fsys)
	cat := catalog.New(p, settings)

	prov := provision.New(fsys, runner, p, settings, cat, plat, os.Getenv("SHELL"))
	report, err := prov.Run(dryRun)

	if err != nil {
		// The one fatal precondition: exit non-zero with the message
		// before rendering a report nothing ran for.
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), style.RenderReport(report))

	// Per-step failures and manual gaps are part of the report, not an
	// exit code; re-running the provisioner is the recovery path.
	logger.Info().Msg("Run finished")
	return nil
}

var genconfigCmd = &cobra.Command{
	Use:   "genconfig",
	Short: "Print the effective configuration as TOML",
	Long: `Genconfig prints the merged configuration (embedded defaults plus
your settings file). Redirect it to ~/.config/rigup/rigup.toml as a
starting point for customization.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, settings, err := loadEnvironment(sourceRoot)
		if err != nil {
			return err
		}
		out, err := config.Marshal(settings)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "rigup version %s\n", version.Version)
		fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", version.Commit)
		fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", version.Date)
	},
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `To load completions:

Bash:
  $ source <(rigup completion bash)

Zsh:
  $ rigup completion zsh > "${fpath[1]}/_rigup"

Fish:
  $ rigup completion fish | source

PowerShell:
  PS> rigup completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		switch args[0] {
		case "bash":
			if err := cmd.Root().GenBashCompletion(cmd.OutOrStdout()); err != nil {
				log.Error().Err(err).Msg("Failed to generate bash completion")
			}
		case "zsh":
			if err := cmd.Root().GenZshCompletion(cmd.OutOrStdout()); err != nil {
				log.Error().Err(err).Msg("Failed to generate zsh completion")
			}
		case "fish":
			if err := cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true); err != nil {
				log.Error().Err(err).Msg("Failed to generate fish completion")
			}
		case "powershell":
			if err := cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout()); err != nil {
				log.Error().Err(err).Msg("Failed to generate powershell completion")
			}
		}
	},
}
