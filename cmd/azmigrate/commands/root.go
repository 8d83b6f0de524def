package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/DrSkyle/azmigrate/pkg/config"
	"github.com/DrSkyle/azmigrate/pkg/engine"
	"github.com/DrSkyle/azmigrate/pkg/version"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	cfgFile      string
	verbose      bool
	jsonLogs     bool
	mock         bool
	otelEndpoint string
	noTelemetry  bool
}

var global globalFlags

var rootCmd = &cobra.Command{
	Use:   "azmigrate",
	Short: "Compare Azure spend against equivalent AWS services",
	Long: `azmigrate - Azure to AWS cost comparison

Lists a subscription, prices every resource on both clouds and reports
the monthly difference.`,
	Version:       version.Current,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&global.cfgFile, "config", "", "Config file (default $HOME/.azmigrate.yaml)")
	pf.BoolVarP(&global.verbose, "verbose", "v", false, "Enable debug logging")
	pf.BoolVar(&global.jsonLogs, "json-logs", false, "Emit logs as JSON")
	pf.StringVar(&global.otelEndpoint, "otel-endpoint", "", "OTLP HTTP endpoint for traces")
	pf.BoolVar(&global.noTelemetry, "no-telemetry", false, "Disable tracing")

	pf.BoolVar(&global.mock, "mock", false, "Use a built-in sample subscription")
	_ = pf.MarkHidden("mock")

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderHelp(cmd)
	})

	rootCmd.AddCommand(analyzeCmd, pricingCmd, historyCmd, permissionsCmd, versionCmd)
}

func initConfig() {
	if global.cfgFile != "" {
		viper.SetConfigFile(global.cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.SetConfigFile(filepath.Join(home, ".azmigrate.yaml"))
			viper.SetConfigType("yaml")
		}
	}

	viper.SetEnvPrefix("AZMIGRATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("subscription", "AZMIGRATE_SUBSCRIPTION", "AZURE_SUBSCRIPTION_ID")

	if err := viper.ReadInConfig(); err != nil && global.cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Warning: cannot read config %s: %v\n", global.cfgFile, err)
	}
}

// loadConfig overlays the config file, environment and bound flags on the defaults.
func loadConfig() (config.Config, error) {
	cfg := config.Defaults()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	cfg.Mappings = config.DefaultMappingConfig().Merge(cfg.Mappings)
	return cfg, cfg.Validate()
}

// newLogger writes to stderr so reports on stdout stay machine-readable.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if global.verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: engine.RedactSensitiveData}
	if global.jsonLogs {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// bindFlag ties a flag to a config key; flag values win over the file.
func bindFlag(fs *pflag.FlagSet, key, name string) {
	if err := viper.BindPFlag(key, fs.Lookup(name)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", name, err))
	}
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0078D4")).
			MarginBottom(1)
	flagStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F5F"))
)

func renderHelp(cmd *cobra.Command) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("AZMIGRATE %s", version.Current)))
	fmt.Println(cmd.Short + ".")
	fmt.Println()

	fmt.Println(titleStyle.Render("USAGE"))
	fmt.Printf("  %s\n\n", cmd.UseLine())

	if cmd.HasAvailableSubCommands() {
		fmt.Println(titleStyle.Render("COMMANDS"))
		for _, c := range cmd.Commands() {
			if c.IsAvailableCommand() {
				fmt.Printf("  %-12s %s\n", c.Name(), c.Short)
			}
		}
		fmt.Println()
	}

	if cmd == rootCmd {
		fmt.Println(titleStyle.Render("EXAMPLES"))
		fmt.Println("  azmigrate analyze                          # Current subscription, text report")
		fmt.Println("  azmigrate analyze --discount 15 -f json    # Apply a MACC discount")
		fmt.Println("  azmigrate analyze --interactive            # Prompt for the discount")
		fmt.Println("  azmigrate pricing show --provider aws      # Inspect the price table")
		fmt.Println()
	}

	fmt.Println(titleStyle.Render("FLAGS"))
	printFlag := func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		output := fmt.Sprintf("  --%-16s %s", f.Name, f.Usage)
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" && f.DefValue != "[]" {
			output += fmt.Sprintf(" (default %s)", f.DefValue)
		}
		fmt.Println(flagStyle.Render(output))
	}
	cmd.LocalFlags().VisitAll(printFlag)
	cmd.InheritedFlags().VisitAll(printFlag)
	fmt.Println()
}
