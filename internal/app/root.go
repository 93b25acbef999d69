package app

import (
	"fmt"
	"os"

	"github.com/blackwell-systems/tagctl/internal/config"
	"github.com/blackwell-systems/tagctl/internal/gateway"
	"github.com/blackwell-systems/tagctl/internal/tui"
	"github.com/blackwell-systems/tagctl/internal/util"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	cfg *config.Config
	gw  *gateway.Client

	flagNoColor       bool
	flagNoInteractive bool
	flagConfig        string
	flagServer        string
	flagAPIKey        string
	flagRemember      bool
)

var rootCmd = &cobra.Command{
	Use:   "tagctl",
	Short: "Browse and bulk-edit tags on a Jellyfin media library",
	Long: `tagctl is a terminal client for Jellyfin tag management.

Search a library with title and tag filters, select items across pages,
stage tag additions and removals, and apply them in one batch. A thin
proxy talks to the Jellyfin API; it is started automatically on loopback,
or shared between clients via 'tagctl serve'.

Run 'tagctl' with no arguments to launch the interactive browser.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tui.ShouldUseTUI(cmd) {
			return runBrowser()
		}
		return cmd.Help()
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagNoInteractive, "no-interactive", false, "Disable interactive TUI mode")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/tagctl/config.yml)")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "Jellyfin base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "Jellyfin API key (overrides environment)")
	rootCmd.Flags().BoolVar(&flagRemember, "remember", false, "Save the chosen server, user, and library to the config file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		util.InitColor(flagNoColor)

		// Route the override through the env so Save targets the same file.
		if flagConfig != "" {
			_ = os.Setenv("TAGCTL_CONFIG", flagConfig)
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if flagServer != "" {
			cfg.Jellyfin.Base = flagServer
		}
		if flagAPIKey != "" {
			cfg.Jellyfin.APIKey = flagAPIKey
		}
		return nil
	}

	// Register sub-commands.
	rootCmd.AddCommand(
		newServeCmd(),
		newSearchCmd(),
		newTagsCmd(),
		newApplyCmd(),
		newExportCmd(),
		newUsersCmd(),
		newLibrariesCmd(),
		newVersionCmd(),
	)
}

// ok prints a green success line.
func ok(format string, a ...interface{}) {
	fmt.Println(color.GreenString("✓"), fmt.Sprintf(format, a...))
}

// warn prints a yellow warning line.
func warn(format string, a ...interface{}) {
	fmt.Fprintln(os.Stderr, color.YellowString("!"), fmt.Sprintf(format, a...))
}

// runBrowser resolves the working context and launches the interactive
// browser.
func runBrowser() error {
	stop, err := connect()
	if err != nil {
		return err
	}
	defer stop()

	user, err := pickUser()
	if err != nil {
		return err
	}
	library, err := pickLibrary()
	if err != nil {
		return err
	}

	if flagRemember {
		cfg.Defaults.UserID = user.ID
		cfg.Defaults.LibraryID = library.ID
		if err := config.Save(cfg); err != nil {
			warn("Could not save config: %v", err)
		} else {
			ok("Saved defaults to %s", config.Path())
		}
	}

	return tui.Run(gw, user, library, cfg.Defaults.Types)
}
