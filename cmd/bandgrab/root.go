package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bandgrab/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
	cookieFile string
	musicDir   string
	headless   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bandgrab <username> [password] [music_directory]",
	Short: "Download your purchased Bandcamp collection",
	Long: `Bandgrab downloads every item in your Bandcamp collection to disk.

It logs into Bandcamp with a headless browser, caches the session
cookies for later runs, walks your full purchase history through the
collection API, and downloads each item as MP3 (V0). Items that are
already on disk are skipped, so interrupted runs can simply be
restarted.

The password argument is optional when credentials have been stored
with 'bandgrab auth login' or via the BANDGRAB_USERNAME and
BANDGRAB_PASSWORD environment variables.`,
	Example: `  # Download the collection into ./Music
  bandgrab myuser mypassword

  # Download into a specific directory
  bandgrab myuser mypassword ~/Music/bandcamp

  # Use stored credentials
  bandgrab auth login
  bandgrab myuser`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:    cobra.RangeArgs(1, 3),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet || logLevel == "error" {
			ui.SetQuietMode(true)
		}
	},
	RunE: runFetch,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.bandgrab.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")

	rootCmd.Flags().StringVar(&cookieFile, "cookie-file", "", "path of the session cookie cache")
	rootCmd.Flags().StringVarP(&musicDir, "music-dir", "o", "", "directory downloads are written to")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "run the login browser headless")
}
