package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"bandgrab/pkg/auth"
	"bandgrab/pkg/bandcamp"
	"bandgrab/pkg/config"
	"bandgrab/pkg/fetcher"
	"bandgrab/pkg/logger"
	"bandgrab/pkg/storage"
	"bandgrab/pkg/ui"
)

func runFetch(cmd *cobra.Command, args []string) error {
	username := strings.TrimSpace(args[0])
	if username == "" {
		return fmt.Errorf("username must not be empty")
	}

	var password string
	if len(args) > 1 {
		password = args[1]
	}

	// Build flags map from command line
	flags := make(map[string]interface{})
	if len(args) > 2 {
		flags["music-dir"] = args[2]
	}
	if musicDir != "" {
		flags["music-dir"] = musicDir
	}
	if cookieFile != "" {
		flags["cookie-file"] = cookieFile
	}
	if cmd.Flags().Changed("headless") {
		flags["headless"] = headless
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	logger.Initialize(&cfg.Logging)
	log := logger.GetLogger()
	log.WithField("version", version).Info("Bandgrab starting")

	// Fall back to stored credentials when no password argument is given
	if password == "" {
		account, err := lookupStoredAccount(username)
		if err != nil {
			ui.PrintError("No password given and no stored credentials found", username)
			fmt.Println("\nEither pass the password on the command line:")
			fmt.Println("  bandgrab <username> <password> [music_directory]")
			fmt.Println("\nor store credentials once with:")
			fmt.Println("  bandgrab auth login")
			os.Exit(1)
		}
		password = account.Password
		log.WithField("username", username).Info("Using stored credentials")
	}

	ui.PrintInfo("Account", username)
	ui.PrintInfo("Music directory", cfg.Output.MusicDirectory)

	ctx := context.Background()

	cache := auth.NewCookieCache(cfg.Bandcamp.CookieFile)
	factory := func(ctx context.Context) (auth.Browser, error) {
		return auth.NewChromeBrowser(ctx, cfg.Browser.Headless)
	}
	session, err := auth.NewSession(cache, factory, cfg.Bandcamp.BaseURL, cfg.Browser.WaitTimeout, log)
	if err != nil {
		ui.PrintError("Failed to create session", err.Error())
		os.Exit(1)
	}

	jar, err := session.Authenticate(ctx, username, password)
	if err != nil {
		log.WithError(err).Error("Login failed")
		ui.PrintError("Login failed", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Logged in")

	client := bandcamp.NewClient(jar, cfg.Bandcamp.RequestTimeout, log)
	client.SetBaseURL(cfg.Bandcamp.BaseURL)
	if cfg.Bandcamp.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.Bandcamp.UserAgent)
	}

	fanID, lastToken, seed, err := client.Bootstrap(ctx, username)
	if err != nil {
		log.WithError(err).WithField("username", username).Error("Failed to load collection page")
		ui.PrintError("Failed to load collection page", err.Error())
		os.Exit(1)
	}

	items, err := client.Collection(ctx, fanID, lastToken, seed)
	if err != nil {
		log.WithError(err).Error("Failed to list collection")
		ui.PrintError("Failed to list collection", err.Error())
		os.Exit(1)
	}

	ui.PrintInfo("Collection size", fmt.Sprintf("%d items", len(items)))
	log.InfoWithFields("Collection listed", map[string]interface{}{
		"fan_id":     fanID,
		"item_count": len(items),
	})

	layout := storage.NewLayout(cfg.Output.MusicDirectory)
	f := fetcher.New(client, layout, log)

	var failures int
	for _, item := range items {
		if err := f.Fetch(ctx, item); err != nil {
			failures++
			log.WithError(err).WithField("item", item.DisplayName()).Error("Download failed")
			ui.PrintError("Download failed", item.DisplayName())
		}
	}

	if failures > 0 {
		ui.PrintWarning("Finished with errors", fmt.Sprintf("%d of %d items failed", failures, len(items)))
		os.Exit(1)
	}

	log.Info("Collection download completed")
	ui.PrintSuccess("Collection download completed")
	return nil
}

// lookupStoredAccount retrieves stored credentials for the username
func lookupStoredAccount(username string) (*auth.Account, error) {
	manager, err := auth.NewManager()
	if err != nil {
		return nil, err
	}
	return manager.Retrieve(username)
}
