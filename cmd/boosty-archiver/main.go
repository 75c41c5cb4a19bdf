package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agnosto/boosty-archiver/auth"
	"github.com/agnosto/boosty-archiver/cmd"
	"github.com/agnosto/boosty-archiver/config"
	"github.com/agnosto/boosty-archiver/download"
	"github.com/agnosto/boosty-archiver/logger"
	"github.com/agnosto/boosty-archiver/notifications"
	"github.com/agnosto/boosty-archiver/progress"
	"github.com/agnosto/boosty-archiver/ui"
	"github.com/agnosto/boosty-archiver/updater"
	"github.com/agnosto/boosty-archiver/utils"
)

const version = "v0.1.0"

func main() {
	flags, subcommand, inputs := cmd.ParseFlags()

	if flags.Version {
		fmt.Printf("Boosty Archiver version %s\n", version)
		return
	}

	configPath := config.GetConfigPath()
	if err := config.EnsureConfigExists(configPath); err != nil {
		log.Fatal(err)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		p := tea.NewProgram(ui.NewConfigWizardModel())
		if _, perr := p.Run(); perr != nil {
			log.Fatal(perr)
		}
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			log.Fatal(err)
		}
	}

	if err := logger.InitLogger(cfg); err != nil {
		log.Fatal(err)
	}

	if subcommand == "update" {
		if err := updater.CheckForUpdate(version); err != nil {
			fmt.Printf("Error updating: %v\n", err)
			os.Exit(1)
		}
		return
	}

	applyFlagOverrides(cfg, flags)

	if cfg.Options.CheckUpdates {
		if available, latestVer, err := updater.CheckUpdateAvailable(version); err == nil && available {
			fmt.Printf("Update %s available! Run 'boosty-archiver update' to update.\n", latestVer)
		}
	}

	if len(inputs) == 0 {
		fmt.Println("Usage: boosty-archiver [flags] <boosty.to URL or user name> ...")
		os.Exit(1)
	}

	token, err := auth.LoadToken(cfg, flags.Token)
	if err != nil {
		fmt.Printf("No auth token found: %v\n", err)
		fmt.Println("Provide one via -token, config.toml or a token.txt next to the binary.")
		os.Exit(1)
	}
	cfg.Account.AuthToken = token

	// Like the token, cookies are a precondition: an unreadable file aborts
	// before any network call instead of running half-authenticated.
	var jar http.CookieJar
	if cfg.Account.CookiesPath != "" {
		jar, err = auth.LoadCookieJar(cfg.Account.CookiesPath)
		if err != nil {
			fmt.Printf("Could not load cookies: %v\n", err)
			logger.Logger.Printf("Could not load cookies from %s: %v", cfg.Account.CookiesPath, err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Logger.Printf("Starting Boosty Archiver version %s", version)

	reporter := progress.NewBarReporter("Archiving")
	downloader, err := download.NewDownloader(cfg, jar, reporter)
	if err != nil {
		logger.Logger.Fatal(err)
	}

	notifier := notifications.NewNotificationService(cfg)

	// Each creator runs to completion on its own; one failure never takes
	// down the rest of the queue.
	exitCode := 0
	for _, input := range inputs {
		user, perr := utils.ParseUserInput(input)
		if perr != nil {
			user = input
		}

		if err := downloader.ArchiveUser(ctx, input); err != nil {
			if errors.Is(err, context.Canceled) {
				reporter.Printf("Interrupted, shutting down...")
				exitCode = 1
				break
			}
			reporter.Printf("Error archiving %s: %v", user, err)
			logger.Logger.Printf("Error archiving %s: %v", user, err)
			notifier.NotifyArchiveFailed(user, err)
			exitCode = 1
			continue
		}

		notifier.NotifyArchiveComplete(user, "All posts processed.")
	}

	reporter.Finish()
	if err := downloader.Close(); err != nil {
		logger.Logger.Printf("Error closing database: %v", err)
	}
	os.Exit(exitCode)
}

func applyFlagOverrides(cfg *config.Config, flags cmd.Flags) {
	if flags.OutputDir != "" {
		cfg.Options.SaveLocation = flags.OutputDir
	}
	if flags.Force {
		cfg.Options.ForceRedownload = true
	}
	if flags.Token != "" {
		cfg.Account.AuthToken = flags.Token
	}
	if flags.CookiesPath != "" {
		cfg.Account.CookiesPath = flags.CookiesPath
	}
	if flags.UseDB {
		cfg.Options.UseDatabase = true
	}
	if flags.DBPath != "" {
		cfg.Options.DatabasePath = flags.DBPath
		cfg.Options.UseDatabase = true
	}
}
