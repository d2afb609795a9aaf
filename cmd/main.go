package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"mailpilot/internal/analyzer"
	"mailpilot/internal/config"
	"mailpilot/internal/gmail"
	"mailpilot/internal/google"
	"mailpilot/internal/icloud"
	"mailpilot/internal/responder"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "mailpilot",
		Usage: "Draft replies to unread mail and resolve meeting requests against your calendar.",
		Commands: []*cli.Command{
			authCommand(),
			runCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account for Gmail and Calendar access.",
		Action: func(c *cli.Context) error {
			logger := setupLogger("info")
			logger.Info("Starting Google authentication flow.")

			config, err := google.GetOAuthConfigForAuthFlow(os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"))
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := google.TokenFromWeb(config, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			fmt.Print("Enter a name for this account (e.g., 'personal', 'work'): ")
			accountName, _ := reader.ReadString('\n')
			accountName = strings.TrimSpace(accountName)
			tokenFile := "token-" + accountName + ".json"

			if err := google.SaveToken(tokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", tokenFile)
			return nil
		},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Process the unread inbox: classify, schedule, and draft replies.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "once", Usage: "Process the inbox once and exit."},
			&cli.BoolFlag{Name: "dry-run", Usage: "Log what would be drafted and booked without making changes."},
			&cli.IntFlag{Name: "watch", Value: 300, Usage: "Process the inbox every N seconds. Overrides --once."},
		},
		Action: func(c *cli.Context) error {
			logLevel := os.Getenv("LOG_LEVEL")
			if logLevel == "" {
				logLevel = "info"
			}
			logger := setupLogger(logLevel)

			if c.Bool("dry-run") {
				logger.Info("Performing a dry run. No changes will be made.")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			httpClient, err := google.OAuthClient(c.Context, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleAccount)
			if err != nil {
				return fmt.Errorf("failed to create authenticated google client: %w", err)
			}

			gmailClient, err := gmail.NewClient(c.Context, logger, httpClient)
			if err != nil {
				return fmt.Errorf("failed to create gmail client: %w", err)
			}

			calClient, err := google.NewCalendarClient(c.Context, logger, httpClient, cfg.Timezone)
			if err != nil {
				return fmt.Errorf("failed to create calendar client: %w", err)
			}

			var caldavClient *icloud.CalDAVClient
			if cfg.HasCalDAV() {
				caldavClient, err = icloud.NewClient(logger, cfg.ICloudUsername, cfg.ICloudPassword, cfg.ICloudCalendarName)
				if err != nil {
					return fmt.Errorf("failed to create icloud client: %w", err)
				}
			}

			an := analyzer.New(logger, cfg.OpenAIKey, cfg.OpenAIModel)

			r, err := responder.New(logger, cfg, gmailClient, calClient, caldavClient, an, c.Bool("dry-run"))
			if err != nil {
				return fmt.Errorf("failed to create responder: %w", err)
			}

			// --watch flag takes precedence
			if c.IsSet("watch") {
				interval := time.Duration(c.Int("watch")) * time.Second
				logger.Info("Starting watcher.", "interval", interval)
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for ; true; <-ticker.C {
					if err := r.Run(c.Context); err != nil {
						logger.Error("Run failed", "error", err)
					}
				}
			} else { // --once is the default behavior if --watch is not set
				logger.Info("Processing the inbox once.")
				if err := r.Run(c.Context); err != nil {
					return fmt.Errorf("run failed: %w", err)
				}
			}

			return nil
		},
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
