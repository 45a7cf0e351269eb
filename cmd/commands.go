package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Abraxas-365/supportdesk/category"
	appcontext "github.com/Abraxas-365/supportdesk/context"
	"github.com/Abraxas-365/supportdesk/manifest"
	"github.com/Abraxas-365/supportdesk/orchestator"
	"github.com/Abraxas-365/supportdesk/pkg/config"
	"github.com/Abraxas-365/supportdesk/pkg/logx"
	"github.com/Abraxas-365/supportdesk/store"
	"github.com/spf13/cobra"
)

var versionInfo = VersionInfo{
	Version: "dev",
	Commit:  "none",
	Date:    "unknown",
}

// VersionInfo contains build information
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

func setVersion(version, commit, date string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.Date = date
}

// configPath is bound to the persistent --config flag
var configPath string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "supportdesk",
		Short: "Customer-support chat intent router",
		Long: `Routes customer-support chat messages to the order, billing or
support responder and answers them from the support database.

Configuration is read from environment variables (and .env), optionally
overlaid with a YAML or JSON file passed through --config.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (yaml or json)")

	cmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newSeedCmd(),
		newRouteCmd(),
		newChatCmd(),
		newManifestCmd(),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig reads configuration and applies the logging settings
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	initLogger(cfg)
	return cfg, nil
}

func initLogger(cfg *config.Config) {
	format := logx.FormatText
	if cfg.Server.LogFormat == "json" {
		format = logx.FormatJSON
	}
	logx.SetOutput(os.Stderr, format)
	logx.SetLevel(logx.ParseLevel(cfg.Server.LogLevel))

	logx.WithFields(logx.Fields{
		"level":  cfg.Server.LogLevel,
		"format": cfg.Server.LogFormat,
	}).Debug("Logger initialized")
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Start the HTTP API server.

The server stops gracefully on SIGINT or SIGTERM.

Examples:
  supportdesk serve
  SERVER_PORT=9000 DB_SEED=true supportdesk serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logx.Info("🚀 Starting support desk router...")
			logx.Infof("Environment: %s", cfg.Server.Environment)

			app, err := buildApplication(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			return startServer(newServer(app), cfg)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := store.Open(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := store.Migrate(ctx, db); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrations applied (%s)\n", cfg.Database.Driver)
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo customers, orders, payments and FAQs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := store.Open(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := store.Migrate(ctx, db); err != nil {
				return err
			}
			if err := store.Seed(ctx, db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Demo data seeded")
			return nil
		},
	}
}

func newRouteCmd() *cobra.Command {
	var (
		previous string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "route <message>",
		Short: "Classify a message without answering it",
		Long: `Route a message and print the decision with the keyword score of
each category.

Examples:
  supportdesk route "where is my order ORD-001"
  supportdesk route --previous order "and the status?"
  supportdesk route --json "I want a refund"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prev, err := category.Parse(previous)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			reg, err := initManifest(cfg.Router.ManifestPath)
			if err != nil {
				return err
			}
			rt, err := initRouter(cmd.Context(), cfg, reg)
			if err != nil {
				return err
			}

			orch := orchestator.NewOrchestrator(orchestator.Config{
				Router:      rt,
				Strategy:    cfg.Router.Strategy,
				ManifestReg: reg,
			})
			result, err := orch.ClassifyMessage(cmd.Context(), orchestator.ClassifyRequest{
				Message:  strings.Join(args, " "),
				Previous: prev,
			})
			if err != nil {
				return err
			}
			return printClassification(cmd, result, asJSON)
		},
	}

	cmd.Flags().StringVar(&previous, "previous", "", "Category of the previous turn (order, billing, support)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func printClassification(cmd *cobra.Command, result orchestator.Classification, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	d := result.Decision
	fmt.Fprintf(out, "Category:   %s\n", d.Category)
	fmt.Fprintf(out, "Confidence: %.2f\n", d.Confidence)
	fmt.Fprintf(out, "Reasoning:  %s\n", d.Reasoning)
	if len(result.Scores) > 0 {
		fmt.Fprintln(out, "Scores:")
		for _, s := range result.Scores {
			fmt.Fprintf(out, "  %-8s %.2f\n", s.Category, s.Score)
		}
	}
	return nil
}

func newChatCmd() *cobra.Command {
	var (
		userID         string
		conversationID string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the support desk in the terminal",
		Long: `Start an interactive chat session. Every exchange is stored as a
conversation, so follow-up questions keep their topic.

Type "exit" or press Ctrl-D to quit.

Examples:
  supportdesk chat --user u-1001
  supportdesk chat --conversation 7d0c...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			app, err := buildApplication(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			var user *appcontext.User
			if userID != "" {
				user = &appcontext.User{ID: userID}
			}
			return runChat(cmd, app.orch, user, conversationID)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Customer id (anonymous when empty)")
	cmd.Flags().StringVar(&conversationID, "conversation", "", "Resume an existing conversation")
	return cmd
}

// runChat reads one message per line until EOF or "exit"
func runChat(cmd *cobra.Command, orch *orchestator.Orchestrator, user *appcontext.User, conversationID string) error {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			fmt.Fprint(out, "> ")
			continue
		case line == "exit" || line == "quit":
			return nil
		}

		resp, err := orch.HandleChat(ctx, orchestator.ChatRequest{
			Message:        line,
			ConversationID: conversationID,
			User:           user,
		})
		if err != nil {
			fmt.Fprintf(out, "error: %v\n> ", err)
			continue
		}

		if conversationID == "" {
			conversationID = string(resp.ConversationID)
			user = &appcontext.User{ID: resp.UserID}
			fmt.Fprintf(out, "(conversation %s)\n", conversationID)
		}
		fmt.Fprintf(out, "[%s] %s\n> ", resp.Category, resp.Content)
	}
	fmt.Fprintln(out)
	return scanner.Err()
}

func newManifestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Inspect and export the keyword manifest",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "export [path]",
			Short: "Write the active keyword manifest",
			Long: `Write the active keyword manifest (built-in, or the one named by
MANIFEST_PATH) to a file. The format follows the extension; without a
path the manifest is printed as YAML.

Examples:
  supportdesk manifest export
  supportdesk manifest export keywords.json`,
			Args: cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				reg, err := initManifest(cfg.Router.ManifestPath)
				if err != nil {
					return err
				}

				m := reg.GetManifest()
				if len(args) == 0 {
					data, err := m.ToYAML()
					if err != nil {
						return err
					}
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}

				if err := manifest.SaveManifest(m, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Manifest written to %s\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "validate <path>",
			Short: "Check a keyword manifest file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := manifest.LoadManifest(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Manifest %s is valid (version %s, %d categories)\n",
					args[0], m.Version, len(m.Categories))
				return nil
			},
		},
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date of the support desk.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "supportdesk %s\n", versionInfo.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", versionInfo.Commit)
			fmt.Fprintf(cmd.OutOrStdout(), "Built:  %s\n", versionInfo.Date)
		},
	}
}
