// Package cli implements the kbchat command line tool.
package cli

import (
	"fmt"

	"github.com/jrsteele09/go-kb-chat/internal/app"
	"github.com/jrsteele09/go-kb-chat/internal/config"
	"github.com/jrsteele09/go-kb-chat/internal/logging"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

// flagConfig lets the persistent flags override the environment.
type flagConfig struct {
	config.Config
	driver string
	dsn    string
	folder string
	kbURL  string
}

func (c flagConfig) GetStoreDriver() string {
	if c.driver != "" {
		return c.driver
	}
	return c.Config.GetStoreDriver()
}

func (c flagConfig) GetStoreDSN() string {
	if c.dsn != "" {
		return c.dsn
	}
	return c.Config.GetStoreDSN()
}

func (c flagConfig) GetDataFolder() string {
	if c.folder != "" {
		return c.folder
	}
	return c.Config.GetDataFolder()
}

func (c flagConfig) GetKnowledgeBaseURL() string {
	if c.kbURL != "" {
		return c.kbURL
	}
	return c.Config.GetKnowledgeBaseURL()
}

type rootOptions struct {
	verbose bool
	cfg     flagConfig
	app     *app.App
}

// NewRootCommand builds the full command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{cfg: flagConfig{Config: config.New()}}

	rootCmd := &cobra.Command{
		Use:   "kbchat",
		Short: "Chat with the knowledge base from the terminal",
		Long: `kbchat relays questions to the knowledge-base API and keeps a local
history of conversations.

Quick Start:
  kbchat token configure --client-id ID --client-secret SECRET --tenant-id TENANT
  kbchat ask "How do I reset my password?"
  kbchat sessions list`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := opts.cfg.GetLogLevel()
			if opts.verbose {
				level = "debug"
			}
			logging.SetupWriter(cmd.ErrOrStderr(), opts.cfg.GetEnv(), level)

			a, err := app.New(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			opts.app = a
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.app == nil {
				return nil
			}
			return opts.app.Close()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&opts.cfg.driver, "driver", "", "Storage driver: yaml, sqlite, postgres or memory (env STORE_DRIVER)")
	rootCmd.PersistentFlags().StringVar(&opts.cfg.dsn, "dsn", "", "Storage location, a file path or connection string (env STORE_DSN)")
	rootCmd.PersistentFlags().StringVar(&opts.cfg.folder, "data", "", "Data folder for default storage files (env FOLDER)")
	rootCmd.PersistentFlags().StringVar(&opts.cfg.kbURL, "kb-url", "", "Knowledge-base API URL (env KB_API_URL)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(
		newServeCommand(opts),
		newTokenCommand(opts),
		newSessionsCommand(opts),
		newAskCommand(opts),
	)
	return rootCmd
}
