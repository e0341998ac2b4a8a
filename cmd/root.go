// Package cmd contains the autodocs CLI, built using the
// Cobra library.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Nemo-docs/autodocs/config"
	"github.com/Nemo-docs/autodocs/git"
	"github.com/Nemo-docs/autodocs/hosting"
	ghprov "github.com/Nemo-docs/autodocs/hosting/github"
	glprov "github.com/Nemo-docs/autodocs/hosting/gitlab"
	"github.com/Nemo-docs/autodocs/runner"
)

var (
	flagWorkspace     string
	flagDefaultBranch string
	flagDryRun        bool
	flagVerbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "autodocs",
	Short: "Count repository files and open an update pull request.",
	Long: `autodocs counts the non-hidden files of a repository checkout,
records the count in a tracked file_count file, commits the change on a
dedicated branch, pushes it, and opens (or reuses) a pull request against
the default branch. Configuration comes from the environment, matching
the GitHub Actions runtime.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

// Execute runs the root command. This is called by
// main.main(). The run's exit status reflects the first
// failing stage.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(
		&flagWorkspace, "workspace", "",
		"override the workspace directory",
	)
	rootCmd.Flags().StringVar(
		&flagDefaultBranch, "default-branch", "",
		"override the default branch lookup",
	)
	rootCmd.Flags().BoolVar(
		&flagDryRun, "dry-run", false,
		"skip push and pull request creation",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&flagVerbose, "verbose", "v", false,
		"enable verbose/debug logging",
	)
}

func run(cmd *cobra.Command, _ []string) error {
	const errCtx = "running autodocs"

	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if flagWorkspace != "" {
		cfg.Workspace = flagWorkspace
	}

	if flagDefaultBranch != "" {
		cfg.DefaultBranch = flagDefaultBranch
	}

	cfg.DryRun = flagDryRun
	cfg.Debug = cfg.Debug || flagVerbose

	setupLogging(cfg.Debug)

	if err := cfg.ApplyRepoFile(); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	rc := runner.Config{
		Workspace:       cfg.Workspace,
		Repository:      cfg.Repository,
		WorkBranch:      cfg.WorkBranch,
		DefaultBranch:   cfg.DefaultBranch,
		CountFile:       cfg.CountFile,
		ExcludedDirs:    cfg.ExcludedDirs,
		CommitMessage:   cfg.CommitMessage,
		PRTitle:         cfg.PRTitle,
		PRBody:          cfg.PRBody,
		Actor:           cfg.Actor,
		AuthorEmail:     cfg.AuthorEmail,
		AuthedRemoteURL: cfg.RemoteURL(true),
		CleanRemoteURL:  cfg.RemoteURL(false),
		SummaryFile:     cfg.SummaryFile,
		DryRun:          cfg.DryRun,
		Git:             git.New(cfg.Workspace),
		Provider:        provider,
	}

	if err := runner.Run(cmd.Context(), rc); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// setupLogging installs the default slog handler. Debug
// mode includes subprocess argv and request/response
// detail.
func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(
		slog.NewTextHandler(
			os.Stderr,
			&slog.HandlerOptions{Level: level},
		),
	))
}

// newProvider creates a hosting.Provider for the
// configured platform. Pattern: Factory -- selects the
// platform implementation at runtime.
func newProvider(
	cfg *config.Config,
) (hosting.Provider, error) {
	const errCtx = "creating hosting provider"

	switch cfg.Server {
	case "github":
		apiBase := ""
		if cfg.Host != "" {
			apiBase = "https://" + cfg.Host +
				"/api/v3"
		}

		p, err := ghprov.NewProvider(ghprov.Config{
			RepoOwner:   cfg.Owner,
			Repo:        cfg.Name,
			AccessToken: cfg.Token,
			APIBaseURL:  apiBase,
		})
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		return p, nil

	case "gitlab":
		host := ""
		if cfg.Host != "" {
			host = "https://" + cfg.Host
		}

		p, err := glprov.NewProvider(glprov.Config{
			Host:        host,
			Repo:        cfg.Repository,
			AccessToken: cfg.Token,
		})
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		return p, nil

	default:
		return nil, fmt.Errorf(
			"%s: unknown server %q",
			errCtx, cfg.Server,
		)
	}
}
