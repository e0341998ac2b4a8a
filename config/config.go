// Package config assembles the immutable run
// configuration from the environment and an optional
// repository-level config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"

	"github.com/Nemo-docs/autodocs/counter"
)

// Defaults applied when the environment and the repo
// config file leave a value unset.
const (
	DefaultWorkspace  = "/github/workspace"
	DefaultActor      = "automation"
	DefaultWorkBranch = "autodocs/file-count-update"

	DefaultCommitMessage = "autodocs: update file count to {{count}}"
	DefaultPRTitle       = "autodocs: Update repository file count"
)

// DefaultPRBody is the template for generated pull
// request bodies.
const DefaultPRBody = `Automated file count update for {{repo}}.

This PR updates the tracked count file to {{count}}. It was
opened from the {{branch}} branch by the autodocs workflow.`

// RepoConfigFile is the optional per-repository override
// file read from the workspace root.
const RepoConfigFile = ".autodocs.yaml"

// Config is the full configuration of one run. It is
// assembled once at startup and passed explicitly; no
// component reads the environment after this point.
type Config struct {
	// Token authenticates the hosting API and the push.
	Token string
	// Repository is the owner/name pair.
	Repository string
	// Owner and Name are the split Repository parts.
	Owner string
	Name  string
	// Actor is the git commit author name.
	Actor string
	// AuthorEmail is the noreply address derived from
	// Actor.
	AuthorEmail string
	// DefaultBranch skips the remote lookup when set.
	DefaultBranch string
	// Workspace is the checkout root to count and run
	// git commands in.
	Workspace string
	// WorkBranch is the fixed update branch name.
	WorkBranch string
	// CountFile is the tracked count file name.
	CountFile string
	// ExcludedDirs are directory names skipped while
	// counting.
	ExcludedDirs []string
	// CommitMessage, PRTitle and PRBody are message
	// templates with {{count}}, {{branch}} and {{repo}}
	// variables.
	CommitMessage string
	PRTitle       string
	PRBody        string
	// Server selects the hosting platform ("github" or
	// "gitlab").
	Server string
	// Host overrides the hosting hostname (GitHub
	// Enterprise or self-managed GitLab).
	Host string
	// SummaryFile is an optional path for the JSON run
	// summary.
	SummaryFile string
	// Debug enables verbose diagnostic logging,
	// including request/response detail.
	Debug bool
	// DryRun skips push and pull request creation.
	DryRun bool
}

// repoFile mirrors the optional .autodocs.yaml override
// file.
type repoFile struct {
	CountFile     string   `yaml:"count_file"`
	WorkBranch    string   `yaml:"work_branch"`
	ExcludedDirs  []string `yaml:"excluded_dirs"`
	CommitMessage string   `yaml:"commit_message"`
	PRTitle       string   `yaml:"pr_title"`
	PRBody        string   `yaml:"pr_body"`
}

// FromEnv builds a Config from the process environment.
// A .env file is loaded first when present so local runs
// behave like the CI runtime. Missing required values
// fail before any side effect.
func FromEnv() (*Config, error) {
	const errCtx = "loading configuration"

	// Optional .env for local runs; absence is fine.
	_ = godotenv.Load()

	token := os.Getenv("INPUT_GITHUB_TOKEN")
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}

	if token == "" {
		return nil, fmt.Errorf(
			"%s: missing INPUT_GITHUB_TOKEN or "+
				"GITHUB_TOKEN",
			errCtx,
		)
	}

	repo := os.Getenv("GITHUB_REPOSITORY")
	if repo == "" {
		return nil, fmt.Errorf(
			"%s: missing GITHUB_REPOSITORY", errCtx,
		)
	}

	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return nil, fmt.Errorf(
			"%s: repository %q is not owner/name",
			errCtx, repo,
		)
	}

	actor := envOr("GITHUB_ACTOR", DefaultActor)

	return &Config{
		Token:         token,
		Repository:    repo,
		Owner:         owner,
		Name:          name,
		Actor:         actor,
		AuthorEmail:   actor + "@users.noreply.github.com",
		DefaultBranch: os.Getenv("DEFAULT_BRANCH"),
		Workspace: envOr(
			"GITHUB_WORKSPACE", DefaultWorkspace,
		),
		WorkBranch:    DefaultWorkBranch,
		CountFile:     counter.DefaultCountFile,
		ExcludedDirs:  counter.DefaultExcludedDirs,
		CommitMessage: DefaultCommitMessage,
		PRTitle:       DefaultPRTitle,
		PRBody:        DefaultPRBody,
		Server:        envOr("AUTODOCS_SERVER", "github"),
		Host:          os.Getenv("AUTODOCS_HOST"),
		SummaryFile: os.Getenv(
			"AUTODOCS_SUMMARY_FILE",
		),
		Debug: envBool("AUTODOCS_DEBUG"),
	}, nil
}

// ApplyRepoFile merges overrides from the optional
// .autodocs.yaml file at the workspace root. A missing
// file is not an error. Call after any workspace
// override has been applied.
func (c *Config) ApplyRepoFile() error {
	const errCtx = "reading repo config file"

	raw, err := os.ReadFile(
		filepath.Join(c.Workspace, RepoConfigFile),
	)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	var rf repoFile
	if err := yaml.Unmarshal(raw, &rf); err != nil {
		return fmt.Errorf(
			"%s: decoding yaml: %w", errCtx, err,
		)
	}

	if rf.CountFile != "" {
		c.CountFile = rf.CountFile
	}

	if rf.WorkBranch != "" {
		c.WorkBranch = rf.WorkBranch
	}

	if len(rf.ExcludedDirs) > 0 {
		c.ExcludedDirs = rf.ExcludedDirs
	}

	if rf.CommitMessage != "" {
		c.CommitMessage = rf.CommitMessage
	}

	if rf.PRTitle != "" {
		c.PRTitle = rf.PRTitle
	}

	if rf.PRBody != "" {
		c.PRBody = rf.PRBody
	}

	return nil
}

// RemoteURL returns the https remote URL of the
// repository. With withToken set the access token is
// embedded in the userinfo part, as expected by
// authenticated fetches and pushes.
func (c *Config) RemoteURL(withToken bool) string {
	host := c.Host
	if host == "" {
		host = "github.com"
		if c.Server == "gitlab" {
			host = "gitlab.com"
		}
	}

	if !withToken {
		return "https://" + host + "/" + c.Repository
	}

	user := "x-access-token"
	if c.Server == "gitlab" {
		user = "oauth2"
	}

	return "https://" + user + ":" + c.Token + "@" +
		host + "/" + c.Repository
}

// envOr returns the value of the named variable or def
// when unset or empty.
func envOr(name string, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}

	return def
}

// envBool parses the named variable as a boolean,
// treating unset or malformed values as false.
func envBool(name string) bool {
	v, err := strconv.ParseBool(os.Getenv(name))
	if err != nil {
		return false
	}

	return v
}
