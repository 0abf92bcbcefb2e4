package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ishaan812/contribsum/internal/config"
	"github.com/ishaan812/contribsum/internal/db"
	"github.com/ishaan812/contribsum/internal/git"
	"github.com/ishaan812/contribsum/internal/github"
)

var (
	ingestDays  int
	ingestAll   bool
	ingestSince string
	ingestLocal bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [owner/repo | path]",
	Short: "Ingest GitHub activity into the database",
	Long: `Ingest raw activity for one or more repositories.

With an owner/repo argument, issues, commits, and contributors are
pulled from the GitHub API (set a token via 'contribsum configure' or
GITHUB_TOKEN to avoid rate limits). With a local path or --local, the
commit history of the clone is walked instead; local ingestion has no
issue data.

Without arguments, every repository previously ingested from GitHub
is refreshed.

Ingestion is append-only: re-running it never touches existing records
or their summaries.

Examples:
  contribsum ingest golang/go          # From the GitHub API
  contribsum ingest ~/src/myproject    # From a local clone
  contribsum ingest --days 90 owner/r  # Only the last 90 days
  contribsum ingest                    # Refresh all tracked repos`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().IntVar(&ingestDays, "days", 30, "Number of days of history to ingest")
	ingestCmd.Flags().BoolVar(&ingestAll, "all", false, "Ingest full history (ignores --days)")
	ingestCmd.Flags().StringVar(&ingestSince, "since", "", "Ingest activity since date (YYYY-MM-DD)")
	ingestCmd.Flags().BoolVar(&ingestLocal, "local", false, "Treat the argument as a local clone path")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	since, err := sinceTime()
	if err != nil {
		return err
	}

	store, err := db.GetStore()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if len(args) == 1 && (ingestLocal || looksLikePath(args[0])) {
		return ingestLocalClone(ctx, store, args[0], since)
	}

	var repos []string
	if len(args) == 1 {
		repos = []string{args[0]}
	} else {
		repos = cfg.Repos
	}
	if len(repos) == 0 {
		return fmt.Errorf("nothing to ingest: pass an owner/repo or ingest one first")
	}

	client := github.NewClient(cfg.GitHubAPIURL, cfg.GetGitHubToken())
	ingestor := github.NewIngestor(client, store, newLogger(), cfg.GetConcurrency())

	successColor := color.New(color.FgHiGreen)
	for _, repo := range repos {
		owner, name, err := splitRepo(repo)
		if err != nil {
			return err
		}

		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = fmt.Sprintf(" Ingesting %s...", repo)
		s.Start()
		stats, err := ingestor.IngestRepository(ctx, owner, name, since)
		s.Stop()
		if err != nil {
			return err
		}

		successColor.Printf("✓ %s: %d issues, %d commits, %d contributors\n",
			repo, stats.Issues, stats.Commits, stats.Contributors)
		cfg.AddRepo(repo)
	}

	if err := cfg.Save(); err != nil {
		VerboseLog("Warning: failed to save config: %v", err)
	}
	return nil
}

func ingestLocalClone(ctx context.Context, store *db.Store, path string, since time.Time) error {
	repo, err := git.OpenRepo(path)
	if err != nil {
		return err
	}
	repoID := git.ParseOwnerRepo(repo.OriginURL(), repo.Path())

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = fmt.Sprintf(" Walking %s...", repoID)
	s.Start()
	count, err := git.IngestClone(ctx, store, repo, repoID, since, 0)
	s.Stop()
	if err != nil {
		return err
	}

	color.New(color.FgHiGreen).Printf("✓ %s: %d commits from local history\n", repoID, count)
	return nil
}

func sinceTime() (time.Time, error) {
	if ingestSince != "" {
		t, err := time.Parse("2006-01-02", ingestSince)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --since date %q, expected YYYY-MM-DD", ingestSince)
		}
		return t, nil
	}
	if ingestAll {
		return time.Time{}, nil
	}
	return time.Now().AddDate(0, 0, -ingestDays), nil
}

func looksLikePath(arg string) bool {
	if strings.HasPrefix(arg, ".") || strings.HasPrefix(arg, "/") || strings.HasPrefix(arg, "~") {
		return true
	}
	info, err := os.Stat(arg)
	return err == nil && info.IsDir()
}

func splitRepo(repo string) (string, string, error) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("expected owner/repo, got %q", repo)
	}
	return parts[0], parts[1], nil
}
