package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ishaan812/contribsum/internal/db"
)

var (
	dbPath  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "contribsum",
	Short: "ContribSum - AI summaries of GitHub contributor activity",
	Long: `ContribSum ingests GitHub activity (issues, commits) for a set of
repositories and produces layered AI-generated summaries: per issue,
per commit, per contributor within a repository, and per contributor
overall.

Use 'contribsum ingest' to pull raw activity, 'contribsum run' to
execute the summarization pipeline, and 'contribsum status' to see
progress. Runs are idempotent: already-summarized records are never
reprocessed unless cleared with 'contribsum clear'.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if dbPath != "" {
			db.SetDBPath(dbPath)
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Custom database path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

// VerboseLog prints a message only when --verbose is set
func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Printf("[verbose] "+format+"\n", args...)
	}
}
