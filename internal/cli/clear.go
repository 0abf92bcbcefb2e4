package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ishaan812/contribsum/internal/db"
)

var clearForce bool

var summaryKinds = []string{"issues", "commits", "repository_work", "contributors"}

var clearCmd = &cobra.Command{
	Use:   "clear [kind]",
	Short: "Clear summaries so records get reprocessed",
	Long: `Reset the summaries of one entity kind, or of everything, making
those records eligible for the pipeline again. This is the only way to
request re-summarization; the pipeline itself never reprocesses a
record that already has a summary.

Raw ingested content (titles, bodies, diffs) is never touched.

Kinds: issues, commits, repository_work, contributors

Examples:
  contribsum clear                   # Clear all summaries (with confirmation)
  contribsum clear commits           # Re-run just commit summarization
  contribsum clear contributors -f   # Skip confirmation`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().BoolVarP(&clearForce, "force", "f", false, "Skip confirmation prompt")
}

func runClear(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	warnColor := color.New(color.FgHiYellow, color.Bold)
	successColor := color.New(color.FgHiGreen)

	kinds := summaryKinds
	if len(args) == 1 {
		kind := args[0]
		if !validKind(kind) {
			return fmt.Errorf("unknown kind %q, expected one of: %s", kind, strings.Join(summaryKinds, ", "))
		}
		kinds = []string{kind}
	}

	if !clearForce {
		warnColor.Printf("This will clear summaries for: %s\n", strings.Join(kinds, ", "))
		fmt.Print("Continue? [y/N]: ")
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	store, err := db.GetStore()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	for _, kind := range kinds {
		affected, err := store.ClearSummaries(ctx, kind)
		if err != nil {
			return fmt.Errorf("failed to clear %s: %w", kind, err)
		}
		successColor.Printf("✓ cleared %d %s summaries\n", affected, kind)
	}
	return nil
}

func validKind(kind string) bool {
	for _, k := range summaryKinds {
		if k == kind {
			return true
		}
	}
	return false
}
