package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ishaan812/contribsum/internal/db"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show summarization progress per entity kind",
	Long: `Show how many records of each kind exist and how many still
need a summary. A kind with unsummarized=0 has nothing left for its
phase to do.

Examples:
  contribsum status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	store, err := db.GetStore()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		return fmt.Errorf("failed to query counts: %w", err)
	}

	titleColor := color.New(color.FgHiCyan, color.Bold)
	doneColor := color.New(color.FgHiGreen)
	pendingColor := color.New(color.FgHiYellow)
	dimColor := color.New(color.FgHiBlack)

	fmt.Println()
	titleColor.Println("Summarization Status")
	dimColor.Printf("  %-16s %8s %12s %14s\n", "kind", "total", "summarized", "unsummarized")
	for _, kc := range counts {
		fmt.Printf("  %-16s %8d %12d ", kc.Kind, kc.Total, kc.Summarized)
		if kc.Unsummarized == 0 {
			doneColor.Printf("%14d\n", kc.Unsummarized)
		} else {
			pendingColor.Printf("%14d\n", kc.Unsummarized)
		}
	}
	fmt.Println()
	return nil
}
