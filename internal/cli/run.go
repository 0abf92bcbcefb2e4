package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ishaan812/contribsum/internal/config"
	"github.com/ishaan812/contribsum/internal/pipeline"
)

var runPhaseFlag int

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the summarization pipeline",
	Long: `Run the 4-phase summarization pipeline over ingested data.

Phases:
  1. Issues           - summarize each issue
  2. Commits          - summarize each commit, detect technologies
  3. Repository work  - summarize each contributor's work per repository
  4. Contributors     - build each contributor's cross-repository profile

Phases 3 and 4 only process groups whose inputs are fully summarized,
so partially failed runs pick up where they left off on the next
invocation. Records that already have a summary are skipped.

Examples:
  contribsum run              # Full pipeline, phases 1-4
  contribsum run --phase 2    # Only commit summarization
  contribsum run --db x.db    # Against a specific database`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().IntVarP(&runPhaseFlag, "phase", "p", 0, "Run a single phase (1-4) instead of the full pipeline")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	orch, err := buildOrchestrator(cfg, newLogger())
	if err != nil {
		return err
	}

	if runPhaseFlag != 0 {
		phase, err := pipeline.ParsePhase(runPhaseFlag)
		if err != nil {
			return err
		}
		result, err := runOnePhase(ctx, orch, phase)
		if result != nil {
			printPhaseResult(result)
		}
		return err
	}

	run, err := runAllPhases(ctx, orch)
	if run != nil {
		for i := range run.Results {
			printPhaseResult(&run.Results[i])
		}
		printRunSummary(run)
	}
	return err
}

func runOnePhase(ctx context.Context, orch *pipeline.Orchestrator, phase pipeline.Phase) (*pipeline.PhaseResult, error) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = fmt.Sprintf(" Running phase %d (%s)...", int(phase), phase)
	s.Start()
	result, err := orch.RunPhase(ctx, phase)
	s.Stop()
	return result, err
}

func runAllPhases(ctx context.Context, orch *pipeline.Orchestrator) (*pipeline.PipelineRun, error) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Running full pipeline..."
	s.Start()
	run, err := orch.RunFullPipeline(ctx)
	s.Stop()
	return run, err
}

func printPhaseResult(result *pipeline.PhaseResult) {
	titleColor := color.New(color.FgHiCyan, color.Bold)
	successColor := color.New(color.FgHiGreen)
	failColor := color.New(color.FgHiRed)
	dimColor := color.New(color.FgHiBlack)

	titleColor.Printf("Phase %d (%s)\n", int(result.Phase), result.Phase)
	if result.Attempted == 0 {
		dimColor.Println("  nothing to do")
		return
	}
	successColor.Printf("  succeeded: %d/%d\n", result.Succeeded, result.Attempted)
	if len(result.Failed) > 0 {
		failColor.Printf("  failed:    %d\n", len(result.Failed))
		for _, f := range result.Failed {
			dimColor.Printf("    %s (%s)\n", f.ID, f.Kind)
		}
	}
}

func printRunSummary(run *pipeline.PipelineRun) {
	dimColor := color.New(color.FgHiBlack)
	fmt.Println()
	switch run.State {
	case pipeline.StateCompleted:
		color.New(color.FgHiGreen, color.Bold).Println("Pipeline completed")
	case pipeline.StateCancelled:
		color.New(color.FgHiYellow, color.Bold).Println("Pipeline cancelled")
	default:
		color.New(color.FgHiRed, color.Bold).Printf("Pipeline %s\n", run.State)
	}
	dimColor.Printf("  attempted %d, succeeded %d, failed %d in %s\n",
		run.Attempted(), run.Succeeded(), len(run.Failures()),
		run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
}
