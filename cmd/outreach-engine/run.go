// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/outreach-engine/internal/pipeline"
	"github.com/pdiddy/outreach-engine/internal/snapshot"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: discover, profile, extract, validate, outreach",
	Long: `Run triggers each stage in order, waiting up to --stage-timeout for
each one. A stage that fails or overruns its timeout is logged and the
pipeline proceeds with whatever snapshots exist; one failing stage never
blocks the rest.

Pass --skip-outreach to stop after validation and leave delivery for a
separate invocation.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().Duration("stage-timeout", 2*time.Minute, "maximum wait per stage before proceeding")
	runCmd.Flags().Bool("skip-outreach", false, "run everything except the delivery stage")
	runCmd.Flags().StringSlice("query", nil, "search terms (overrides discovery.queries in the config)")
	runCmd.Flags().Int("days-back", defaultDaysBack, "recency window in days (0 = today only)")
	runCmd.Flags().Int("max-results", defaultMaxResults, "maximum papers fetched per query")
	runCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	runCmd.Flags().Bool("check-mx", false, "require an MX record on each candidate's domain")

	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	stageTimeout, _ := cmd.Flags().GetDuration("stage-timeout")
	skipOutreach, _ := cmd.Flags().GetBool("skip-outreach")

	store, sends, err := openStores()
	if err != nil {
		return err
	}
	defer sends.Close()

	runners := stageRunners(cmd, store, sends, os.Stdout)

	order := []string{
		snapshot.StageDiscovery,
		snapshot.StageProfiling,
		snapshot.StageExtraction,
		snapshot.StageValidation,
		snapshot.StageOutreach,
	}

	var stages []pipeline.StageRun
	for _, stage := range order {
		if skipOutreach && stage == snapshot.StageOutreach {
			continue
		}
		stages = append(stages, pipeline.StageRun{Stage: stage, Run: runners[stage]})
	}

	pipeline.NewDriver().RunAll(cmd.Context(), stages, stageTimeout, os.Stdout)
	return nil
}
