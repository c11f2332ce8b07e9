package main

import (
	"github.com/spf13/cobra"

	"github.com/cartools/car-y3/internal/outline"
	"github.com/cartools/car-y3/internal/page"
	apperrors "github.com/cartools/car-y3/internal/pkg/errors"
	"github.com/cartools/car-y3/internal/populate"
	"github.com/cartools/car-y3/internal/runfile"
	"github.com/cartools/car-y3/internal/submission"
	"github.com/cartools/car-y3/internal/validate"
)

func populateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "populate",
		Short: "Turn TREC run files into populated page orderings",
		Long: `Populate reads section-level TREC run files and an outline and writes
one submission file per run, interleaving the per-facet rankings into a
paragraph ordering of at most k paragraphs per page.`,
		RunE: runPopulate,
	}

	cmd.Flags().String("outline", "", "Outline cbor file (required)")
	cmd.Flags().String("run-file", "", "Single run file to convert")
	cmd.Flags().String("run-dir", "", "Directory of run files to convert")
	cmd.Flags().String("run-name", "", "Override the run name of --run-file")
	cmd.Flags().StringP("output-dir", "o", "", "Output directory, one file per run (required)")
	cmd.Flags().IntP("top-k", "k", 0, "Paragraph budget per page")
	cmd.Flags().Bool("remove-duplicates", true, "Drop repeated paragraphs during population")
	cmd.Flags().Bool("page-runs", false, "Treat run files as page-level rankings")
	cmd.Flags().String("text-from-corpus", "", "Fill paragraph text from this corpus cbor file")
	cmd.Flags().String("compression", "", "Compress output files with gz or xz")
	_ = cmd.MarkFlagRequired("outline")
	_ = cmd.MarkFlagRequired("output-dir")

	return cmd
}

func runPopulate(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	outlinePath, _ := cmd.Flags().GetString("outline")
	runFile, _ := cmd.Flags().GetString("run-file")
	runDir, _ := cmd.Flags().GetString("run-dir")
	runName, _ := cmd.Flags().GetString("run-name")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	pageRuns, _ := cmd.Flags().GetBool("page-runs")
	corpusPath, _ := cmd.Flags().GetString("text-from-corpus")
	compression, _ := cmd.Flags().GetString("compression")

	topK := cfg.Populate.TopK
	if cmd.Flags().Changed("top-k") {
		topK, _ = cmd.Flags().GetInt("top-k")
	}
	removeDuplicates := cfg.Populate.RemoveDuplicates
	if cmd.Flags().Changed("remove-duplicates") {
		removeDuplicates, _ = cmd.Flags().GetBool("remove-duplicates")
	}
	if compression == "" {
		compression = cfg.Output.Compression
	}

	if topK < 1 {
		return apperrors.UsageError("top-k must be positive")
	}
	if runFile == "" && runDir == "" {
		return apperrors.UsageError("at least one of --run-file and --run-dir is required")
	}
	if runName != "" {
		if err := validate.CheckRunID(runName, cfg.Validate.RunIDMaxLen); err != nil {
			return apperrors.UsageError(err.Error())
		}
	}

	ix, err := outline.Load(outlinePath, log)
	if err != nil {
		return err
	}

	var runs []*runfile.Run
	if runDir != "" {
		dirRuns, err := runfile.LoadDir(runDir, topK, log)
		if err != nil {
			return err
		}
		runs = append(runs, dirRuns...)
	}
	if runFile != "" {
		run, err := runfile.Load(runFile, topK, runName, log)
		if err != nil {
			return err
		}
		runs = append(runs, run)
	}

	var pages []*page.Page
	if pageRuns {
		pages, err = populate.PageLevelPages(ix, runs, topK, log)
	} else {
		pages, err = populate.FacetLevelPages(ix, runs, topK, removeDuplicates, log)
	}
	if err != nil {
		return err
	}
	log.Info("pages populated", "runs", len(runs), "pages", len(pages))

	if corpusPath != "" {
		if err := populate.FillText(pages, corpusPath, log); err != nil {
			return err
		}
	}

	_, err = submission.WriteByRun(outputDir, pages, compression, log)
	return err
}
