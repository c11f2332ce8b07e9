package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cartools/car-y3/internal/evaluate"
	"github.com/cartools/car-y3/internal/outline"
	"github.com/cartools/car-y3/internal/page"
	apperrors "github.com/cartools/car-y3/internal/pkg/errors"
	"github.com/cartools/car-y3/internal/qrel"
	"github.com/cartools/car-y3/internal/submission"
)

func evalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Score submission orderings against the ground truth",
		Long: `Eval scores each submitted page ordering against facet relevance
judgments and gold article orderings, printing per-run means with
standard errors for every metric.`,
		RunE: runEval,
	}

	cmd.Flags().String("outline", "", "Outline cbor file (required)")
	cmd.Flags().String("json-file", "", "Single submission file to score")
	cmd.Flags().String("json-dir", "", "Directory of submission files to score")
	cmd.Flags().String("qrels", "", "Qrel file with the ground truth facet relevance (required)")
	cmd.Flags().String("compat", "", "Compat file translating year 2 section ids to year 3 ids")
	cmd.Flags().Int("max-relevance", 0, "Maximum relevance in the qrels, taken from the qrels when omitted")
	cmd.Flags().String("gold-pages", "", "Pages cbor file with the gold paragraph sequences (required)")
	_ = cmd.MarkFlagRequired("outline")
	_ = cmd.MarkFlagRequired("qrels")
	_ = cmd.MarkFlagRequired("gold-pages")

	return cmd
}

func runEval(cmd *cobra.Command, args []string) error {
	_, log, err := setup(cmd)
	if err != nil {
		return err
	}

	outlinePath, _ := cmd.Flags().GetString("outline")
	jsonFile, _ := cmd.Flags().GetString("json-file")
	jsonDir, _ := cmd.Flags().GetString("json-dir")
	qrelsPath, _ := cmd.Flags().GetString("qrels")
	compatPath, _ := cmd.Flags().GetString("compat")
	maxRel, _ := cmd.Flags().GetInt("max-relevance")
	goldPath, _ := cmd.Flags().GetString("gold-pages")

	if jsonFile == "" && jsonDir == "" {
		return apperrors.UsageError("at least one of --json-file and --json-dir is required")
	}

	var translate map[string]string
	if compatPath != "" {
		entries, err := qrel.LoadCompat(compatPath)
		if err != nil {
			return err
		}
		translate = qrel.CompatMap(entries)
		log.Info("compat map loaded", "path", compatPath, "entries", len(translate))
	}

	qf, err := qrel.Load(qrelsPath, translate, log)
	if err != nil {
		return err
	}
	if maxRel <= 0 {
		maxRel = qf.MaxRelevance()
	}

	ix, err := outline.Load(outlinePath, log)
	if err != nil {
		return err
	}

	ev := evaluate.New(ix, maxRel, log)
	if err := ev.LoadQrels(qf); err != nil {
		return err
	}
	if err := ev.LoadGoldPages(goldPath); err != nil {
		return err
	}

	var pages []*page.Page
	if jsonDir != "" {
		results, err := submission.ReadDir(jsonDir, true)
		if err != nil {
			return err
		}
		for _, res := range results {
			if len(res.Errors) > 0 {
				return apperrors.FormatError(fmt.Sprintf("parsing %s", res.Path), res.Errors[0])
			}
			pages = append(pages, res.Pages...)
		}
	}
	if jsonFile != "" {
		filePages, parseErrs, err := submission.ReadFile(jsonFile, true)
		if err != nil {
			return err
		}
		if len(parseErrs) > 0 {
			return apperrors.FormatError(fmt.Sprintf("parsing %s", jsonFile), parseErrs[0])
		}
		pages = append(pages, filePages...)
	}

	var scores []evaluate.PageScore
	for _, pg := range pages {
		pageScores, err := ev.EvaluatePage(pg)
		if err != nil {
			if apperrors.IsNotFound(err) {
				log.WithPage(pg.Squid).Warn("page not in outline, skipping")
				continue
			}
			return err
		}
		scores = append(scores, pageScores...)
	}
	log.Info("pages scored", "pages", len(pages), "scores", len(scores))

	for _, s := range evaluate.Summarize(scores, ix.Len()) {
		fmt.Printf("%s \t %s \t %f +/- %f\n", s.RunID, s.Metric, s.Mean, s.StdErr)
	}
	return nil
}
