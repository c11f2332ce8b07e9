package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cartools/car-y3/internal/corpus"
	"github.com/cartools/car-y3/internal/outline"
	"github.com/cartools/car-y3/internal/page"
	apperrors "github.com/cartools/car-y3/internal/pkg/errors"
	"github.com/cartools/car-y3/internal/submission"
)

func fillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill paragraph text into populated pages",
		Long: `Fill reads populated submission files, loads the text of every
referenced paragraph from the corpus and rewrites the files with bodies
attached, restoring titles, query facets and missing origin ranks on
the way.`,
		RunE: runFill,
	}

	cmd.Flags().String("corpus", "", "Paragraph corpus cbor file (required)")
	cmd.Flags().String("json-file", "", "Single submission file to fill")
	cmd.Flags().String("json-dir", "", "Directory of submission files to fill")
	cmd.Flags().String("outline", "", "Outline cbor file (required)")
	cmd.Flags().StringP("output-dir", "o", "", "Output directory, one file per run (required)")
	cmd.Flags().String("compression", "", "Compress output files with gz or xz")
	_ = cmd.MarkFlagRequired("corpus")
	_ = cmd.MarkFlagRequired("outline")
	_ = cmd.MarkFlagRequired("output-dir")

	return cmd
}

func runFill(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	corpusPath, _ := cmd.Flags().GetString("corpus")
	jsonFile, _ := cmd.Flags().GetString("json-file")
	jsonDir, _ := cmd.Flags().GetString("json-dir")
	outlinePath, _ := cmd.Flags().GetString("outline")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	compression, _ := cmd.Flags().GetString("compression")
	if compression == "" {
		compression = cfg.Output.Compression
	}

	if jsonFile == "" && jsonDir == "" {
		return apperrors.UsageError("at least one of --json-file and --json-dir is required")
	}

	ix, err := outline.Load(outlinePath, log)
	if err != nil {
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
				log.Warn("skipping file with parse errors", "path", res.Path, "error", res.Errors[0].Error())
				continue
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
	if len(pages) == 0 {
		return apperrors.UsageError("no pages found in the given submission files")
	}

	filler := corpus.NewFiller(log)
	for _, pg := range pages {
		filler.RegisterPage(pg)
	}
	if err := filler.Fill(corpusPath); err != nil {
		return err
	}
	log.Info("paragraph text filled", "pages", len(pages), "paragraphs", filler.Len())

	for _, pg := range pages {
		if proto, ok := ix.BySquid(pg.Squid); ok {
			if err := pg.SetOutlineMetadata(proto); err != nil {
				return err
			}
		} else {
			log.WithPage(pg.Squid).Warn("page not in outline, leaving title and query facets as submitted")
		}
		page.FillMissingRanks(pg.Origins)
	}

	_, err = submission.WriteByRun(outputDir, pages, compression, log)
	return err
}
