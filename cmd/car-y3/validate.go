package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cartools/car-y3/internal/corpus"
	"github.com/cartools/car-y3/internal/outline"
	"github.com/cartools/car-y3/internal/page"
	apperrors "github.com/cartools/car-y3/internal/pkg/errors"
	"github.com/cartools/car-y3/internal/pkg/fileio"
	"github.com/cartools/car-y3/internal/pkg/logger"
	"github.com/cartools/car-y3/internal/submission"
	"github.com/cartools/car-y3/internal/validate"
)

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check submission files against the outline",
		Long: `Validate checks submission files for format problems, outline
coverage and paragraph budget violations. Findings are reported on
stderr; the exit status is nonzero when any error-severity finding or
parse failure is present.`,
		RunE: runValidate,
	}

	cmd.Flags().String("outline", "", "Outline cbor file (required)")
	cmd.Flags().String("json-file", "", "Single submission file to check")
	cmd.Flags().String("json-dir", "", "Directory of submission files to check")
	cmd.Flags().String("compression", "", "Input compression when not clear from the file name (gz, xz, bz2)")
	cmd.Flags().IntP("top-k", "k", 0, "Paragraph budget per page")
	cmd.Flags().Bool("check-y3", false, "Enable the strict TREC CAR Y3 submission checks")
	cmd.Flags().Bool("check-origins", false, "Require paragraph origins on every page")
	cmd.Flags().String("corpus", "", "Check paragraph ids and text against this corpus cbor file (slow)")
	cmd.Flags().String("id-list", "", "Check paragraph ids against this id list (*.txt or *.txt.xz)")
	cmd.Flags().Bool("submission-check", false, "Run the checks performed during submission upload")
	cmd.Flags().Bool("fail-on-first", false, "Stop at the first error instead of listing all issues")
	cmd.Flags().Bool("print-json", false, "Print the problematic JSON next to each finding")
	cmd.Flags().Bool("confirm", false, "Confirm correct files on stdout")
	cmd.Flags().Bool("rules", false, "Print the validation rules and exit")

	return cmd
}

// validateOptions carries the per-file settings of a validation pass.
type validateOptions struct {
	compression string
	corpusPath  string
	idSet       map[string]struct{}
	printJSON   bool
	confirm     bool
	failFast    bool
}

func runValidate(cmd *cobra.Command, args []string) error {
	if rules, _ := cmd.Flags().GetBool("rules"); rules {
		fmt.Print(validate.Rules())
		return nil
	}

	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	outlinePath, _ := cmd.Flags().GetString("outline")
	jsonFile, _ := cmd.Flags().GetString("json-file")
	jsonDir, _ := cmd.Flags().GetString("json-dir")
	compression, _ := cmd.Flags().GetString("compression")
	checkY3, _ := cmd.Flags().GetBool("check-y3")
	checkOrigins, _ := cmd.Flags().GetBool("check-origins")
	corpusPath, _ := cmd.Flags().GetString("corpus")
	idListPath, _ := cmd.Flags().GetString("id-list")
	submissionCheck, _ := cmd.Flags().GetBool("submission-check")
	failFast, _ := cmd.Flags().GetBool("fail-on-first")
	printJSON, _ := cmd.Flags().GetBool("print-json")
	confirm, _ := cmd.Flags().GetBool("confirm")

	topK := cfg.Validate.TopK
	if cmd.Flags().Changed("top-k") {
		topK, _ = cmd.Flags().GetInt("top-k")
	}

	// The upload check pins the paragraph budget, strict checks and
	// fail-fast behavior, and falls back to the configured id list.
	if submissionCheck {
		if idListPath == "" {
			idListPath = cfg.Validate.IDListFile
		}
		if corpusPath == "" {
			if _, err := os.Stat(idListPath); err != nil {
				return apperrors.UsageError(fmt.Sprintf(
					"paragraph id file needed but %q does not exist, set it with --id-list or create it with \"car-y3 para-ids --corpus CBOR -o %s\"",
					idListPath, idListPath))
			}
		}
		topK = cfg.Validate.TopK
		checkY3 = true
		failFast = true
	}

	if topK < 1 {
		return apperrors.UsageError("top-k must be positive")
	}
	if outlinePath == "" {
		return apperrors.UsageError("--outline is required")
	}
	if jsonFile == "" && jsonDir == "" {
		return apperrors.UsageError("at least one of --json-file and --json-dir is required")
	}

	ix, err := outline.Load(outlinePath, log)
	if err != nil {
		return err
	}

	policy := validate.Policy{
		TopK:           topK,
		StrictY3:       checkY3,
		RequireOrigins: checkOrigins,
		SquidNamespace: cfg.Validate.SquidNamespace,
		RunIDMaxLen:    cfg.Validate.RunIDMaxLen,
		FailFast:       failFast,
	}
	v := validate.New(ix, policy)

	opts := validateOptions{
		compression: compression,
		corpusPath:  corpusPath,
		printJSON:   printJSON,
		confirm:     confirm,
		failFast:    failFast,
	}
	if corpusPath == "" && idListPath != "" {
		idSet, err := corpus.LoadIDSet(idListPath)
		if err != nil {
			return err
		}
		log.Info("paragraph id list loaded", "path", idListPath, "ids", len(idSet))
		opts.idSet = idSet
	}

	var paths []string
	if jsonDir != "" {
		entries, err := os.ReadDir(jsonDir)
		if err != nil {
			return apperrors.IOError(fmt.Sprintf("listing %s", jsonDir), err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if strings.HasSuffix(fileio.StripCompression(e.Name()), ".jsonl") {
				paths = append(paths, filepath.Join(jsonDir, e.Name()))
			}
		}
		sort.Strings(paths)
	}
	if jsonFile != "" {
		paths = append(paths, jsonFile)
	}
	if len(paths) == 0 {
		log.Warn("no submission files found", "dir", jsonDir)
	}

	correct := true
	for _, path := range paths {
		ok, err := validateFile(path, v, opts, log)
		if err != nil {
			return err
		}
		correct = correct && ok
	}

	if !correct {
		return apperrors.ValidationError("submission has validation errors")
	}
	return nil
}

// validateFile checks one submission file and reports findings on
// stderr. It returns whether the file is free of error-severity
// findings; the error return is for fail-fast aborts and hard failures
// such as unreadable inputs.
func validateFile(path string, v *validate.Validator, opts validateOptions, log *logger.Logger) (bool, error) {
	f, err := fileio.OpenWith(path, opts.compression)
	if err != nil {
		return false, err
	}
	pages, parseErrs := submission.Read(f, path, opts.failFast)
	f.Close()

	rep := validate.NewReport(path)
	rep.AddParseErrors(parseErrs...)
	if opts.failFast && len(parseErrs) > 0 {
		rep.Print(os.Stderr, opts.printJSON)
		return false, apperrors.FormatError(fmt.Sprintf("parsing %s", path), parseErrs[0])
	}

	found := make(map[string]*page.Page, len(pages))
	reg := validate.NewRegistry()
	for _, pg := range pages {
		found[pg.Squid] = pg
		reg.AddPage(pg)
		if err := v.CheckPage(rep, pg); err != nil {
			rep.Print(os.Stderr, opts.printJSON)
			return false, err
		}
	}

	v.CheckCoverage(rep, found)

	if opts.corpusPath != "" {
		if err := v.VerifyParagraphText(rep, reg, opts.corpusPath, log); err != nil {
			rep.Print(os.Stderr, opts.printJSON)
			return false, err
		}
	} else if opts.idSet != nil {
		if err := v.VerifyParagraphIDs(rep, reg, opts.idSet); err != nil {
			rep.Print(os.Stderr, opts.printJSON)
			return false, err
		}
	}

	rep.Print(os.Stderr, opts.printJSON)

	if opts.confirm && rep.Empty() {
		fmt.Printf("%s is in correct TREC CAR Y3 format.\n", path)
	}
	return !rep.HasErrors(), nil
}
