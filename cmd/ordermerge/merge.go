package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/flexigpt/ordermerge-go"
	"github.com/flexigpt/ordermerge-go/fsdocsource"
	"github.com/flexigpt/ordermerge-go/internal/config"
	"github.com/flexigpt/ordermerge-go/pdfformat"
	"github.com/flexigpt/ordermerge-go/spec"
)

type mergeFlags struct {
	output  string
	order   []string
	reverse bool
	report  string
	root    string
}

// mergeReport is written with --report.
type mergeReport struct {
	Output     string            `yaml:"output,omitempty"`
	Status     spec.MergeStatus  `yaml:"status"`
	Order      []spec.DocumentID `yaml:"order"`
	Succeeded  int               `yaml:"succeeded"`
	Failed     []spec.FailedItem `yaml:"failed,omitempty"`
	Duplicates []spec.DocumentID `yaml:"duplicates,omitempty"`
}

func newMergeCmd(root *rootFlags) *cobra.Command {
	flags := &mergeFlags{}
	cmd := &cobra.Command{
		Use:   "merge [flags] FILE...",
		Short: "Merge PDF files into one document",
		Long: `Merge reads every FILE, orders them and writes one combined PDF.

Without --order the files are merged in argument order. --order takes every
document name exactly once, comma separated. Unreadable documents are skipped
and reported; the command fails only when nothing could be merged.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			return runMerge(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), root, cfg, flags, args)
		},
	}
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default from config, "+pdfformat.DefaultOutputName+")")
	cmd.Flags().StringSliceVar(&flags.order, "order", nil, "merge order as comma separated document names")
	cmd.Flags().BoolVar(&flags.reverse, "reverse", false, "merge in reverse of the current order")
	cmd.Flags().StringVar(&flags.report, "report", "", "write a YAML report of the merge to this file")
	cmd.Flags().StringVar(&flags.root, "root", "", "resolve FILE arguments under this directory")
	return cmd
}

func runMerge(
	ctx context.Context,
	stdout, stderr io.Writer,
	root *rootFlags,
	cfg *config.Config,
	flags *mergeFlags,
	paths []string,
) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := root.logger(cfg, stderr)

	docs, err := loadDocuments(ctx, cfg, flags.root, paths)
	if err != nil {
		return err
	}

	rt, err := newRuntime(cfg, logger)
	if err != nil {
		return err
	}

	id, err := rt.NewSession(ctx)
	if err != nil {
		return err
	}
	sess := rt.Session(id)
	defer func() {
		if err := sess.Close(context.Background()); err != nil {
			logger.Warn("close session", "session", string(id), "err", err)
		}
	}()

	replaced, err := sess.ReplaceDocuments(ctx, docs)
	if err != nil {
		return err
	}
	view := replaced.SessionView

	if next := nextOrder(view.Order, flags); next != nil {
		view, err = sess.Reorder(ctx, view.Epoch, next)
		if err != nil {
			return err
		}
	}

	fmt.Fprintln(stdout, "Merge order:")
	for i, d := range view.Order {
		fmt.Fprintf(stdout, "%d. %s\n", i+1, d)
	}

	res, mergeErr := sess.Merge(ctx, view.Epoch, func(p spec.Progress) {
		status := "ok"
		if p.Failed {
			status = "skipped"
		}
		fmt.Fprintf(stdout, "[%d/%d] %3.0f%% %s (%s)\n", p.Step, p.Total, p.Fraction*100, p.ID, status)
	})

	out := flags.output
	if out == "" {
		out = cfg.Output
	}
	if out == "" {
		out = pdfformat.DefaultOutputName
	}

	if flags.report != "" {
		rep := mergeReport{
			Status:     res.Status,
			Order:      view.Order,
			Succeeded:  res.SucceededCount,
			Failed:     res.FailedItems,
			Duplicates: replaced.Duplicates,
		}
		if res.HasOutput() {
			rep.Output = out
		}
		if err := writeReport(flags.report, rep); err != nil {
			return errors.Join(mergeErr, err)
		}
	}

	for _, f := range res.FailedItems {
		fmt.Fprintf(stderr, "skipped %s: %s\n", f.ID, f.Reason)
	}
	if mergeErr != nil {
		return mergeErr
	}

	if err := os.WriteFile(out, res.Output, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(stdout, "Wrote %s (%d of %d documents, %d bytes)\n",
		out, res.SucceededCount, len(view.Order), len(res.Output))
	return nil
}

// newRuntime builds a runtime from the session and pdf sections of cfg.
func newRuntime(cfg *config.Config, logger *slog.Logger) (*ordermerge.Runtime, error) {
	pdf, err := pdfformat.New(
		pdfformat.WithValidation(cfg.PDF.Validation),
		pdfformat.WithDividerPage(cfg.PDF.DividerPage),
	)
	if err != nil {
		return nil, err
	}
	return ordermerge.New(
		ordermerge.WithLogger(logger),
		ordermerge.WithFormat(pdf),
		ordermerge.WithSessionTTL(cfg.Session.TTL),
		ordermerge.WithMaxSessions(cfg.Session.MaxSessions),
		ordermerge.WithMaxDocuments(cfg.Session.MaxDocuments),
		ordermerge.WithDuplicatePolicy(policyOrDefault(cfg.Session.DuplicatePolicy)),
	)
}

func loadDocuments(ctx context.Context, cfg *config.Config, rootDir string, paths []string) ([]spec.Document, error) {
	opts := []fsdocsource.Option{
		fsdocsource.WithMaxFileSize(cfg.Input.MaxFileSize),
	}
	if cfg.Input.Collisions != "" {
		opts = append(opts, fsdocsource.WithCollisionPolicy(fsdocsource.CollisionPolicy(cfg.Input.Collisions)))
	}
	if cfg.Input.Concurrency > 0 {
		opts = append(opts, fsdocsource.WithConcurrency(cfg.Input.Concurrency))
	}
	if rootDir != "" {
		opts = append(opts, fsdocsource.WithRoot(rootDir))
	}
	loader, err := fsdocsource.New(opts...)
	if err != nil {
		return nil, err
	}
	return loader.Load(ctx, paths)
}

// nextOrder returns the order requested by flags, or nil to keep current.
func nextOrder(current []spec.DocumentID, flags *mergeFlags) []spec.DocumentID {
	var next []spec.DocumentID
	if len(flags.order) > 0 {
		next = make([]spec.DocumentID, 0, len(flags.order))
		for _, s := range flags.order {
			next = append(next, spec.DocumentID(strings.TrimSpace(s)))
		}
	}
	if flags.reverse {
		if next == nil {
			next = slices.Clone(current)
		}
		slices.Reverse(next)
	}
	return next
}

func policyOrDefault(p spec.DuplicatePolicy) spec.DuplicatePolicy {
	if p == "" {
		return spec.DuplicateLastWins
	}
	return p
}

func writeReport(path string, rep mergeReport) error {
	b, err := yaml.Marshal(rep)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
