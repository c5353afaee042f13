package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"siteqr/internal/codec"
	"siteqr/internal/files"
	"siteqr/internal/generator"
	"siteqr/internal/models"
)

// generateOutput is the file handed to the QR renderer.
type generateOutput struct {
	Summary generator.Summary    `json:"summary"`
	Tokens  []models.IssuedToken `json:"tokens"`
}

func newGenerateCmd(a *app) *cobra.Command {
	var (
		csvPath  string
		outPath  string
		noLedger bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Issue tokens for every site in a CSV export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := os.Open(csvPath)
			if err != nil {
				return err
			}
			records, err := generator.LoadCSV(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", csvPath, err)
			}

			engine, err := a.engine()
			if err != nil {
				return err
			}

			opts := []generator.Option{
				generator.WithCodec(codec.New(codec.WithValidity(a.cfg.Validity()))),
				generator.WithWorkers(a.cfg.Workers),
				generator.WithLogger(a.logger.Slog()),
			}
			if !noLedger {
				ledger, err := files.OpenLedger(ctx, a.cfg.Ledger.Driver, a.cfg.LedgerPath())
				if err != nil {
					return fmt.Errorf("open ledger: %w", err)
				}
				defer ledger.Close()
				opts = append(opts, generator.WithLedger(ledger))
			}

			report := generator.New(engine, opts...).Generate(ctx, records)

			out := generateOutput{Summary: report.Summary(), Tokens: report.Issued}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, data, 0644); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}

			a.printReport(report, outPath)
			if report.Total > 0 && len(report.Issued) == 0 {
				return errReported
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "monitoring sites CSV export")
	cmd.Flags().StringVar(&outPath, "out", "tokens.json", "where to write issued tokens")
	cmd.Flags().BoolVar(&noLedger, "no-ledger", false, "do not record issued tokens in the ledger")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

func (a *app) printReport(r generator.Report, outPath string) {
	a.ui.Header("Generation Summary")
	a.ui.KeyValue("run", r.RunID)
	a.ui.KeyValue("key id", r.KeyID)
	if len(r.Issued) > 0 {
		a.ui.Success(fmt.Sprintf("Issued %d/%d tokens", len(r.Issued), r.Total))
	}
	if len(r.Failures) > 0 {
		a.ui.Warning(fmt.Sprintf("Failed %d/%d records", len(r.Failures), r.Total))
		for _, f := range r.Failures {
			a.ui.ListItem(f.Error())
		}
	}
	a.ui.Subtle("Tokens written to " + outPath)
}
