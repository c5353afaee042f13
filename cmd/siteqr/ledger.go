package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"siteqr/internal/files"
	"siteqr/internal/models"
)

func newLedgerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the record of issued tokens",
	}

	var site string
	list := &cobra.Command{
		Use:   "list",
		Short: "List issued tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ledger, err := files.OpenLedger(ctx, a.cfg.Ledger.Driver, a.cfg.LedgerPath())
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer ledger.Close()

			var tokens []models.IssuedToken
			if site != "" {
				tokens, err = ledger.BySite(ctx, site)
			} else {
				tokens, err = ledger.List(ctx)
			}
			if err != nil {
				return err
			}
			if len(tokens) == 0 {
				a.ui.Info("No issued tokens")
				return nil
			}

			tbl := a.ui.NewTable("SITE", "QR CODE", "KEY ID", "GENERATED", "EXPIRES", "RUN")
			for _, t := range tokens {
				tbl.AddRow(t.SiteID, t.QRCode, t.KeyID, t.GeneratedAt, t.ExpiresAt, t.RunID)
			}
			tbl.Render()
			a.ui.Subtle(fmt.Sprintf("%d tokens", len(tokens)))
			return nil
		},
	}
	list.Flags().StringVar(&site, "site", "", "only tokens for this site ID")

	cmd.AddCommand(list)
	return cmd
}
