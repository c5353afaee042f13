package main

import (
	"github.com/spf13/cobra"

	"siteqr/internal/files"
)

// TODO(gensecret-rotate): keep the previous secret under a versioned name so
// tokens issued before a rotation can still be checked during the overlap.

func newGenSecretCmd(a *app) *cobra.Command {
	var (
		out   string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "gensecret",
		Short: "Write a new random shared secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = a.cfg.SecretFile
			}
			if err := files.WriteSecretFile(out, force); err != nil {
				return err
			}
			a.logger.Info("secret written", "path", out)
			a.ui.Success("Secret written to " + out)
			a.ui.Subtle("Distribute it to validating apps over a secure channel; never commit it.")
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output path (default: secret_file from config)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing secret file")
	return cmd
}
