package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"siteqr/internal/config"
	"siteqr/internal/crypto"
	"siteqr/internal/files"
	"siteqr/internal/ui"
	"siteqr/internal/utils"
)

// errReported means the command already told the user what went wrong.
var errReported = errors.New("reported")

type app struct {
	configPath string
	cfg        config.Config
	ui         *ui.UI
	logger     *utils.Logger
}

func (a *app) engine() (*crypto.Engine, error) {
	secret, err := files.ReadSecret(a.cfg)
	if err != nil {
		return nil, err
	}
	return crypto.NewEngine(secret)
}

func newRootCmd(out, errOut io.Writer) (*cobra.Command, *app) {
	a := &app{ui: ui.New(out, errOut)}

	root := &cobra.Command{
		Use:   "siteqr",
		Short: "Issue and validate encrypted QR tokens for monitoring sites",
		Long: `siteqr turns monitoring site records into encrypted, tamper-evident tokens
for printing as QR codes, and validates scanned tokens offline with the same
shared secret.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if a.cfg, err = config.Load(a.configPath); err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if a.logger, err = utils.NewLogger(a.cfg.Log.File, a.cfg.Log.Level); err != nil {
				return err
			}
			return nil
		},
	}
	root.Version = "0.1.0"
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ./siteqr.yaml or $HOME/.siteqr/siteqr.yaml)")

	root.AddCommand(
		newGenSecretCmd(a),
		newGenerateCmd(a),
		newValidateCmd(a),
		newLedgerCmd(a),
	)
	return root, a
}

// run executes the CLI and returns the process exit code.
func run(args []string, out, errOut io.Writer) int {
	root, a := newRootCmd(out, errOut)
	root.SetArgs(args)
	err := root.Execute()
	if a.logger != nil {
		a.logger.Close()
	}
	if err != nil {
		if !errors.Is(err, errReported) {
			a.ui.Error(err.Error())
		}
		return 1
	}
	return 0
}
