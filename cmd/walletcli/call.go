package main

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/takakv/msc-wallet/wallet"
)

// errFailed reports an operation that produced an error response. The
// response itself has already been printed.
var errFailed = errors.New("operation failed")

func (c *cli) callCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "call <operation> <input>...",
		Short: "Invoke a wallet operation.",
		Long: `Invoke a wallet operation on JSON inputs read from files, or from stdin
when the input is "-". The response is written to stdout.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := make([][]byte, 0, len(args)-1)
			for _, name := range args[1:] {
				b, err := readInput(cmd.InOrStdin(), name)
				if err != nil {
					return err
				}
				inputs = append(inputs, b)
			}
			cmd.SilenceUsage = true

			cfg, err := c.config()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.Log.Level)
			if err != nil {
				return err
			}
			defer logger.Sync()
			s, err := wallet.NewFromConfig(cfg, wallet.WithLogger(logger))
			if err != nil {
				return err
			}

			resp := s.Invoke(wallet.Operation(args[0]), inputs...)
			defer resp.Free()
			out := cmd.OutOrStdout()
			if !resp.Success {
				out = cmd.ErrOrStderr()
			}
			if _, err := out.Write(append(resp.Payload, '\n')); err != nil {
				return err
			}
			if !resp.Success {
				return errFailed
			}
			return nil
		},
	}
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		b, err := io.ReadAll(stdin)
		return b, errors.Wrap(err, "reading stdin")
	}
	b, err := os.ReadFile(name)
	return b, errors.Wrapf(err, "reading %s", name)
}

func (c *cli) operationsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "operations",
		Short: "List the operations call accepts.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, op := range wallet.Operations {
				if _, err := io.WriteString(cmd.OutOrStdout(), string(op)+"\n"); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
