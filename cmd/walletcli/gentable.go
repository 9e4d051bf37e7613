package main

import (
	"bufio"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/takakv/msc-wallet/elgamal"
	"github.com/takakv/msc-wallet/group"
)

func (c *cli) gentableCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "gentable",
		Short: "Write a decryption table over the BLS12-381 G1 generator.",
		Long: `Write a baby-step giant-step table with table.size baby steps. Larger tables
decrypt faster and take more memory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if cfg.Table.Size == 0 {
				return errors.New("table.size must be positive")
			}
			logger, err := newLogger(cfg.Log.Level)
			if err != nil {
				return err
			}
			defer logger.Sync()

			table := elgamal.NewBabyStepGiantStep(group.BLS12381G1().Generator(), cfg.Table.Size)
			f, err := os.Create(out)
			if err != nil {
				return errors.Wrap(err, "creating table file")
			}
			w := bufio.NewWriter(f)
			n, err := table.WriteTo(w)
			if err == nil {
				err = w.Flush()
			}
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return errors.Wrapf(err, "writing %s", out)
			}
			logger.Sugar().Infof("wrote table of %d baby steps (%d bytes) to %s", cfg.Table.Size, n, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "table.bin", "output file")
	cmd.Flags().Uint64("size", 0, "number of baby steps (overrides table.size)")
	_ = c.v.BindPFlag("table.size", cmd.Flags().Lookup("size"))
	return cmd
}
