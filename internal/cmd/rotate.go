package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wayneeseguin/scriptlog/pkg/scriptlog"
)

func newRotateCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rotate",
		Short: "Rotate the log file now",
		Long: `Rotate the log file now, regardless of the rotation policy.

The active file becomes <name>.1.log and older backups shift up. With
compress enabled the backups are merged into <name>-archive.zip.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			cfg.Console.Enabled = false
			cfg.EventLog.Enabled = false

			logger, err := scriptlog.New(cfg)
			if err != nil {
				return err
			}
			defer logger.Close()

			if err := logger.Rotate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rotated %s\n", logger.FilePath())
			return nil
		},
	}
}
