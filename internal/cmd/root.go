package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/wayneeseguin/scriptlog/pkg/scriptlog"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configFile string
	viper      *viper.Viper
}

// NewRootCommand builds the scriptlog command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "scriptlog",
		Short: "Structured, rotating log files for shell scripts",
		Long: `scriptlog appends structured records to a rotating log file (and
optionally the console and OS event log) so shell scripts get the same
logging as long-running programs.

Settings come from scriptlog.yaml in the working directory or
~/.config/scriptlog, SCRIPTLOG_* environment variables and flags.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.initConfig(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "config file (default is ./scriptlog.yaml or $HOME/.config/scriptlog/scriptlog.yaml)")
	flags.StringP("name", "n", "", "log name, the file is <path>/<name>.log")
	flags.StringP("path", "p", "", "log directory")
	flags.String("format", "", "line format: text or json")
	flags.String("rotation", "", `rotation policy, e.g. "10M", "7", "daily", "2w"`)
	flags.Bool("console", false, "also write to the console")

	root.AddCommand(newWriteCommand(opts))
	root.AddCommand(newRotateCommand(opts))
	root.AddCommand(newConfigCommand(opts))
	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}

func (o *rootOptions) initConfig(cmd *cobra.Command) error {
	v := scriptlog.NewViper()

	bindings := map[string]string{
		"log_name":        "name",
		"log_path":        "path",
		"format":          "format",
		"rotation":        "rotation",
		"console.enabled": "console",
	}
	flags := cmd.Root().PersistentFlags()
	for key, flag := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return err
		}
	}

	if err := scriptlog.ReadConfigFile(v, o.configFile); err != nil {
		return err
	}
	o.viper = v
	return nil
}

func (o *rootOptions) loadConfig() (*scriptlog.Config, error) {
	return scriptlog.Unmarshal(o.viper)
}
