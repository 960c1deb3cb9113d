package cmd

import (
	"bufio"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/wayneeseguin/scriptlog/pkg/scriptlog"
	"github.com/wayneeseguin/scriptlog/pkg/types"
)

type writeOptions struct {
	level       string
	properties  []string
	correlation string
}

func newWriteCommand(root *rootOptions) *cobra.Command {
	opts := &writeOptions{}

	cmd := &cobra.Command{
		Use:   "write [message...]",
		Short: "Append a record to the log",
		Long: `Append a record to the log.

The message is the arguments joined by spaces. Without arguments every line
read from stdin becomes its own record:

  scriptlog write --level success "backup finished"
  scriptlog write -P host=db1 -P step=dump "dump started"
  pg_dump mydb 2>&1 | scriptlog write --level debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(cmd, root, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.level, "level", "l", "INFO", "record level: critical, error, warning, success, info, debug")
	cmd.Flags().StringArrayVarP(&opts.properties, "property", "P", nil, "key=value property attached to the record (repeatable)")
	cmd.Flags().StringVar(&opts.correlation, "correlation-id", "", "correlation id attached to the record")
	return cmd
}

func parseProperty(s string) (string, string, error) {
	key, value, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", errors.Errorf("property %q must be key=value", s)
	}
	return key, value, nil
}

func runWrite(cmd *cobra.Command, root *rootOptions, opts *writeOptions, args []string) error {
	level, err := types.ParseLevel(opts.level)
	if err != nil {
		return err
	}

	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}

	var logErrs *multierror.Error
	logger, err := scriptlog.New(cfg,
		scriptlog.WithConsoleWriter(cmd.OutOrStdout()),
		scriptlog.WithErrorHandler(func(e scriptlog.LogError) {
			logErrs = multierror.Append(logErrs, e)
		}))
	if err != nil {
		return err
	}

	for _, p := range opts.properties {
		key, value, err := parseProperty(p)
		if err != nil {
			_ = logger.Close()
			return err
		}
		logger.Push(key, value)
	}
	if opts.correlation != "" {
		logger.SetCorrelationID(opts.correlation)
	}

	if len(args) > 0 {
		logger.Log(level, strings.Join(args, " "))
	} else {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			logger.Log(level, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			logErrs = multierror.Append(logErrs, errors.Wrap(err, "read stdin"))
		}
	}

	if err := logger.Close(); err != nil {
		logErrs = multierror.Append(logErrs, err)
	}
	return logErrs.ErrorOrNil()
}
