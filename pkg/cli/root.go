// Package cli implements the dockhand command-line interface.
package cli

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/dockhand/dockhand/internal/cliconfig"
	"github.com/dockhand/dockhand/pkg/logging"
	"github.com/dockhand/dockhand/pkg/transport"
)

// state carries the resolved configuration shared by all commands.
type state struct {
	host        string
	apiVersion  string
	callTimeout time.Duration
	logLevel    string
	logJSON     bool

	log *slog.Logger
}

// connect opens the engine connection from the resolved flags.
func (s *state) connect() (*transport.Connection, error) {
	var opts []transport.Option
	if s.callTimeout > 0 {
		opts = append(opts, transport.WithCallTimeout(s.callTimeout))
	}
	return transport.Connect(s.host, opts...)
}

// NewRootCmd builds the dockhand command tree.
func NewRootCmd(version string) *cobra.Command {
	st := &state{}

	root := &cobra.Command{
		Use:           "dockhand",
		Short:         "Invoke container-engine API operations by name",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cliconfig.Load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("host") {
				st.host = cfg.Host
			}
			if !flags.Changed("api-version") {
				st.apiVersion = cfg.APIVersion
			}
			if !flags.Changed("call-timeout") && cfg.CallTimeoutMS > 0 {
				st.callTimeout = time.Duration(cfg.CallTimeoutMS) * time.Millisecond
			}
			if !flags.Changed("log-level") {
				st.logLevel = cfg.LogLevel
			}
			st.log = logging.New(logging.Config{
				Level: logging.ParseLevel(st.logLevel),
				JSON:  st.logJSON,
			})
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&st.host, "host", cliconfig.DefaultHost, "engine connection URI (unix:// or tcp://)")
	pf.StringVar(&st.apiVersion, "api-version", "", "pin the engine API version (default: latest)")
	pf.DurationVar(&st.callTimeout, "call-timeout", 0, "overall deadline per invocation (0 = unbounded)")
	pf.StringVar(&st.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.BoolVar(&st.logJSON, "log-json", false, "emit logs as JSON")

	root.AddCommand(
		newCategoriesCmd(st),
		newOperationsCmd(st),
		newDocCmd(st),
		newInvokeCmd(st),
		newVersionsCmd(),
	)
	return root
}

// Execute runs the CLI.
func Execute(version string) error {
	return NewRootCmd(version).Execute()
}
