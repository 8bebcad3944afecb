// Package cli holds the runagent commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"runagent/logging"
)

// Version is the runagent release, set at build time.
var Version = "0.1.0"

// errAgentFailed marks a command whose agent reply was an error string. The
// reply has already been printed, so nothing else is reported.
var errAgentFailed = errors.New("agent invocation failed")

type rootOptions struct {
	logLevel string
	debug    bool
}

// NewRootCmd builds the runagent command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "runagent",
		Short: "Invoke a remote AI agent and get its reply as text",
		Long: `runagent posts a message to an AI agent endpoint and prints the reply.
Failures are reported in the reply itself as "Error: <description>".
It can also fill a spreadsheet column with replies, or serve the agent endpoint.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logging.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			if opts.debug {
				level = logrus.DebugLevel
			}
			logging.InitLogger(level)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error, critical)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Shorthand for --log-level debug")

	root.AddCommand(newAskCmd())
	root.AddCommand(newBatchCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetIn(os.Stdin)

	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errAgentFailed) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}
