package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"runagent/agent"
)

var waitLogInterval = 15 * time.Second

func newAskCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "ask [message...]",
		Short: "Send one message to the agent and print the reply",
		Long: `Send one message to the agent and print the reply.
The message is the joined arguments, or standard input when none are given.
RUNAGENT_SERVER_URL and RUNAGENT_MODEL stand in for the flags.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			message, err := readMessage(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			res := awaitReply(cmd.Context(), agent.NewClient(), message, v.GetString("server_url"), v.GetString("model"))
			fmt.Fprintln(cmd.OutOrStdout(), res.String())
			if res.Failed() {
				return errAgentFailed
			}
			return nil
		},
	}

	cmd.Flags().String("server-url", agent.DefaultServerURL, "Agent endpoint URL")
	cmd.Flags().String("model", agent.DefaultModel, "Model the agent should use")
	bindAgentFlags(v, cmd)

	return cmd
}

// bindAgentFlags lets RUNAGENT_SERVER_URL and RUNAGENT_MODEL fill in the
// --server-url and --model flags.
func bindAgentFlags(v *viper.Viper, cmd *cobra.Command) {
	v.SetEnvPrefix("RUNAGENT")
	v.AutomaticEnv()
	_ = v.BindPFlag("server_url", cmd.Flags().Lookup("server-url"))
	_ = v.BindPFlag("model", cmd.Flags().Lookup("model"))
}

// awaitReply runs the invocation in the background and logs while the agent
// is still thinking.
func awaitReply(ctx context.Context, c *agent.Client, message, serverURL, model string) agent.Result {
	replies := c.InvokeAsync(ctx, message, serverURL, model)
	ticker := time.NewTicker(waitLogInterval)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case res := <-replies:
			return res
		case <-ticker.C:
			log.Infof("Still waiting for the agent at %s (%s)", serverURL, time.Since(start).Round(time.Second))
		}
	}
}

func readMessage(in io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("reading message from stdin: %w", err)
	}
	message := strings.TrimSuffix(string(data), "\n")
	return strings.TrimSuffix(message, "\r"), nil
}
