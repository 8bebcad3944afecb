package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"runagent/agent"
	"runagent/queue"
	"runagent/sheet"
)

type batchOptions struct {
	workbook  string
	sheet     string
	inputCol  string
	modelCol  string
	outputCol string
	header    bool
	workers   int
	serverURL string
	model     string
	out       string
}

// batchSummary counts what a batch run wrote.
type batchSummary struct {
	Rows   int
	Failed int
	Path   string
}

func newBatchCmd() *cobra.Command {
	v := viper.New()
	opts := &batchOptions{}

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Answer every message in a spreadsheet column",
		Long: `Read messages from a column of an .xlsx sheet, send each non-empty cell to
the agent as its own invocation, and write every reply into the output column
of the same row.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.serverURL = v.GetString("server_url")
			opts.model = v.GetString("model")

			summary, err := runBatch(cmd.Context(), opts, agent.NewClient())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d replies to %s (%d failed)\n", summary.Rows, summary.Path, summary.Failed)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.workbook, "workbook", "", "Path to the .xlsx workbook")
	f.StringVar(&opts.sheet, "sheet", "", "Sheet name (default: the active sheet)")
	f.StringVar(&opts.inputCol, "input-col", "A", "Column holding the messages")
	f.StringVar(&opts.modelCol, "model-col", "", "Column holding a per-row model (optional)")
	f.StringVar(&opts.outputCol, "output-col", "B", "Column receiving the replies")
	f.BoolVar(&opts.header, "header", false, "Skip the first row")
	f.IntVar(&opts.workers, "workers", 4, "Concurrent agent invocations")
	f.StringVar(&opts.out, "out", "", "Where to save the workbook (default: overwrite --workbook)")
	f.String("server-url", agent.DefaultServerURL, "Agent endpoint URL")
	f.String("model", agent.DefaultModel, "Model used for rows without their own")
	_ = cmd.MarkFlagRequired("workbook")
	bindAgentFlags(v, cmd)

	return cmd
}

func runBatch(ctx context.Context, opts *batchOptions, invoker queue.Invoker) (*batchSummary, error) {
	if strings.EqualFold(opts.inputCol, opts.outputCol) {
		return nil, errors.New("--input-col and --output-col must differ")
	}

	wb, err := sheet.Open(opts.workbook, opts.sheet)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	cells, err := wb.Cells(opts.inputCol, opts.header)
	if err != nil {
		return nil, err
	}

	dest := opts.out
	if dest == "" {
		dest = opts.workbook
	}
	summary := &batchSummary{Path: dest}
	if len(cells) == 0 {
		log.Warnf("No messages in column %s of sheet %s", opts.inputCol, wb.Sheet())
		return summary, nil
	}

	// Canceling before Shutdown stops in-flight invocations when a row fails.
	ctx, cancel := context.WithCancel(ctx)
	rq := queue.NewRequestQueue(wb.Sheet(), opts.workers, invoker)
	defer func() {
		cancel()
		rq.Shutdown()
	}()

	results := make(chan queue.RequestResult, len(cells))
	for _, cell := range cells {
		model, err := wb.Value(opts.modelCol, cell.Row)
		if err != nil {
			return nil, err
		}
		if model == "" {
			model = opts.model
		}
		req := &queue.Request{
			Row:          cell.Row,
			Message:      cell.Value,
			ServerURL:    opts.serverURL,
			Model:        model,
			ResponseChan: results,
			Context:      ctx,
		}
		if err := rq.Enqueue(req); err != nil {
			return nil, err
		}
	}

	for range cells {
		res := <-results
		if res.Result.Failed() {
			summary.Failed++
		}
		log.Debugf("Row %d answered in %s", res.Row, res.Elapsed)
		if err := wb.SetResult(opts.outputCol, res.Row, res.Result.String()); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", res.Row, err)
		}
		summary.Rows++
	}

	if err := wb.SaveAs(dest); err != nil {
		return nil, fmt.Errorf("saving %s: %w", dest, err)
	}
	return summary, nil
}
