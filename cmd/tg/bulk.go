package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/davenhall/taskgraph/internal/model"
	"github.com/davenhall/taskgraph/internal/ui"
)

var bulkCmd = &cobra.Command{
	Use:   "bulk [file]",
	Short: "Apply a batch of dependency operations from a JSON file or stdin",
	Long: `Apply a batch of dependency operations in order.

The input is a JSON array of operations:

  [
    {"kind": "create", "create": {"task_id": "t-1", "depends_on": "t-2", "type": "blocking"}},
    {"kind": "update", "id": "dep-abc", "patch": {"status": "resolved"}},
    {"kind": "delete", "id": "dep-xyz"}
  ]

Reads from stdin when no file is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = os.Stdin
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}

		var ops []model.BulkOp
		if err := json.NewDecoder(r).Decode(&ops); err != nil {
			return fmt.Errorf("parsing operations: %w", err)
		}

		continueOnError, _ := cmd.Flags().GetBool("continue-on-error")
		result, err := api.BulkMutate(context.Background(), ops, continueOnError)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(result)
			return nil
		}

		for _, item := range result.Results {
			if item.Success {
				fmt.Printf("%s %d %s\n", ui.RenderAccent("ok  "), item.Index, item.Identifier)
			} else {
				fmt.Printf("%s %d %s: %s\n", ui.RenderBad("fail"), item.Index, item.Identifier, item.Error)
			}
		}
		fmt.Printf("\n%d/%d succeeded in %dms\n",
			result.SuccessCount, result.TotalCount, result.ExecutionTimeMS)
		if result.ErrorCount > 0 {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	bulkCmd.Flags().Bool("continue-on-error", false, "keep applying after a failed operation")
}
