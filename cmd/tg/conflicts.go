package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/davenhall/taskgraph/internal/model"
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts <task-id>",
	Short: "Check for dependency conflicts around a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var proposed []model.DependencySpec
		if v, _ := cmd.Flags().GetStringArray("proposed"); len(v) > 0 {
			for _, pair := range v {
				spec, err := parseProposed(pair)
				if err != nil {
					return err
				}
				proposed = append(proposed, spec)
			}
		}

		report, err := api.CheckConflicts(context.Background(), args[0], proposed)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(report)
		} else {
			printConflictReport(report)
		}
		if report.HasConflicts {
			os.Exit(2)
		}
		return nil
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <task-id>",
	Short: "Resolve dependency conflicts around a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := model.ResolutionOptions{}
		opts.BreakCycles, _ = cmd.Flags().GetBool("cycles")
		opts.RemoveDuplicates, _ = cmd.Flags().GetBool("duplicates")
		opts.UpdateInvalidStatuses, _ = cmd.Flags().GetBool("statuses")
		if all, _ := cmd.Flags().GetBool("all"); all {
			opts = model.ResolutionOptions{BreakCycles: true, RemoveDuplicates: true, UpdateInvalidStatuses: true}
		}
		if !opts.BreakCycles && !opts.RemoveDuplicates && !opts.UpdateInvalidStatuses {
			return fmt.Errorf("select at least one of --cycles, --duplicates, --statuses or --all")
		}

		result, err := api.ResolveConflicts(context.Background(), args[0], opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(result)
		} else {
			printResolutionResult(result)
		}
		return nil
	},
}

// parseProposed parses "task:depends_on[:type]" into a spec.
func parseProposed(s string) (model.DependencySpec, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return model.DependencySpec{}, fmt.Errorf("invalid proposed dependency %q, want task:depends_on[:type]", s)
	}
	spec := model.DependencySpec{TaskID: parts[0], DependsOn: parts[1], Type: model.DepBlocking}
	if len(parts) == 3 {
		spec.Type = model.DependencyType(parts[2])
	}
	return spec, nil
}

func init() {
	conflictsCmd.Flags().StringArray("proposed", nil, "proposed dependency task:depends_on[:type] (repeatable)")

	resolveCmd.Flags().Bool("cycles", false, "break circular dependencies")
	resolveCmd.Flags().Bool("duplicates", false, "remove duplicate dependencies")
	resolveCmd.Flags().Bool("statuses", false, "resolve dependencies on finished tasks")
	resolveCmd.Flags().Bool("all", false, "apply every resolution")
}
