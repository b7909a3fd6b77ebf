package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/davenhall/taskgraph/internal/graph"
	"github.com/davenhall/taskgraph/internal/model"
	"github.com/davenhall/taskgraph/internal/ui"
)

var graphCmd = &cobra.Command{
	Use:   "graph <task-id>",
	Short: "Show the dependency graph around a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := api.GetDependencyGraph(context.Background(), args[0], traverseOptionsFromFlags(cmd))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(snap)
			return nil
		}

		fmt.Printf("Graph for %s (%d tasks, %d edges)\n\n",
			snap.RootTaskID, len(snap.Nodes), len(snap.Edges))

		for _, n := range snap.Nodes {
			indent := strings.Repeat("  ", n.Level)
			name := n.Name
			if name == "" {
				name = ui.RenderMuted("(unknown)")
			}
			fmt.Printf("%s%s  %s [%s]\n", indent, ui.RenderAccent(n.TaskID), name, n.Status)
		}

		if len(snap.Cycles) > 0 {
			fmt.Println()
			for _, cycle := range snap.Cycles {
				fmt.Printf("%s %s\n", ui.RenderBad("cycle:"), strings.Join(cycle, " -> "))
			}
		}
		if len(snap.CriticalPath) > 0 {
			fmt.Printf("\ncritical path: %s\n", strings.Join(snap.CriticalPath, " -> "))
		}
		if len(snap.Truncated) > 0 {
			fmt.Printf("\n%s\n", ui.RenderMuted(fmt.Sprintf("%d edges beyond depth limit", len(snap.Truncated))))
		}
		return nil
	},
}

func traverseOptionsFromFlags(cmd *cobra.Command) graph.TraverseOptions {
	depth, _ := cmd.Flags().GetInt("depth")
	direction, _ := cmd.Flags().GetString("direction")
	all, _ := cmd.Flags().GetBool("all")
	return graph.TraverseOptions{
		Depth:           depth,
		Direction:       model.TraversalDirection(direction),
		IncludeResolved: all,
		IncludeBroken:   all,
	}
}

func addTraverseFlags(cmd *cobra.Command) {
	cmd.Flags().Int("depth", 3, "traversal depth (1-10)")
	cmd.Flags().String("direction", "upstream", "traversal direction (upstream, downstream, both)")
	cmd.Flags().Bool("all", false, "include resolved and broken dependencies")
}

func init() {
	addTraverseFlags(graphCmd)
}
