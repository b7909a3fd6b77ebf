package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/davenhall/taskgraph/internal/model"
)

var depCmd = &cobra.Command{
	Use:   "dep",
	Short: "Manage task dependencies",
}

var depAddCmd = &cobra.Command{
	Use:   "add <task-id> <depends-on-id>",
	Short: "Add a dependency between tasks",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		depType, _ := cmd.Flags().GetString("type")
		linkID, _ := cmd.Flags().GetString("link")
		force, _ := cmd.Flags().GetBool("force")

		dep, err := api.CreateDependency(context.Background(), model.DependencySpec{
			TaskID:    args[0],
			DependsOn: args[1],
			Type:      model.DependencyType(depType),
			LinkID:    linkID,
			CreatedBy: actor,
			Force:     force,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(dep)
		} else {
			printDependency(dep)
		}
		return nil
	},
}

var depListCmd = &cobra.Command{
	Use:   "list <task-id>",
	Short: "List dependencies of a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := model.DependencyFilter{}
		if v, _ := cmd.Flags().GetString("type"); v != "" {
			for _, t := range strings.Split(v, ",") {
				filter.Types = append(filter.Types, model.DependencyType(t))
			}
		}
		if v, _ := cmd.Flags().GetString("status"); v != "" {
			for _, st := range strings.Split(v, ",") {
				filter.Statuses = append(filter.Statuses, model.DependencyStatus(st))
			}
		}
		filter.IncludeResolved, _ = cmd.Flags().GetBool("all")
		filter.IncludeBroken = filter.IncludeResolved

		deps, err := api.GetTaskDependencies(context.Background(), args[0], filter)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(deps)
		} else {
			printDependencyTable(deps)
		}
		return nil
	},
}

var depUpdateCmd = &cobra.Command{
	Use:   "update <dependency-id>",
	Short: "Update a dependency's type or status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch := model.DependencyPatch{}
		if v, _ := cmd.Flags().GetString("type"); v != "" {
			t := model.DependencyType(v)
			patch.Type = &t
		}
		if v, _ := cmd.Flags().GetString("status"); v != "" {
			st := model.DependencyStatus(v)
			patch.Status = &st
		}
		patch.Force, _ = cmd.Flags().GetBool("force")

		dep, err := api.UpdateDependency(context.Background(), args[0], patch)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(dep)
		} else {
			printDependency(dep)
		}
		return nil
	},
}

var depRemoveCmd = &cobra.Command{
	Use:   "remove <dependency-id>",
	Short: "Remove a dependency",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := api.DeleteDependency(context.Background(), args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Removed dependency")
		return nil
	},
}

func init() {
	depAddCmd.Flags().String("type", "blocking", "dependency type (blocking, waiting_on, linked)")
	depAddCmd.Flags().String("link", "", "link id grouping related dependencies")
	depAddCmd.Flags().Bool("force", false, "bypass cycle rejection")

	depListCmd.Flags().String("type", "", "filter by type (comma-separated)")
	depListCmd.Flags().String("status", "", "filter by status (comma-separated)")
	depListCmd.Flags().Bool("all", false, "include resolved and broken dependencies")

	depUpdateCmd.Flags().String("type", "", "new dependency type")
	depUpdateCmd.Flags().String("status", "", "new dependency status")
	depUpdateCmd.Flags().Bool("force", false, "allow reactivating a resolved or broken dependency")

	depCmd.AddCommand(depAddCmd)
	depCmd.AddCommand(depListCmd)
	depCmd.AddCommand(depUpdateCmd)
	depCmd.AddCommand(depRemoveCmd)
}
