package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <task-id>",
	Short: "Export the dependency graph around a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		export, err := api.ExportGraph(context.Background(), args[0], format, traverseOptionsFromFlags(cmd))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if output != "" {
			if err := os.WriteFile(output, []byte(export.Data), 0o644); err != nil {
				return err
			}
			fmt.Printf("wrote %s (%d bytes)\n", output, len(export.Data))
			return nil
		}
		fmt.Print(export.Data)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("format", "json", "export format (json, csv, graphml)")
	exportCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
	addTraverseFlags(exportCmd)
}
