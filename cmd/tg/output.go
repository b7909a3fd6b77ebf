package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/davenhall/taskgraph/internal/model"
	"github.com/davenhall/taskgraph/internal/ui"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printDependency(d *model.Dependency) {
	fmt.Printf("ID:          %s\n", d.ID)
	fmt.Printf("Task:        %s\n", d.TaskID)
	fmt.Printf("Depends On:  %s\n", d.DependsOn)
	fmt.Printf("Type:        %s\n", d.Type)
	fmt.Printf("Status:      %s\n", d.Status)
	if d.LinkID != "" {
		fmt.Printf("Link:        %s\n", d.LinkID)
	}
	fmt.Printf("Created By:  %s\n", d.CreatedBy)
	fmt.Printf("Created At:  %s\n", d.CreatedAt.Format("2006-01-02 15:04:05"))
}

func printDependencyTable(deps []*model.Dependency) {
	if len(deps) == 0 {
		fmt.Println("No dependencies found.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTASK\tDEPENDS_ON\tTYPE\tSTATUS\tCREATED_AT")
	for _, d := range deps {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID,
			d.TaskID,
			d.DependsOn,
			d.Type,
			d.Status,
			d.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()
}

func printConflictReport(report *model.ConflictReport) {
	if !report.HasConflicts && len(report.Warnings) == 0 {
		fmt.Println("No conflicts found.")
		return
	}
	for _, c := range report.Conflicts {
		fmt.Printf("%s %s\n", ui.RenderBad("["+string(c.Type)+"]"), c.Description)
		if c.SuggestedResolution != "" {
			fmt.Printf("  %s\n", ui.RenderMuted("suggestion: "+c.SuggestedResolution))
		}
	}
	for _, warn := range report.Warnings {
		fmt.Printf("%s %s\n", ui.RenderWarn("["+string(warn.Type)+"]"), warn.Description)
	}
	fmt.Printf("\n%d conflicts, %d warnings\n", len(report.Conflicts), len(report.Warnings))
}

func printResolutionResult(result *model.ResolutionResult) {
	if len(result.ActionsTaken) == 0 {
		fmt.Println("Nothing to resolve.")
	}
	for _, a := range result.ActionsTaken {
		fmt.Printf("%s %s (%s)\n", ui.RenderAccent(a.Action), a.DependencyID, a.Reason)
	}
	fmt.Printf("\n%d conflicts resolved, %d remaining\n",
		len(result.ResolvedConflicts), len(result.RemainingConflicts))
}
