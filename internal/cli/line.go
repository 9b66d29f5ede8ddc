package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var lineCmd = &cobra.Command{
	Use:   "line",
	Short: "Manage route lines of the current project",
}

func init() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List route lines",
		Args:  cobra.NoArgs,
		RunE:  runLineList,
	}
	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a route line from an ordered list of feature ids",
		Args:  cobra.ExactArgs(1),
		RunE:  runLineAdd,
	}
	addCmd.Flags().StringSlice("poi", nil, "feature ids in visit order")

	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename a line or replace its waypoints",
		Args:  cobra.ExactArgs(1),
		RunE:  runLineUpdate,
	}
	updateCmd.Flags().String("name", "", "new line name")
	updateCmd.Flags().StringSlice("poi", nil, "replacement feature ids in visit order")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a route line",
		Args:  cobra.ExactArgs(1),
		RunE:  runLineDelete,
	}
	resolveCmd := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Resolve a line into a GeoJSON LineString feature",
		Args:  cobra.ExactArgs(1),
		RunE:  runLineResolve,
	}
	lineCmd.AddCommand(listCmd, addCmd, updateCmd, deleteCmd, resolveCmd)
	rootCmd.AddCommand(lineCmd)
}

func runLineList(cmd *cobra.Command, _ []string) error {
	svc, close, err := openService()
	if err != nil {
		return err
	}
	defer close()
	svc.WaitForLines()
	for _, line := range svc.Lines(cmd.Context()) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  [%s]\n", line.ID, line.Name, strings.Join(line.POIIDs, " "))
	}
	return nil
}

func runLineAdd(cmd *cobra.Command, args []string) error {
	svc, close, err := openService()
	if err != nil {
		return err
	}
	defer close()
	poiIDs, _ := cmd.Flags().GetStringSlice("poi")
	line, err := svc.AddLine(cmd.Context(), args[0], poiIDs)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added line %s (%s)\n", line.ID, line.Name)
	return nil
}

func runLineUpdate(cmd *cobra.Command, args []string) error {
	svc, close, err := openService()
	if err != nil {
		return err
	}
	defer close()
	svc.WaitForLines()

	var found bool
	for _, line := range svc.Lines(cmd.Context()) {
		if line.ID != args[0] {
			continue
		}
		found = true
		if name, _ := cmd.Flags().GetString("name"); name != "" {
			line.Name = name
		}
		if cmd.Flags().Changed("poi") {
			line.POIIDs, _ = cmd.Flags().GetStringSlice("poi")
		}
		if err := svc.UpdateLine(cmd.Context(), line); err != nil {
			return err
		}
		break
	}
	if !found {
		return fmt.Errorf("no line %q in the current project", args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated line %s\n", args[0])
	return nil
}

func runLineDelete(cmd *cobra.Command, args []string) error {
	svc, close, err := openService()
	if err != nil {
		return err
	}
	defer close()
	if err := svc.DeleteLine(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted line %s\n", args[0])
	return nil
}

func runLineResolve(cmd *cobra.Command, args []string) error {
	svc, close, err := openService()
	if err != nil {
		return err
	}
	defer close()
	route, err := svc.ResolveRoute(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(route)
}
