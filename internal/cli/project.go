package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage trip projects",
}

func init() {
	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project and switch to it",
		Args:  cobra.ExactArgs(1),
		RunE:  runProjectCreate,
	}
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List projects, marking the current one",
		Args:  cobra.NoArgs,
		RunE:  runProjectList,
	}
	switchCmd := &cobra.Command{
		Use:   "switch <name>",
		Short: "Make a project current",
		Args:  cobra.ExactArgs(1),
		RunE:  runProjectSwitch,
	}
	projectCmd.AddCommand(createCmd, listCmd, switchCmd)
	rootCmd.AddCommand(projectCmd)
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	svc, close, err := openService()
	if err != nil {
		return err
	}
	defer close()
	if err := svc.CreateProject(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created and switched to %q\n", args[0])
	return nil
}

func runProjectList(cmd *cobra.Command, _ []string) error {
	svc, close, err := openService()
	if err != nil {
		return err
	}
	defer close()
	current := svc.CurrentProject()
	for _, name := range svc.Projects() {
		marker := " "
		if name == current {
			marker = "*"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name)
	}
	return nil
}

func runProjectSwitch(cmd *cobra.Command, args []string) error {
	svc, close, err := openService()
	if err != nil {
		return err
	}
	defer close()
	if err := svc.SwitchProject(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Switched to %q\n", args[0])
	return nil
}
