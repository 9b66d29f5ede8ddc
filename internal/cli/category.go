package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tripcore/pkg/domain"
)

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Manage categories of the current project",
}

func init() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List categories in display order",
		Args:  cobra.NoArgs,
		RunE:  runCategoryList,
	}
	addCmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add a category (a name is synthesized when omitted or taken)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCategoryAdd,
	}
	renameCmd := &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a category, keeping its position",
		Args:  cobra.ExactArgs(2),
		RunE:  runCategoryRename,
	}
	removeCmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a category, moving its features to the default category",
		Args:  cobra.ExactArgs(1),
		RunE:  runCategoryRemove,
	}
	moveCmd := &cobra.Command{
		Use:   "move <name> <up|down>",
		Short: "Shift a category one position in display order",
		Args:  cobra.ExactArgs(2),
		RunE:  runCategoryMove,
	}
	categoryCmd.AddCommand(listCmd, addCmd, renameCmd, removeCmd, moveCmd)
	rootCmd.AddCommand(categoryCmd)
}

func runCategoryList(cmd *cobra.Command, _ []string) error {
	svc, close, err := openService()
	if err != nil {
		return err
	}
	defer close()
	for _, name := range svc.Categories(cmd.Context()) {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

func runCategoryAdd(cmd *cobra.Command, args []string) error {
	svc, close, err := openService()
	if err != nil {
		return err
	}
	defer close()
	name := ""
	if len(args) == 1 {
		name = args[0]
	}
	used, err := svc.AddCategory(cmd.Context(), name)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added category %q\n", used)
	return nil
}

func runCategoryRename(cmd *cobra.Command, args []string) error {
	svc, close, err := openService()
	if err != nil {
		return err
	}
	defer close()
	if err := svc.RenameCategory(cmd.Context(), args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Renamed %q to %q\n", args[0], args[1])
	return nil
}

func runCategoryRemove(cmd *cobra.Command, args []string) error {
	svc, close, err := openService()
	if err != nil {
		return err
	}
	defer close()
	fallback, err := svc.RemoveCategory(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %q; features moved to %q, fall back to %q\n", args[0], domain.DefaultCategory, fallback)
	return nil
}

func runCategoryMove(cmd *cobra.Command, args []string) error {
	var direction domain.MoveDirection
	switch args[1] {
	case "up":
		direction = domain.MoveUp
	case "down":
		direction = domain.MoveDown
	default:
		return fmt.Errorf("direction must be up or down, got %q", args[1])
	}
	svc, close, err := openService()
	if err != nil {
		return err
	}
	defer close()
	if err := svc.MoveCategory(cmd.Context(), args[0], direction); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Moved %q %s\n", args[0], args[1])
	return nil
}
