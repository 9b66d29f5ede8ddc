package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"tripcore/pkg/domain"
	"tripcore/pkg/geo"
)

var poiCmd = &cobra.Command{
	Use:   "poi",
	Short: "Manage points of interest in the current project",
}

func init() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List features of one category",
		Args:  cobra.NoArgs,
		RunE:  runPOIList,
	}
	listCmd.Flags().String("category", domain.DefaultCategory, "category to list")

	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a point of interest",
		Args:  cobra.ExactArgs(1),
		RunE:  runPOIAdd,
	}
	addCmd.Flags().Float64("lon", 0, "longitude (required)")
	addCmd.Flags().Float64("lat", 0, "latitude (required)")
	addCmd.Flags().String("category", domain.DefaultCategory, "category to add to")
	addCmd.Flags().String("description", "", "optional description")
	_ = addCmd.MarkFlagRequired("lon")
	_ = addCmd.MarkFlagRequired("lat")

	removeCmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a feature from its category",
		Long: `Removes the feature occurrence at a list position. By default the feature
relocates to the default category; --completely deletes it from the project.`,
		Args: cobra.ExactArgs(1),
		RunE: runPOIRemove,
	}
	removeCmd.Flags().String("category", domain.DefaultCategory, "category to remove from")
	removeCmd.Flags().Int("index", 0, "list position of the occurrence")
	removeCmd.Flags().Bool("completely", false, "delete the feature instead of relocating it")

	moveCmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Move a feature between categories",
		Args:  cobra.ExactArgs(1),
		RunE:  runPOIMove,
	}
	moveCmd.Flags().String("from", domain.DefaultCategory, "source category")
	moveCmd.Flags().String("to", "", "destination category (required)")
	_ = moveCmd.MarkFlagRequired("to")

	reorderCmd := &cobra.Command{
		Use:   "reorder",
		Short: "Move a feature between list positions within a category",
		Args:  cobra.NoArgs,
		RunE:  runPOIReorder,
	}
	reorderCmd.Flags().String("category", domain.DefaultCategory, "category to reorder")
	reorderCmd.Flags().Int("from", 0, "current position")
	reorderCmd.Flags().Int("to", 0, "target position")

	duplicateCmd := &cobra.Command{
		Use:   "duplicate <id>",
		Short: "Append another occurrence of a feature to its category",
		Args:  cobra.ExactArgs(1),
		RunE:  runPOIDuplicate,
	}
	duplicateCmd.Flags().String("category", domain.DefaultCategory, "category holding the feature")
	duplicateCmd.Flags().Int("index", 0, "list position of the occurrence")

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find features by name or description",
		Args:  cobra.ExactArgs(1),
		RunE:  runPOISearch,
	}

	poiCmd.AddCommand(listCmd, addCmd, removeCmd, moveCmd, reorderCmd, duplicateCmd, searchCmd)
	rootCmd.AddCommand(poiCmd)
}

func runPOIList(cmd *cobra.Command, _ []string) error {
	svc, close, err := openService()
	if err != nil {
		return err
	}
	defer close()
	category, _ := cmd.Flags().GetString("category")
	for i, f := range svc.Features(cmd.Context(), category) {
		pos, _ := geo.RepresentativeCoordinate(f)
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  (%g, %g)  %s\n", domain.FeatureKey(i, f), f.ID(), pos.Lon(), pos.Lat(), f.Name())
	}
	return nil
}

func runPOIAdd(cmd *cobra.Command, args []string) error {
	svc, close, err := openService()
	if err != nil {
		return err
	}
	defer close()
	lon, _ := cmd.Flags().GetFloat64("lon")
	lat, _ := cmd.Flags().GetFloat64("lat")
	category, _ := cmd.Flags().GetString("category")
	description, _ := cmd.Flags().GetString("description")

	props := map[string]any{"id": uuid.NewString(), "name": args[0]}
	if description != "" {
		props["description"] = description
	}
	f := geo.NewFeature(geo.Point(lon, lat), props)
	if err := svc.AddFeature(cmd.Context(), category, f); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %q as %s to %q\n", args[0], f.ID(), category)
	return nil
}

func runPOIRemove(cmd *cobra.Command, args []string) error {
	svc, close, err := openService()
	if err != nil {
		return err
	}
	defer close()
	category, _ := cmd.Flags().GetString("category")
	index, _ := cmd.Flags().GetInt("index")
	completely, _ := cmd.Flags().GetBool("completely")

	f, ok := findFeature(cmd, svc.Features(cmd.Context(), category), args[0], index)
	if !ok {
		return fmt.Errorf("no feature %q at index %d in %q", args[0], index, category)
	}
	sel := domain.Selection{Feature: f, Category: category, Index: index}
	if completely {
		if err := svc.RemoveFeatureCompletely(cmd.Context(), sel); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s completely\n", sel.Key())
		return nil
	}
	if err := svc.RemoveFeatureToDefault(cmd.Context(), sel); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %q\n", sel.Key(), category)
	return nil
}

func runPOIMove(cmd *cobra.Command, args []string) error {
	svc, close, err := openService()
	if err != nil {
		return err
	}
	defer close()
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	if err := svc.MoveFeature(cmd.Context(), from, to, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Moved %s from %q to %q\n", args[0], from, to)
	return nil
}

func runPOIReorder(cmd *cobra.Command, _ []string) error {
	svc, close, err := openService()
	if err != nil {
		return err
	}
	defer close()
	category, _ := cmd.Flags().GetString("category")
	from, _ := cmd.Flags().GetInt("from")
	to, _ := cmd.Flags().GetInt("to")
	if err := svc.ReorderFeatures(cmd.Context(), category, from, to); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Reordered %q: %d -> %d\n", category, from, to)
	return nil
}

func runPOIDuplicate(cmd *cobra.Command, args []string) error {
	svc, close, err := openService()
	if err != nil {
		return err
	}
	defer close()
	category, _ := cmd.Flags().GetString("category")
	index, _ := cmd.Flags().GetInt("index")

	f, ok := findFeature(cmd, svc.Features(cmd.Context(), category), args[0], index)
	if !ok {
		return fmt.Errorf("no feature %q at index %d in %q", args[0], index, category)
	}
	sel := domain.Selection{Feature: f, Category: category, Index: index}
	if err := svc.DuplicateFeature(cmd.Context(), sel); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Duplicated %s in %q\n", args[0], category)
	return nil
}

func runPOISearch(cmd *cobra.Command, args []string) error {
	svc, close, err := openService()
	if err != nil {
		return err
	}
	defer close()
	for _, f := range svc.SearchFeatures(cmd.Context(), args[0]) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", f.ID(), f.Name())
	}
	return nil
}

// findFeature locates the occurrence with the given id at the given index.
func findFeature(_ *cobra.Command, features []geo.Feature, id string, index int) (geo.Feature, bool) {
	if index < 0 || index >= len(features) {
		return geo.Feature{}, false
	}
	if features[index].ID() != id {
		return geo.Feature{}, false
	}
	return features[index], true
}
