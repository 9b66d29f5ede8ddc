package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tripcore/internal/backup"
	"tripcore/internal/blob"
	"tripcore/internal/core"
	"tripcore/internal/export"
	"tripcore/pkg/geo"
)

func init() {
	importCmd := &cobra.Command{
		Use:   "import <backup.zip>",
		Short: "Import a backup archive into a project",
		Long: `Reads a backup zip (current "_pois.json"/"_lines.json" layout or the
older single-file layouts) and reconciles it into a project. The target
project defaults to the name recorded in the archive and is created when
missing.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}
	importCmd.Flags().String("project", "", "target project (default: name from the archive)")
	importCmd.Flags().String("policy", string(core.PolicyMerge), "reconciliation policy: override|append|merge")
	importCmd.Flags().Bool("clear-missing-pois", false, "with --policy=override, clear features when the archive has no feature file")

	exportCmd := &cobra.Command{
		Use:   "export [project]",
		Short: "Export a project to the configured blob store",
		Long: `Renders the project's backup archive, GeoJSON archive, and KML documents
and uploads them to the blob store selected by TRIPCORE_BLOB_* (local
filesystem by default). Defaults to the current project.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runExport,
	}
	rootCmd.AddCommand(importCmd, exportCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read archive: %w", err)
	}
	archive, err := backup.Parse(data)
	if err != nil {
		return err
	}
	project, _ := cmd.Flags().GetString("project")
	if project == "" {
		project = archive.ProjectName
	}
	policyFlag, _ := cmd.Flags().GetString("policy")
	clearMissing, _ := cmd.Flags().GetBool("clear-missing-pois")

	svc, close, err := openService()
	if err != nil {
		return err
	}
	defer close()

	summary, err := svc.ImportBackup(cmd.Context(), project,
		core.ImportPayload{POIs: archive.POIs, Lines: archive.Lines},
		core.ImportPolicy(policyFlag),
		core.ImportOptions{OverrideClearsMissingPOIs: clearMissing})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported into %q\n  features: %s\n  lines: %s\n", summary.Project, summary.POIs, summary.Lines)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	svc, close, err := openService()
	if err != nil {
		return err
	}
	defer close()

	project := svc.CurrentProject()
	if len(args) == 1 {
		project = args[0]
	}
	tree, err := svc.ProjectTree(project)
	if err != nil {
		return err
	}
	lines, err := svc.ProjectLines(cmd.Context(), project)
	if err != nil {
		return err
	}

	// Resolve what routes we can; unresolvable lines are skipped, not fatal.
	var routes []geo.Feature
	if project == svc.CurrentProject() {
		for _, line := range lines {
			route, err := svc.ResolveRoute(cmd.Context(), line.ID)
			if err != nil {
				continue
			}
			routes = append(routes, route)
		}
	}

	store, err := blob.Open(cmd.Context())
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}
	artifacts, err := export.NewExporter(store).ExportProject(cmd.Context(), project, tree, lines, routes)
	if err != nil {
		return err
	}
	for _, a := range artifacts {
		fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s (%d bytes)\n", a.Kind, a.Key, a.Info.Size)
	}
	return nil
}
