package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"example.com/oilchain/internal/export"
	"example.com/oilchain/internal/listview"
	"example.com/oilchain/internal/services"
)

var exportOpts struct {
	entity string
	search string
	mode   string
	ids    []int64
	out    string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a list to PDF",
	Long: `Load one entity list from the backend, apply a search term and view-mode,
and write the visible records, or the records given with --ids, to a PDF file.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOpts.entity, "entity", "", "entity to export (required)")
	exportCmd.Flags().StringVar(&exportOpts.search, "search", "", "search term")
	exportCmd.Flags().StringVar(&exportOpts.mode, "mode", "", "view-mode (status); empty uses the entity default")
	exportCmd.Flags().Int64SliceVar(&exportOpts.ids, "ids", nil, "export only these record ids")
	exportCmd.Flags().StringVar(&exportOpts.out, "out", "", "output file (default <export.directory>/<entity>.pdf)")
	_ = exportCmd.MarkFlagRequired("entity")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Backend.Timeout*2)
	defer cancel()

	v, err := services.NewEntityView(newBackendClient(cfg), exportOpts.entity)
	if err != nil {
		return err
	}
	if err := v.Load(ctx); err != nil {
		return err
	}

	q := v.Query()
	q.Search = exportOpts.search
	if cmd.Flags().Changed("mode") {
		q.Partition = listview.Status(exportOpts.mode)
	}
	if err := v.Apply(q); err != nil {
		return err
	}

	scope := listview.ScopeVisible
	if len(exportOpts.ids) > 0 {
		if err := v.Select(exportOpts.ids); err != nil {
			return err
		}
		scope = listview.ScopeSelected
	}

	out := exportOpts.out
	if out == "" {
		out = filepath.Join(cfg.Export.Directory, exportOpts.entity+".pdf")
	}
	f, err := os.Create(out)
	if err != nil {
		return errors.Wrap(err, "failed to create output file")
	}
	defer f.Close()

	table := v.Table(scope)
	if err := export.Render(f, table); err != nil {
		return err
	}

	log.Info().Str("entity", exportOpts.entity).Int("rows", len(table.Rows)).Str("file", out).Msg("List exported")
	return nil
}
