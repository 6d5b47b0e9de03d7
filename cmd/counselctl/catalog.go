// cmd/counselctl/catalog.go
package main

import (
	"github.com/spf13/cobra"

	"counsel-workers/internal/catalog"
)

var catalogCSV string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the program catalog",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a catalog CSV into Postgres and the search index",
	Long: `Upserts every valid row on (institution, category, program_name),
re-indexes the rows in Elasticsearch when it is reachable and clears cached
catalog slices. Rows missing country, institution or program_name are
reported and skipped.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		res, err := catalog.LoadCSVFile(catalogCSV)
		if err != nil {
			return err
		}
		s, err := openStores(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		summary, err := s.importer().Import(ctx, res)
		if err != nil {
			return err
		}
		return printJSON(cmd, summary)
	},
}

func init() {
	catalogImportCmd.Flags().StringVar(&catalogCSV, "csv", "data/programs.csv", "catalog CSV to import")
	catalogCmd.AddCommand(catalogImportCmd)
	rootCmd.AddCommand(catalogCmd)
}
