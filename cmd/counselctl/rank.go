// cmd/counselctl/rank.go
package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"counsel-workers/internal/catalog"
	"counsel-workers/internal/engine/ranking"
	"counsel-workers/internal/models"
)

var (
	rankProfile string
	rankCatalog string
	rankTop     int
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank catalog programs for a student profile",
	Long: `Ranks every program in a catalog CSV against an intake profile and
prints the top matches as JSON. Only the profile's destination countries are
considered when it names any.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		profile, err := readProfile(cmd, rankProfile)
		if err != nil {
			return err
		}
		programs, err := csvCatalog(rankCatalog, profile.Destinations)
		if err != nil {
			return err
		}
		return printJSON(cmd, ranking.Top(ranking.Rank(*profile, programs), rankTop))
	},
}

func init() {
	f := rankCmd.Flags()
	f.StringVar(&rankProfile, "profile", "-", "intake profile JSON file, - for stdin")
	f.StringVar(&rankCatalog, "catalog", "data/programs.csv", "program catalog CSV")
	f.IntVar(&rankTop, "top", 3, "number of matches to print")
	rootCmd.AddCommand(rankCmd)
}

func readProfile(cmd *cobra.Command, path string) (*models.StudentProfile, error) {
	raw, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}
	var p models.StudentProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}

// csvCatalog loads the CSV and keeps programs in the requested countries.
func csvCatalog(path string, destinations []string) ([]models.ProgramRecord, error) {
	res, err := catalog.LoadCSVFile(path)
	if err != nil {
		return nil, err
	}
	for _, line := range res.Skipped {
		log.Warn("catalog row skipped", map[string]interface{}{"row": line})
	}
	countries := ranking.NormalizeDestinations(destinations)
	if len(countries) == 0 {
		return res.Records, nil
	}
	keep := map[string]bool{}
	for _, c := range countries {
		keep[c] = true
	}
	var out []models.ProgramRecord
	for _, p := range res.Records {
		if keep[p.Country] {
			out = append(out, p)
		}
	}
	return out, nil
}
