// cmd/counselctl/report.go
package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"counsel-workers/internal/common/genai"
	"counsel-workers/internal/engine/leadscore"
	"counsel-workers/internal/engine/ranking"
	"counsel-workers/internal/reports"
)

var (
	reportProfile string
	reportCatalog string
	reportRaw     bool
	reportGenAI   bool
	reportWidth   int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the internal report and roadmap for a profile",
	Long: `Ranks the catalog CSV for a profile and renders the full counsellor
report. Qualification answers stored in the profile's qualification_data are
scored for the roadmap. The executive summary uses the static narrative unless
--genai is set, which calls the configured provider.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		profile, err := readProfile(cmd, reportProfile)
		if err != nil {
			return err
		}
		programs, err := csvCatalog(reportCatalog, profile.Destinations)
		if err != nil {
			return err
		}

		in := reports.Input{
			Profile: *profile,
			Ranked:  ranking.Rank(*profile, programs),
		}
		if len(profile.Qualification) > 0 {
			answers := leadscore.Answers{}
			for q, tag := range profile.Qualification {
				answers[leadscore.Question(q)] = tag
			}
			res := leadscore.Score(answers)
			in.Lead = &res
		}

		var gen genai.Generator = genai.Fallback{}
		if reportGenAI {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			gen = genai.New(cfg.APIs.GenAI, log)
		}
		in.Narrative, err = gen.Generate(cmd.Context(), reports.NarrativePrompt(in))
		if err != nil {
			in.Narrative, _ = genai.Fallback{}.Generate(context.Background(), reports.NarrativePrompt(in))
		}

		md := reports.Full(in)
		if reportRaw {
			_, err := fmt.Fprint(cmd.OutOrStdout(), md)
			return err
		}
		out, err := renderMarkdown(md, reportWidth)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}

func init() {
	f := reportCmd.Flags()
	f.StringVar(&reportProfile, "profile", "-", "intake profile JSON file, - for stdin")
	f.StringVar(&reportCatalog, "catalog", "data/programs.csv", "program catalog CSV")
	f.BoolVar(&reportRaw, "raw", false, "print Markdown without terminal styling")
	f.BoolVar(&reportGenAI, "genai", false, "generate the executive summary with the configured provider")
	f.IntVar(&reportWidth, "width", 100, "word wrap width")
	rootCmd.AddCommand(reportCmd)
}

func renderMarkdown(md string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}
	return r.Render(md)
}
