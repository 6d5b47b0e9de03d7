// cmd/counselctl/score.go
package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"counsel-workers/internal/engine/leadscore"
)

var (
	scoreAnswers     string
	scoreConcurrency int
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score qualification interview answers",
	Long: `Reads a JSON object of question -> answer tag, or an array of such
objects, and prints the lead score result for each.

Examples:
  counselctl score --answers answers.json
  echo '{"q_budget":"READY","q_docs":"READY"}' | counselctl score --answers -`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		raw, err := readInput(cmd, scoreAnswers)
		if err != nil {
			return err
		}
		batch, single, err := decodeAnswers(raw)
		if err != nil {
			return err
		}
		if single {
			return printJSON(cmd, leadscore.Score(batch[0]))
		}
		return printJSON(cmd, scoreBatch(batch, scoreConcurrency))
	},
}

func init() {
	f := scoreCmd.Flags()
	f.StringVar(&scoreAnswers, "answers", "-", "answers JSON file, - for stdin")
	f.IntVar(&scoreConcurrency, "concurrency", 4, "parallel scorers for array input")
	rootCmd.AddCommand(scoreCmd)
}

// decodeAnswers accepts one answer set or an array of them.
func decodeAnswers(raw []byte) ([]leadscore.Answers, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var many []leadscore.Answers
		if err := json.Unmarshal(raw, &many); err != nil {
			return nil, false, fmt.Errorf("decode answers array: %w", err)
		}
		return many, false, nil
	}
	var one leadscore.Answers
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, false, fmt.Errorf("decode answers: %w", err)
	}
	return []leadscore.Answers{one}, true, nil
}

// scoreBatch keeps results in input order.
func scoreBatch(batch []leadscore.Answers, concurrency int) []leadscore.Result {
	results := make([]leadscore.Result, len(batch))
	var g errgroup.Group
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i := range batch {
		i := i
		g.Go(func() error {
			results[i] = leadscore.Score(batch[i])
			return nil
		})
	}
	_ = g.Wait()
	return results
}
