// internal/catalog/csv.go
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jszwec/csvutil"

	"counsel-workers/internal/models"
)

// ImportResult is the outcome of decoding a catalog CSV.
type ImportResult struct {
	Records []models.ProgramRecord
	Skipped []string
}

// DecodeCSV reads program rows with a header line. Unknown columns are
// ignored; rows missing country, institution or program_name are skipped
// and reported by line number.
func DecodeCSV(r io.Reader) (*ImportResult, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	dec, err := csvutil.NewDecoder(cr)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &ImportResult{}, nil
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	out := &ImportResult{}
	line := 1
	for {
		line++
		var rec models.ProgramRecord
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			out.Skipped = append(out.Skipped, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		normalize(&rec)
		if rec.Country == "" || rec.Institution == "" || rec.ProgramName == "" {
			out.Skipped = append(out.Skipped, fmt.Sprintf("line %d: country, institution and program_name are required", line))
			continue
		}
		out.Records = append(out.Records, rec)
	}
	return out, nil
}

// LoadCSVFile decodes the catalog at path.
func LoadCSVFile(path string) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return DecodeCSV(f)
}

func normalize(rec *models.ProgramRecord) {
	rec.Country = strings.TrimSpace(rec.Country)
	rec.City = strings.TrimSpace(rec.City)
	rec.Institution = strings.TrimSpace(rec.Institution)
	rec.Category = strings.TrimSpace(rec.Category)
	rec.ProgramName = strings.TrimSpace(rec.ProgramName)
	rec.VisaRisk = strings.TrimSpace(rec.VisaRisk)
	rec.ScholarshipLevel = strings.TrimSpace(rec.ScholarshipLevel)
}

// Key identifies a program across stores.
func Key(rec models.ProgramRecord) string {
	return strings.ToLower(rec.Institution + "|" + rec.Category + "|" + rec.ProgramName)
}
