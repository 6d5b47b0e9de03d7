// internal/catalog/elastic.go
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"counsel-workers/internal/models"
)

const maxSearchSize = 10000

const indexMapping = `{
	"mappings": {
		"properties": {
			"country": {"type": "keyword"},
			"city": {"type": "keyword"},
			"institution": {"type": "keyword"},
			"level": {"type": "keyword"},
			"category": {"type": "keyword"},
			"program_name": {"type": "text", "fields": {"raw": {"type": "keyword"}}},
			"tuition_per_year": {"type": "double"},
			"living_per_year": {"type": "double"},
			"duration_years": {"type": "double"},
			"intake_months": {"type": "keyword"},
			"ielts_min": {"type": "double"},
			"gpa_min": {"type": "double"},
			"visa_risk": {"type": "keyword"},
			"scholarship_level": {"type": "keyword"},
			"vibe": {"type": "text"}
		}
	}
}`

// ElasticIndex mirrors the catalog into a search index.
type ElasticIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticIndex(client *elasticsearch.Client, index string) *ElasticIndex {
	return &ElasticIndex{client: client, index: index}
}

// EnsureIndex creates the index with keyword mappings when it does not exist.
func (e *ElasticIndex) EnsureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{e.index}}.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = esapi.IndicesCreateRequest{
		Index: e.index,
		Body:  strings.NewReader(indexMapping),
	}.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index: %s", res.String())
	}
	return nil
}

// BulkIndex writes records with deterministic IDs so re-imports overwrite.
func (e *ElasticIndex) BulkIndex(ctx context.Context, records []models.ProgramRecord) error {
	if len(records) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, rec := range records {
		meta := map[string]interface{}{
			"index": map[string]interface{}{"_index": e.index, "_id": Key(rec)},
		}
		if err := enc.Encode(meta); err != nil {
			return err
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}

	res, err := esapi.BulkRequest{
		Body:    &buf,
		Refresh: "true",
	}.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("bulk index: %s", res.String())
	}

	var body struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID    string `json:"_id"`
			Error *struct {
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if body.Errors {
		for _, item := range body.Items {
			for _, op := range item {
				if op.Error != nil {
					return fmt.Errorf("bulk index %s: %s", op.ID, op.Error.Reason)
				}
			}
		}
	}
	return nil
}

// Programs searches the index, filtered by country when any are given.
// The Loader re-sorts whatever is returned.
func (e *ElasticIndex) Programs(ctx context.Context, countries []string) ([]models.ProgramRecord, error) {
	query := map[string]interface{}{"match_all": map[string]interface{}{}}
	if len(countries) > 0 {
		query = map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"terms": map[string]interface{}{"country": countries}},
				},
			},
		}
	}
	body, err := json.Marshal(map[string]interface{}{
		"query": query,
		"sort": []interface{}{
			map[string]interface{}{"country": "asc"},
			map[string]interface{}{"institution": "asc"},
			map[string]interface{}{"program_name.raw": "asc"},
		},
	})
	if err != nil {
		return nil, err
	}

	size := maxSearchSize
	res, err := esapi.SearchRequest{
		Index: []string{e.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}.Do(ctx, e.client)
	if err != nil {
		return nil, fmt.Errorf("search programs: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search programs: %s", res.String())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source models.ProgramRecord `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]models.ProgramRecord, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
