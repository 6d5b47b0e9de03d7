// internal/catalog/catalog_test.go
package catalog

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"counsel-workers/internal/common/database"
	"counsel-workers/internal/common/logger"
	"counsel-workers/internal/models"
)

const sampleCSV = `country,city,institution,level,category,program_name,tuition_per_year,living_per_year,duration_years,intake_months,ielts_min,gpa_min,visa_risk,scholarship_level,notes
Australia,Melbourne,Monash University,Bachelor,IT,BSc Computer Science,42000,24000,3,"Feb,Jul",6.5,3.0,Low,Medium,ignored column
Canada,Toronto,Seneca,Diploma,Business,Business Admin,18000,15000,2,Sep,,,,,
UK,London,,Master,Design,MA Design,30000,20000,1,Sep,6.5,,,,
`

func TestDecodeCSV(t *testing.T) {
	res, err := DecodeCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	require.Len(t, res.Records, 2)
	require.Len(t, res.Skipped, 1)
	assert.Contains(t, res.Skipped[0], "line 4")

	monash := res.Records[0]
	assert.Equal(t, "Monash University", monash.Institution)
	assert.Equal(t, 42000.0, monash.TuitionPerYear)
	assert.Equal(t, "Feb,Jul", monash.IntakeMonths)
	ielts, ok := monash.IELTSMin.Get()
	assert.True(t, ok)
	assert.Equal(t, 6.5, ielts)

	seneca := res.Records[1]
	_, ok = seneca.IELTSMin.Get()
	assert.False(t, ok, "blank requirement stays unknown")
	_, ok = seneca.GPAMin.Get()
	assert.False(t, ok)
	assert.Equal(t, "", seneca.VisaRisk)
}

func TestDecodeCSV_Empty(t *testing.T) {
	res, err := DecodeCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, res.Records)
}

func TestKey(t *testing.T) {
	a := models.ProgramRecord{Institution: "Monash", Category: "IT", ProgramName: "BSc CS"}
	b := models.ProgramRecord{Institution: "MONASH", Category: "it", ProgramName: "bsc cs", Country: "Other"}
	assert.Equal(t, Key(a), Key(b))
}

func TestPostgresRepository_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	res, err := DecodeCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta("ON CONFLICT (institution, category, program_name) DO UPDATE"))
	prep.ExpectExec().
		WithArgs("Australia", "Melbourne", "Monash University", "Bachelor", "IT", "BSc Computer Science",
			42000.0, 24000.0, 3.0, "Feb,Jul", 6.5, 3.0, "Low", "Medium", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs("Canada", "Toronto", "Seneca", "Diploma", "Business", "Business Admin",
			18000.0, 15000.0, 2.0, "Sep", nil, nil, "", "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := NewPostgresRepository(db).Upsert(context.Background(), res.Records)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_UpsertRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO programs").ExpectExec().WillReturnError(errors.New("constraint"))
	mock.ExpectRollback()

	_, err = NewPostgresRepository(db).Upsert(context.Background(), []models.ProgramRecord{{Institution: "X"}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Programs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"country", "city", "institution", "level", "category", "program_name",
		"tuition_per_year", "living_per_year", "duration_years", "intake_months",
		"ielts_min", "gpa_min", "visa_risk", "scholarship_level", "vibe"}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE country = ANY($1) ORDER BY country, institution, program_name")).
		WithArgs(pq.Array([]string{"Australia"})).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("Australia", "Perth", "Curtin", nil, "IT", "BIT", 30000.0, 20000.0, nil, nil, 6.0, nil, nil, nil, nil))

	programs, err := NewPostgresRepository(db).Programs(context.Background(), []string{"Australia"})
	require.NoError(t, err)
	require.Len(t, programs, 1)
	assert.Equal(t, "Curtin", programs[0].Institution)
	ielts, ok := programs[0].IELTSMin.Get()
	assert.True(t, ok)
	assert.Equal(t, 6.0, ielts)
	_, ok = programs[0].GPAMin.Get()
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func esTestClient(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return client
}

func TestElasticIndex_BulkIndex(t *testing.T) {
	var lines []string
	client := esTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/_bulk", r.URL.Path)
		sc := bufio.NewScanner(r.Body)
		for sc.Scan() {
			lines = append(lines, sc.Text())
		}
		io.WriteString(w, `{"took":1,"errors":false,"items":[]}`)
	})

	idx := NewElasticIndex(client, "programs")
	err := idx.BulkIndex(context.Background(), []models.ProgramRecord{
		{Country: "Australia", Institution: "Monash", Category: "IT", ProgramName: "BSc"},
	})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"_id":"monash|it|bsc"`)
	assert.Contains(t, lines[1], `"institution":"Monash"`)
}

func TestElasticIndex_BulkIndexItemError(t *testing.T) {
	client := esTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"errors":true,"items":[{"index":{"_id":"a|b|c","error":{"reason":"mapper_parsing_exception"}}}]}`)
	})

	err := NewElasticIndex(client, "programs").BulkIndex(context.Background(), []models.ProgramRecord{{Institution: "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}

func TestElasticIndex_Programs(t *testing.T) {
	client := esTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/programs/_search", r.URL.Path)
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		raw, _ := json.Marshal(body["query"])
		assert.Contains(t, string(raw), `"terms":{"country":["Canada"]}`)

		io.WriteString(w, `{"hits":{"total":{"value":1},"hits":[{"_source":{"country":"Canada","institution":"UBC","program_name":"BCom","tuition_per_year":40000,"living_per_year":18000,"ielts_min":null,"gpa_min":3.2}}]}}`)
	})

	programs, err := NewElasticIndex(client, "programs").Programs(context.Background(), []string{"Canada"})
	require.NoError(t, err)
	require.Len(t, programs, 1)
	assert.Equal(t, "UBC", programs[0].Institution)
	_, ok := programs[0].IELTSMin.Get()
	assert.False(t, ok)
	gpa, _ := programs[0].GPAMin.Get()
	assert.Equal(t, 3.2, gpa)
}

type fakeSource struct {
	records []models.ProgramRecord
	err     error
	calls   int32
}

func (f *fakeSource) Programs(context.Context, []string) ([]models.ProgramRecord, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.records, f.err
}

func newTestRedis(t *testing.T) (*database.RedisClient, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	return &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}, mr
}

func TestLoader_PrefersSearchAndCaches(t *testing.T) {
	cache, mr := newTestRedis(t)
	search := &fakeSource{records: []models.ProgramRecord{{Institution: "FromES"}}}
	db := &fakeSource{records: []models.ProgramRecord{{Institution: "FromPG"}}}
	l := NewLoader(cache, search, db, time.Minute, logger.NewTestLogger(t))

	records, source, err := l.Load(context.Background(), []string{"Canada", "Australia"})
	require.NoError(t, err)
	assert.Equal(t, SourceElasticsearch, source)
	assert.Equal(t, "FromES", records[0].Institution)
	assert.True(t, mr.Exists("catalog:Australia,Canada"))

	records, source, err = l.Load(context.Background(), []string{"Australia", "Canada"})
	require.NoError(t, err)
	assert.Equal(t, SourceCache, source)
	assert.Equal(t, "FromES", records[0].Institution)
	assert.Equal(t, int32(1), atomic.LoadInt32(&search.calls))
}

func TestLoader_FallsBackToPostgres(t *testing.T) {
	tests := []struct {
		name   string
		search *fakeSource
	}{
		{name: "search error", search: &fakeSource{err: errors.New("es down")}},
		{name: "search empty", search: &fakeSource{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &fakeSource{records: []models.ProgramRecord{{Institution: "FromPG"}}}
			l := NewLoader(nil, tt.search, db, time.Minute, logger.NewTestLogger(t))

			records, source, err := l.Load(context.Background(), nil)
			require.NoError(t, err)
			assert.Equal(t, SourcePostgres, source)
			assert.Equal(t, "FromPG", records[0].Institution)
		})
	}
}

func TestLoader_OrderIndependentOfSource(t *testing.T) {
	shuffled := []models.ProgramRecord{
		{Country: "UK", Institution: "leeds", ProgramName: "MSc IT"},
		{Country: "Australia", Institution: "deakin", ProgramName: "BBus"},
		{Country: "Australia", Institution: "Monash University", ProgramName: "BSc"},
		{Country: "Australia", Institution: "Monash University", ProgramName: "BA"},
	}
	want := []string{"Monash University/BA", "Monash University/BSc", "deakin/BBus", "leeds/MSc IT"}

	names := func(records []models.ProgramRecord) []string {
		out := make([]string, len(records))
		for i, r := range records {
			out[i] = r.Institution + "/" + r.ProgramName
		}
		return out
	}

	fromSearch, _, err := NewLoader(nil, &fakeSource{records: shuffled}, nil, time.Minute, logger.NewTestLogger(t)).
		Load(context.Background(), nil)
	require.NoError(t, err)

	reversed := make([]models.ProgramRecord, len(shuffled))
	for i, r := range shuffled {
		reversed[len(shuffled)-1-i] = r
	}
	fromDB, source, err := NewLoader(nil, nil, &fakeSource{records: reversed}, time.Minute, logger.NewTestLogger(t)).
		Load(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, SourcePostgres, source)

	assert.Equal(t, want, names(fromSearch))
	assert.Equal(t, want, names(fromDB))
	assert.Equal(t, "leeds", shuffled[0].Institution, "source slice must not be reordered")
}

func TestLoader_Unavailable(t *testing.T) {
	l := NewLoader(nil, &fakeSource{err: errors.New("es down")}, &fakeSource{err: errors.New("pg down")}, time.Minute, logger.NewTestLogger(t))

	_, _, err := l.Load(context.Background(), nil)
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
}

func TestLoader_Invalidate(t *testing.T) {
	cache, mr := newTestRedis(t)
	require.NoError(t, mr.Set("catalog:_all", "[]"))
	require.NoError(t, mr.Set("catalog:Canada", "[]"))
	require.NoError(t, mr.Set("score:ABC", "{}"))

	l := NewLoader(cache, nil, nil, time.Minute, logger.NewTestLogger(t))
	require.NoError(t, l.Invalidate(context.Background()))

	assert.False(t, mr.Exists("catalog:_all"))
	assert.False(t, mr.Exists("catalog:Canada"))
	assert.True(t, mr.Exists("score:ABC"))
}

type fakeUpserter struct{ got []models.ProgramRecord }

func (f *fakeUpserter) Upsert(_ context.Context, r []models.ProgramRecord) (int, error) {
	f.got = r
	return len(r), nil
}

type fakeIndexer struct{ err error }

func (f *fakeIndexer) EnsureIndex(context.Context) error { return nil }
func (f *fakeIndexer) BulkIndex(context.Context, []models.ProgramRecord) error {
	return f.err
}

func TestImporter(t *testing.T) {
	res := &ImportResult{
		Records: []models.ProgramRecord{{Institution: "A"}, {Institution: "B"}},
		Skipped: []string{"line 4: missing"},
	}

	t.Run("indexed", func(t *testing.T) {
		db := &fakeUpserter{}
		summary, err := NewImporter(db, &fakeIndexer{}, nil, logger.NewTestLogger(t)).Import(context.Background(), res)
		require.NoError(t, err)
		assert.Equal(t, 2, summary.Upserted)
		assert.True(t, summary.Indexed)
		assert.Equal(t, res.Skipped, summary.SkippedLines)
	})

	t.Run("index failure keeps database write", func(t *testing.T) {
		db := &fakeUpserter{}
		summary, err := NewImporter(db, &fakeIndexer{err: errors.New("es down")}, nil, logger.NewTestLogger(t)).Import(context.Background(), res)
		require.NoError(t, err)
		assert.Len(t, db.got, 2)
		assert.False(t, summary.Indexed)
		assert.Equal(t, "es down", summary.IndexError)
	})
}
