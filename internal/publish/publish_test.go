package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Storbiic/ETL-Dashboard/internal/runlog"
	"github.com/Storbiic/ETL-Dashboard/internal/storage"
	"github.com/Storbiic/ETL-Dashboard/internal/table"
)

type fakeLoader struct {
	stmts  []string
	copies map[string]int
	failOn string
}

func (f *fakeLoader) Exec(_ context.Context, sql string) error {
	f.stmts = append(f.stmts, sql)
	return nil
}

func (f *fakeLoader) CopyFrom(_ context.Context, fqn string, _ []string, rows [][]any) (int64, error) {
	if fqn == f.failOn {
		return 0, errors.New("copy refused")
	}
	if f.copies == nil {
		f.copies = map[string]int{}
	}
	f.copies[fqn] += len(rows)
	return int64(len(rows)), nil
}

func runTables() []storage.Named {
	fact := table.New("part_id_std", "psw_ok")
	fact.Append([]any{"A", true})
	fact.Append([]any{"B", false})
	fact.Append([]any{"C", nil})
	return []storage.Named{
		{Name: "fact_parts", Table: fact},
		{Name: "dim_dates", Table: table.New("date", "role")},
	}
}

func TestPostgresPublish(t *testing.T) {
	repo := &fakeLoader{}
	p := &Postgres{Repo: repo, Schema: "etl", BatchSize: 2}

	require.NoError(t, p.Publish(context.Background(), Run{ID: "r1", Tables: runTables()}))

	assert.Equal(t, map[string]int{"etl.fact_parts": 3}, repo.copies, "empty tables are skipped")
	require.Len(t, repo.stmts, 3)
	assert.Contains(t, repo.stmts[2], `"psw_ok" BOOLEAN`)
}

func TestPostgresPublishCopyError(t *testing.T) {
	p := &Postgres{Repo: &fakeLoader{failOn: "etl.fact_parts"}, Schema: "etl"}
	err := p.Publish(context.Background(), Run{Tables: runTables()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fact_parts")
}

func TestPostgresRows(t *testing.T) {
	tb := table.New("n", "f", "s", "d")
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	tb.Append([]any{1, int64(2), int64(7), day})
	tb.Append([]any{int64(3), 0.5, "x", nil})

	rows := PostgresRows(tb)
	assert.Equal(t, []any{int64(1), float64(2), "7", day}, rows[0])
	assert.Equal(t, []any{int64(3), 0.5, "x", nil}, rows[1])
}

type fakePutter struct {
	keys   []string
	bodies []string
	fail   bool
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.fail {
		return nil, errors.New("access denied")
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.keys = append(f.keys, *in.Key)
	f.bodies = append(f.bodies, string(b))
	return &s3.PutObjectOutput{}, nil
}

func writeArtifact(t *testing.T, dir, name, format, body string) storage.Artifact {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return storage.Artifact{Name: name, Path: p, Format: format, SizeBytes: int64(len(body))}
}

func TestS3Publish(t *testing.T) {
	dir := t.TempDir()
	arts := []storage.Artifact{
		writeArtifact(t, dir, "fact_parts.csv", storage.FormatCSV, "part_id_std\nA\n"),
		writeArtifact(t, dir, "data_dictionary.md", storage.FormatMarkdown, "# Data Dictionary\n"),
	}
	client := &fakePutter{}
	p := &S3{Client: client, Bucket: "etl", Prefix: "exports"}

	require.NoError(t, p.Publish(context.Background(), Run{ID: "run-1", Artifacts: arts}))
	assert.Equal(t, []string{"exports/run-1/fact_parts.csv", "exports/run-1/data_dictionary.md"}, client.keys)
	assert.Equal(t, "part_id_std\nA\n", client.bodies[0])
}

func TestS3PublishMissingFile(t *testing.T) {
	p := &S3{Client: &fakePutter{}, Bucket: "etl"}
	err := p.Publish(context.Background(), Run{Artifacts: []storage.Artifact{{Name: "gone.csv", Path: "/nonexistent/gone.csv"}}})
	assert.Error(t, err)
}

func TestEndpointURL(t *testing.T) {
	assert.Equal(t, "", endpointURL("", true))
	assert.Equal(t, "https://minio:9000", endpointURL("minio:9000", true))
	assert.Equal(t, "http://minio:9000", endpointURL("minio:9000", false))
	assert.Equal(t, "http://x", endpointURL("http://x", true))
}

/*
TestAllLogsFailuresAsWarnings: a failing publisher is counted and logged as a
warning while later publishers still run.
*/
func TestAllLogsFailuresAsWarnings(t *testing.T) {
	log := runlog.Discard()
	pubs := []Publisher{
		&S3{Client: &fakePutter{fail: true}, Bucket: "a"},
		&Postgres{Repo: &fakeLoader{}, Schema: "etl"},
	}
	dir := t.TempDir()
	run := Run{ID: "r", Tables: runTables(), Artifacts: []storage.Artifact{writeArtifact(t, dir, "x.csv", storage.FormatCSV, "a\n")}}

	failed := All(context.Background(), pubs, run, log)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, log.Count(runlog.LevelWarning))
	assert.Zero(t, log.Count(runlog.LevelError))

	var names []string
	for _, e := range log.Entries() {
		if p, ok := e.Fields["publisher"].(string); ok {
			names = append(names, p)
		}
	}
	assert.Equal(t, "s3,postgres", strings.Join(names, ","))
}
