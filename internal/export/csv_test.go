package export

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swissjobmarket/jobscan/internal/collector"
	"github.com/swissjobmarket/jobscan/internal/schema"
)

func TestWriteCSV(t *testing.T) {
	tbl := schema.NewTable([]string{"source", "url", "title"})
	tbl.Append(schema.Record{"source": "alpha", "url": "https://a.test/1", "title": "Data Scientist"})
	tbl.Append(schema.Record{"source": "alpha", "url": "https://a.test/2"}) // missing title pads to empty

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteCSV(tbl, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"source", "url", "title"}, rows[0])
	assert.Equal(t, []string{"alpha", "https://a.test/1", "Data Scientist"}, rows[1])
	assert.Equal(t, []string{"alpha", "https://a.test/2", ""}, rows[2])
}

func TestWriteCSVEmptyTableStillWritesHeader(t *testing.T) {
	tbl := schema.NewTable([]string{"source", "url"})
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, WriteCSV(tbl, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"source", "url"}, rows[0])
}

func TestWriteCSVCreateFailure(t *testing.T) {
	tbl := schema.NewTable([]string{"source"})
	err := WriteCSV(tbl, filepath.Join(t.TempDir(), "nosuchdir", "out.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, collector.ErrExportWrite))
}

func TestWriteCSVQuotesEmbeddedSeparators(t *testing.T) {
	tbl := schema.NewTable([]string{"title", "description_raw"})
	tbl.Append(schema.Record{
		"title":           `Data Scientist, "NLP"`,
		"description_raw": "line one\nline two",
	})

	path := filepath.Join(t.TempDir(), "quoted.csv")
	require.NoError(t, WriteCSV(tbl, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, `Data Scientist, "NLP"`, rows[1][0])
	assert.Equal(t, "line one\nline two", rows[1][1])
}
