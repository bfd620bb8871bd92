package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinewatch/dinewatch-go/internal/conf"
	"github.com/dinewatch/dinewatch-go/internal/datastore"
)

const testCSV = `CAMIS,DBA,BORO,BUILDING,STREET,ZIPCODE,PHONE,CUISINE DESCRIPTION,INSPECTION DATE,ACTION,VIOLATION CODE,VIOLATION DESCRIPTION,CRITICAL FLAG,SCORE,GRADE,GRADE DATE,RECORD DATE,INSPECTION TYPE,Latitude,Longitude
41000001,JOE'S PIZZA,Manhattan,7,CARMINE ST,10014,2123661182,Pizza,01/15/2024,Violations were cited.,10F,Non-food contact surface improperly constructed.,Not Critical,12,A,01/15/2024,06/01/2024,Cycle Inspection,40.730599,-74.002791
41000001,JOE'S PIZZA,Manhattan,7,CARMINE ST,10014,2123661182,Pizza,06/20/2023,Violations were cited.,04L,Evidence of mice or live mice present.,Critical,25,B,06/20/2023,06/01/2024,Cycle Inspection,40.730599,-74.002791
41000002,SOM TAM HOUSE,Queens,84-12,NORTHERN BLVD,11372,7185550123,Thai,not-a-date,No violations.,,,Not Critical,,,,06/01/2024,Cycle Inspection,,
,MISSING CAMIS,Bronx,1,MAIN ST,10451,,American,01/01/2024,,,,Not Critical,,,,,,,
`

func setupTestStore(t *testing.T) datastore.Interface {
	t.Helper()

	settings := &conf.Settings{}
	settings.Database.Type = "sqlite"
	settings.Database.SQLite.Path = filepath.Join(t.TempDir(), "test.db")

	ds, err := datastore.New(settings)
	require.NoError(t, err)
	require.NoError(t, ds.Open())
	t.Cleanup(func() { _ = ds.Close() })
	return ds
}

func newTestImporter(ds datastore.Interface) *Importer {
	settings := &conf.Settings{}
	settings.Import.BatchSize = 2
	return New(ds, settings)
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inspections.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	ds := setupTestStore(t)
	im := newTestImporter(ds)

	stats, err := im.Load(context.Background(), writeCSV(t, testCSV), false)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.RowsRead)
	assert.Equal(t, 3, stats.RowsInserted)
	assert.Equal(t, 1, stats.RowsSkipped)

	latest, err := ds.GetLatestInspection(41000001)
	require.NoError(t, err)
	assert.Equal(t, "JOE'S PIZZA", latest.Name)
	assert.Equal(t, "A", latest.Grade)
	require.NotNil(t, latest.Score)
	assert.Equal(t, 12, *latest.Score)
	require.NotNil(t, latest.InspectionDate)
	assert.Equal(t, "2024-01-15", latest.InspectionDate.Format("2006-01-02"))
	assert.InDelta(t, 40.730599, latest.Latitude, 0.0001)

	// Unparseable date and empty score come through as absent, the row
	// itself still loads.
	other, err := ds.GetLatestInspection(41000002)
	require.NoError(t, err)
	assert.Nil(t, other.InspectionDate)
	assert.Nil(t, other.Score)
}

func TestLoadTruncate(t *testing.T) {
	ds := setupTestStore(t)
	im := newTestImporter(ds)

	_, err := im.Load(context.Background(), writeCSV(t, testCSV), false)
	require.NoError(t, err)

	// Reloading with truncate replaces rather than duplicates.
	stats, err := im.Load(context.Background(), writeCSV(t, testCSV), true)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.RowsInserted)

	count, err := ds.CountInspections(41000001)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestLoadMissingFile(t *testing.T) {
	ds := setupTestStore(t)
	im := newTestImporter(ds)

	_, err := im.Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), false)
	assert.Error(t, err)
}

func TestLoadMissingCAMISColumn(t *testing.T) {
	ds := setupTestStore(t)
	im := newTestImporter(ds)

	path := writeCSV(t, "DBA,BORO\nJoe's,Manhattan\n")
	_, err := im.Load(context.Background(), path, false)
	assert.Error(t, err)
}

func TestParseDateLayouts(t *testing.T) {
	t.Parallel()

	parsed := parseDate("01/15/2024")
	require.NotNil(t, parsed)
	assert.Equal(t, "2024-01-15", parsed.Format("2006-01-02"))

	parsed = parseDate("2024-01-15")
	require.NotNil(t, parsed)
	assert.Equal(t, "2024-01-15", parsed.Format("2006-01-02"))

	assert.Nil(t, parseDate(""))
	assert.Nil(t, parseDate("garbage"))
}

func TestParseScoreFloats(t *testing.T) {
	t.Parallel()

	score := parseScore("12.0")
	require.NotNil(t, score)
	assert.Equal(t, 12, *score)

	assert.Nil(t, parseScore(""))
	assert.Nil(t, parseScore("n/a"))
}
