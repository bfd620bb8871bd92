// Package importer loads NYC restaurant inspection CSV exports into the
// datastore in batches.
package importer

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dinewatch/dinewatch-go/internal/conf"
	"github.com/dinewatch/dinewatch-go/internal/datastore"
	"github.com/dinewatch/dinewatch-go/internal/errors"
)

// Stats summarizes one import run.
type Stats struct {
	RowsRead     int
	RowsInserted int
	RowsSkipped  int
	Duration     time.Duration
}

// Importer reads inspection CSV files and writes the rows to the datastore.
type Importer struct {
	ds        datastore.Interface
	batchSize int
}

// New creates an importer using the batch size from the configuration.
func New(ds datastore.Interface, settings *conf.Settings) *Importer {
	batchSize := settings.Import.BatchSize
	if batchSize <= 0 {
		batchSize = 5000
	}
	return &Importer{ds: ds, batchSize: batchSize}
}

// dateLayouts covers the formats seen in NYC open data exports.
var dateLayouts = []string{
	"01/02/2006",
	"2006-01-02",
	"01/02/2006 03:04:05 PM",
	"2006-01-02T15:04:05",
}

// Load reads the CSV file at path and inserts its rows in batches. When
// truncate is set, all existing inspection rows are deleted first. Rows
// without a parseable CAMIS are skipped; unparseable dates and scores are
// stored as absent rather than failing the row, since the source feed is
// known to contain malformed values.
func (im *Importer) Load(ctx context.Context, path string, truncate bool) (*Stats, error) {
	start := time.Now()
	logger := GetLogger()

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Component("importer").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.New(err).
			Component("importer").
			Category(errors.CategoryFileParsing).
			Context("path", path).
			Build()
	}
	columns := indexColumns(header)
	if _, ok := columns["camis"]; !ok {
		return nil, errors.Newf("CSV file has no CAMIS column").
			Component("importer").
			Category(errors.CategoryFileParsing).
			Context("path", path).
			Build()
	}

	if truncate {
		logger.Info("deleting existing inspection records before load")
		if err := im.ds.DeleteAllInspections(); err != nil {
			return nil, err
		}
	}

	stats := &Stats{}
	batch := make([]datastore.Inspection, 0, im.batchSize)

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed row, skip and keep reading.
			stats.RowsSkipped++
			continue
		}
		stats.RowsRead++

		inspection, ok := parseRow(record, columns)
		if !ok {
			stats.RowsSkipped++
			continue
		}
		batch = append(batch, inspection)

		if len(batch) >= im.batchSize {
			if err := im.flush(batch, stats); err != nil {
				return stats, err
			}
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := im.flush(batch, stats); err != nil {
			return stats, err
		}
	}

	stats.Duration = time.Since(start)
	logger.Info("import complete",
		"rows_read", stats.RowsRead,
		"rows_inserted", stats.RowsInserted,
		"rows_skipped", stats.RowsSkipped,
		"duration", stats.Duration)
	return stats, nil
}

// flush writes one batch to the datastore and updates the running counters.
func (im *Importer) flush(batch []datastore.Inspection, stats *Stats) error {
	if err := im.ds.SaveInspections(batch, im.batchSize); err != nil {
		return err
	}
	stats.RowsInserted += len(batch)
	GetLogger().Info("inserted batch", "total_inserted", stats.RowsInserted)
	return nil
}

// indexColumns maps normalized header names to their column positions.
func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		columns[key] = i
	}
	return columns
}

// parseRow converts one CSV record into an Inspection. Returns false when
// the row has no usable CAMIS.
func parseRow(record []string, columns map[string]int) (datastore.Inspection, bool) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	camis, err := strconv.ParseInt(field("camis"), 10, 64)
	if err != nil || camis == 0 {
		return datastore.Inspection{}, false
	}

	return datastore.Inspection{
		CAMIS:                camis,
		Name:                 field("dba"),
		Boro:                 field("boro"),
		Building:             field("building"),
		Street:               field("street"),
		Zipcode:              field("zipcode"),
		Phone:                field("phone"),
		CuisineDescription:   field("cuisine description"),
		InspectionDate:       parseDate(field("inspection date")),
		Action:               field("action"),
		ViolationCode:        field("violation code"),
		ViolationDescription: field("violation description"),
		CriticalFlag:         field("critical flag"),
		Score:                parseScore(field("score")),
		Grade:                field("grade"),
		GradeDate:            parseDate(field("grade date")),
		RecordDate:           parseDate(field("record date")),
		InspectionType:       field("inspection type"),
		Latitude:             parseFloat(field("latitude")),
		Longitude:            parseFloat(field("longitude")),
	}, true
}

// parseDate tries each known layout, returning nil for empty or
// unparseable values.
func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

// parseScore returns nil for empty or non-numeric scores. Scores appear as
// both integers and floats in the feed.
func parseScore(value string) *int {
	if value == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		score := int(f)
		return &score
	}
	return nil
}

func parseFloat(value string) float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}
