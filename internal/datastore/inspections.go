// inspections.go: queries over the immutable inspection records
package datastore

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/dinewatch/dinewatch-go/internal/errors"
)

// SaveInspections bulk inserts inspection rows in batches.
func (ds *DataStore) SaveInspections(batch []Inspection, batchSize int) error {
	if ds.DB == nil {
		return ErrDatabaseNotOpen
	}
	if len(batch) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 1000
	}
	if err := ds.DB.CreateInBatches(batch, batchSize).Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "save_inspections").
			Context("rows", len(batch)).
			Build()
	}
	return nil
}

// DeleteAllInspections removes every inspection row, used by the CSV
// importer's truncate mode.
func (ds *DataStore) DeleteAllInspections() error {
	if err := ds.DB.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Inspection{}).Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "delete_all_inspections").
			Build()
	}
	return nil
}

// GetLatestInspection returns the most recent inspection for a restaurant.
// Date ties break to the most recently loaded row.
func (ds *DataStore) GetLatestInspection(camis int64) (Inspection, error) {
	var inspection Inspection
	err := ds.DB.Where("camis = ?", camis).
		Order("inspection_date DESC, id DESC").
		First(&inspection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Inspection{}, ErrInspectionNotFound
		}
		return Inspection{}, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get_latest_inspection").
			Context("camis", camis).
			Build()
	}
	return inspection, nil
}

// GetLatestInspectionSince returns the most recent inspection for a
// restaurant dated on or after the cutoff. ErrInspectionNotFound signals
// that nothing qualifies.
func (ds *DataStore) GetLatestInspectionSince(camis int64, cutoff time.Time) (Inspection, error) {
	var inspection Inspection
	err := ds.DB.Where("camis = ? AND inspection_date >= ?", camis, cutoff).
		Order("inspection_date DESC, id DESC").
		First(&inspection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Inspection{}, ErrInspectionNotFound
		}
		return Inspection{}, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get_latest_inspection_since").
			Context("camis", camis).
			Build()
	}
	return inspection, nil
}

// GetGradedInspections returns every inspection of a restaurant carrying
// one of the letter grades A, B or C and a non-null inspection date, in a
// single consistent read. Window and sentinel filtering happen in the
// rating engine so both the windowed and the fallback aggregate come from
// one snapshot of the data.
func (ds *DataStore) GetGradedInspections(camis int64) ([]Inspection, error) {
	var inspections []Inspection
	err := ds.DB.Where("camis = ? AND grade IN ? AND inspection_date IS NOT NULL", camis, []string{"A", "B", "C"}).
		Order("inspection_date DESC, id DESC").
		Find(&inspections).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get_graded_inspections").
			Context("camis", camis).
			Build()
	}
	return inspections, nil
}

// GetRestaurantInspections returns a restaurant's inspection history,
// newest first, limited to limit rows (0 means no limit).
func (ds *DataStore) GetRestaurantInspections(camis int64, limit int) ([]Inspection, error) {
	var inspections []Inspection
	query := ds.DB.Where("camis = ?", camis).Order("inspection_date DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&inspections).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get_restaurant_inspections").
			Context("camis", camis).
			Build()
	}
	return inspections, nil
}

// CountInspections returns the number of inspection rows for a restaurant.
func (ds *DataStore) CountInspections(camis int64) (int64, error) {
	var count int64
	if err := ds.DB.Model(&Inspection{}).Where("camis = ?", camis).Count(&count).Error; err != nil {
		return 0, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "count_inspections").
			Context("camis", camis).
			Build()
	}
	return count, nil
}

// SearchRestaurants returns one summary row per matching restaurant with
// its latest inspection attached. An empty query matches nothing.
func (ds *DataStore) SearchRestaurants(query *SearchQuery) ([]RestaurantSummary, error) {
	if query == nil {
		return nil, nil
	}
	if query.Text == "" && query.Cuisine == "" && query.Boro == "" && query.Zipcode == "" {
		return nil, nil
	}

	db := ds.DB.Model(&Inspection{})
	if query.Text != "" {
		pattern := "%" + strings.ToLower(query.Text) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(cuisine_description) LIKE ?", pattern, pattern)
	}
	if query.Cuisine != "" {
		db = db.Where("LOWER(cuisine_description) LIKE ?", "%"+strings.ToLower(query.Cuisine)+"%")
	}
	if query.Boro != "" {
		db = db.Where("LOWER(boro) = ?", strings.ToLower(query.Boro))
	}
	if query.Zipcode != "" {
		db = db.Where("zipcode = ?", query.Zipcode)
	}

	// Collapse matching rows to one restaurant each.
	type collapsed struct {
		CAMIS int64 `gorm:"column:camis"`
	}
	var matched []collapsed
	limit := query.Limit
	if limit <= 0 {
		limit = 200
	}
	if err := db.Select("camis").Group("camis").Limit(limit).Find(&matched).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "search_restaurants").
			Build()
	}
	if len(matched) == 0 {
		return nil, nil
	}

	camisList := make([]int64, 0, len(matched))
	for _, m := range matched {
		camisList = append(camisList, m.CAMIS)
	}

	// Fetch all rows for the matched restaurants newest first, then keep
	// the first row seen per restaurant as its latest state.
	var rows []Inspection
	if err := ds.DB.Where("camis IN ?", camisList).
		Order("inspection_date DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "search_restaurants_latest").
			Build()
	}

	seen := make(map[int64]bool, len(camisList))
	summaries := make([]RestaurantSummary, 0, len(camisList))
	for i := range rows {
		row := &rows[i]
		if seen[row.CAMIS] {
			continue
		}
		seen[row.CAMIS] = true
		summaries = append(summaries, RestaurantSummary{
			CAMIS:                row.CAMIS,
			Name:                 row.Name,
			Building:             row.Building,
			Street:               row.Street,
			Boro:                 row.Boro,
			Zipcode:              row.Zipcode,
			CuisineDescription:   row.CuisineDescription,
			LatestGrade:          row.Grade,
			LatestInspectionDate: row.InspectionDate,
		})
	}
	return summaries, nil
}

// GetCuisines returns the distinct cuisine descriptions, sorted.
func (ds *DataStore) GetCuisines() ([]string, error) {
	return ds.distinctColumn("cuisine_description")
}

// GetBoroughs returns the distinct borough names, sorted.
func (ds *DataStore) GetBoroughs() ([]string, error) {
	return ds.distinctColumn("boro")
}

func (ds *DataStore) distinctColumn(column string) ([]string, error) {
	var values []string
	err := ds.DB.Model(&Inspection{}).
		Distinct(column).
		Where(column+" <> ''").
		Order(column).
		Pluck(column, &values).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "distinct_"+column).
			Build()
	}
	return values, nil
}
