// reviews.go: user review persistence
package datastore

import (
	"github.com/dinewatch/dinewatch-go/internal/errors"
)

// SaveReview stores a new restaurant review.
func (ds *DataStore) SaveReview(review *Review) error {
	if review == nil {
		return errors.Newf("review cannot be nil").
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}
	if review.Rating < 1 || review.Rating > 5 {
		return errors.Newf("review rating must be between 1 and 5, got %d", review.Rating).
			Component("datastore").
			Category(errors.CategoryValidation).
			Context("rating", review.Rating).
			Build()
	}
	if err := ds.DB.Create(review).Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "save_review").
			Context("camis", review.CAMIS).
			Build()
	}
	return nil
}

// GetReviews returns a restaurant's reviews, newest first.
func (ds *DataStore) GetReviews(camis int64) ([]Review, error) {
	var reviews []Review
	err := ds.DB.Where("camis = ?", camis).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get_reviews").
			Context("camis", camis).
			Build()
	}
	return reviews, nil
}
