package database

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// SaveDetailImage attaches a new detail image to a location, writing its
// blobs once. Later image edits go through UpdateDetailImage only.
func (s *Store) SaveDetailImage(ctx context.Context, locationID string, detail *DetailImage) (err error) {
	err = s.db.WithContext(ctx).Clauses(dbresolver.Write).Transaction(func(tx *gorm.DB) error {
		location, err := takeLocation(tx, locationID)
		if err != nil {
			return err
		}
		detail.LocationID = location.ID
		if err := tx.Create(detail).Error; err != nil {
			return errors.Join(errors.New("save detail image exception"), err)
		}
		if detail.ImageData != "" {
			if err := writeBlob(tx, detail.ID, RoleAnnotated, detail.ImageData); err != nil {
				return err
			}
		}
		if detail.OriginalImageData != "" {
			if err := writeBlob(tx, detail.ID, RoleOriginal, detail.OriginalImageData); err != nil {
				return err
			}
		}
		return touchProject(tx, location.ProjectID)
	})
	return err
}

// UpdateDetailImage replaces only the annotated blob of a detail image.
func (s *Store) UpdateDetailImage(ctx context.Context, detailID, imageData string) (err error) {
	err = s.db.WithContext(ctx).Clauses(dbresolver.Write).Transaction(func(tx *gorm.DB) error {
		detail, location, err := takeDetail(tx, detailID)
		if err != nil {
			return err
		}
		if err := writeBlob(tx, detail.ID, RoleAnnotated, imageData); err != nil {
			return err
		}
		return touchProject(tx, location.ProjectID)
	})
	return err
}

// UpdateDetailImageMetadata updates the caption; nil leaves it untouched.
func (s *Store) UpdateDetailImageMetadata(ctx context.Context, detailID string, caption *string) (err error) {
	if caption == nil {
		return nil
	}
	err = s.db.WithContext(ctx).Clauses(dbresolver.Write).Transaction(func(tx *gorm.DB) error {
		detail, location, err := takeDetail(tx, detailID)
		if err != nil {
			return err
		}
		err = tx.Model(&DetailImage{}).Where("id = ?", detail.ID).
			Update("caption", *caption).Error
		if err != nil {
			return errors.Join(errors.New("update detail image exception"), err)
		}
		return touchProject(tx, location.ProjectID)
	})
	return err
}

// DeleteDetailImage removes a detail image, blobs first.
func (s *Store) DeleteDetailImage(ctx context.Context, detailID string) (err error) {
	err = s.db.WithContext(ctx).Clauses(dbresolver.Write).Transaction(func(tx *gorm.DB) error {
		detail, location, err := takeDetail(tx, detailID)
		if err != nil {
			return err
		}
		if err := tx.Where("owner_id = ?", detail.ID).Delete(&ImageBlob{}).Error; err != nil {
			return errors.Join(errors.New("delete detail image blobs exception"), err)
		}
		if err := tx.Where("id = ?", detail.ID).Delete(&DetailImage{}).Error; err != nil {
			return errors.Join(errors.New("delete detail image exception"), err)
		}
		return touchProject(tx, location.ProjectID)
	})
	return err
}

func takeDetail(tx *gorm.DB, detailID string) (detail DetailImage, location Location, err error) {
	err = tx.Where("id = ?", detailID).Take(&detail).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return detail, location, ErrNotFound
	}
	if err != nil {
		return detail, location, errors.Join(errors.New("get detail image exception"), err)
	}
	location, err = takeLocation(tx, detail.LocationID)
	return detail, location, err
}
