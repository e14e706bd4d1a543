package database

import (
	"context"
	"errors"

	"github.com/aufmass/go-aufmass/config"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// ErrNotFound reports an operation against an id no row carries.
var ErrNotFound = errors.New("record not found")

// LocationMetadata is a partial update: nil fields are untouched, non-nil
// fields are written (an empty string clears the value).
type LocationMetadata struct {
	Name    *string
	Comment *string
	System  *string
	Label   *string
	Type    *string
}

// UpdateLocationImage replaces only the annotated image blob of one
// location and bumps the parent project. The original capture is immutable.
func (s *Store) UpdateLocationImage(ctx context.Context, locationID, imageData string) (err error) {
	err = s.db.WithContext(ctx).Clauses(dbresolver.Write).Transaction(func(tx *gorm.DB) error {
		location, err := takeLocation(tx, locationID)
		if err != nil {
			return err
		}
		if err := writeBlob(tx, location.ID, RoleAnnotated, imageData); err != nil {
			return err
		}
		return touchProject(tx, location.ProjectID)
	})
	return err
}

// UpdateLocationMetadata applies a partial metadata update and bumps the
// parent project. A fully-nil update is a no-op.
func (s *Store) UpdateLocationMetadata(ctx context.Context, locationID string, meta LocationMetadata) (err error) {
	updates := map[string]any{}
	if meta.Name != nil {
		updates["name"] = *meta.Name
	}
	if meta.Comment != nil {
		updates["comment"] = *meta.Comment
	}
	if meta.System != nil {
		updates["system"] = *meta.System
	}
	if meta.Label != nil {
		updates["label"] = *meta.Label
	}
	if meta.Type != nil {
		updates["type"] = *meta.Type
	}
	if len(updates) == 0 {
		return nil
	}
	err = s.db.WithContext(ctx).Clauses(dbresolver.Write).Transaction(func(tx *gorm.DB) error {
		location, err := takeLocation(tx, locationID)
		if err != nil {
			return err
		}
		err = tx.Model(&Location{}).Where("id = ?", location.ID).Updates(updates).Error
		if err != nil {
			return errors.Join(errors.New("update location exception"), err)
		}
		return touchProject(tx, location.ProjectID)
	})
	return err
}

// UpdateLocationGuestInfo writes the guest-editable note after verifying
// the location belongs to the claimed project. Input is length-bounded.
func (s *Store) UpdateLocationGuestInfo(ctx context.Context, projectID, locationID, info string) (err error) {
	if runes := []rune(info); len(runes) > config.GUEST_INFO_MAX_LEN {
		info = string(runes[:config.GUEST_INFO_MAX_LEN])
	}
	err = s.db.WithContext(ctx).Clauses(dbresolver.Write).Transaction(func(tx *gorm.DB) error {
		location, err := takeLocation(tx, locationID)
		if err != nil {
			return err
		}
		if location.ProjectID != projectID {
			return ErrNotFound
		}
		err = tx.Model(&Location{}).Where("id = ?", location.ID).
			Update("guest_info", info).Error
		if err != nil {
			return errors.Join(errors.New("update guest info exception"), err)
		}
		return touchProject(tx, location.ProjectID)
	})
	return err
}

func takeLocation(tx *gorm.DB, locationID string) (location Location, err error) {
	err = tx.Where("id = ?", locationID).Take(&location).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return location, ErrNotFound
	}
	if err != nil {
		return location, errors.Join(errors.New("get location exception"), err)
	}
	return location, nil
}
