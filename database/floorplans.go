package database

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// SaveFloorPlan stores a rendered plan page with its marker list and page
// image. Marker positions are clamped into the unit square on the way in.
func (s *Store) SaveFloorPlan(ctx context.Context, projectID string, plan *FloorPlan) (err error) {
	err = s.db.WithContext(ctx).Clauses(dbresolver.Write).Transaction(func(tx *gorm.DB) error {
		var project Project
		err := tx.Where("id = ?", projectID).Take(&project).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return errors.Join(errors.New("get project exception"), err)
		}
		plan.ProjectID = project.ID
		plan.Markers = MarkerField(ClampMarkers(plan.Markers))
		if err := tx.Create(plan).Error; err != nil {
			return errors.Join(errors.New("save floor plan exception"), err)
		}
		if plan.ImageData != "" {
			if err := writeBlob(tx, plan.ID, RoleFloorPlan, plan.ImageData); err != nil {
				return err
			}
		}
		return touchProject(tx, project.ID)
	})
	return err
}

// UpdateFloorPlanMarkers rewrites the whole marker list of a plan.
func (s *Store) UpdateFloorPlanMarkers(ctx context.Context, planID string, markers []Marker) (err error) {
	err = s.db.WithContext(ctx).Clauses(dbresolver.Write).Transaction(func(tx *gorm.DB) error {
		plan, err := takeFloorPlan(tx, planID)
		if err != nil {
			return err
		}
		err = tx.Model(&FloorPlan{}).Where("id = ?", plan.ID).
			Update("markers", MarkerField(ClampMarkers(markers))).Error
		if err != nil {
			return errors.Join(errors.New("update markers exception"), err)
		}
		return touchProject(tx, plan.ProjectID)
	})
	return err
}

// DeleteFloorPlan removes one plan page, its image blob first. Markers die
// with the row; the locations they point at are untouched.
func (s *Store) DeleteFloorPlan(ctx context.Context, planID string) (err error) {
	err = s.db.WithContext(ctx).Clauses(dbresolver.Write).Transaction(func(tx *gorm.DB) error {
		plan, err := takeFloorPlan(tx, planID)
		if err != nil {
			return err
		}
		if err := tx.Where("owner_id = ?", plan.ID).Delete(&ImageBlob{}).Error; err != nil {
			return errors.Join(errors.New("delete floor plan image exception"), err)
		}
		if err := tx.Where("id = ?", plan.ID).Delete(&FloorPlan{}).Error; err != nil {
			return errors.Join(errors.New("delete floor plan exception"), err)
		}
		return touchProject(tx, plan.ProjectID)
	})
	return err
}

func takeFloorPlan(tx *gorm.DB, planID string) (plan FloorPlan, err error) {
	err = tx.Where("id = ?", planID).Take(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return plan, ErrNotFound
	}
	if err != nil {
		return plan, errors.Join(errors.New("get floor plan exception"), err)
	}
	return plan, nil
}
