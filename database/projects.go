package database

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"
)

// GetProjects returns every project fully hydrated, most recently updated
// first. An empty store yields an empty slice.
func (s *Store) GetProjects(ctx context.Context) (projects []Project, err error) {
	err = s.db.WithContext(ctx).Clauses(dbresolver.Read).Order("updated_at DESC").Find(&projects).Error
	if err != nil {
		return nil, errors.Join(errors.New("get projects exception"), err)
	}
	for i := range projects {
		if err := s.hydrateProject(ctx, &projects[i]); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

// GetProject returns one hydrated project, or nil when the id is unknown.
func (s *Store) GetProject(ctx context.Context, id string) (*Project, error) {
	var project Project
	err := s.db.WithContext(ctx).Clauses(dbresolver.Read).Where("id = ?", id).Take(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Join(errors.New("get project exception"), err)
	}
	if err := s.hydrateProject(ctx, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *Store) hydrateProject(ctx context.Context, project *Project) error {
	var locations []Location
	err := s.db.WithContext(ctx).Clauses(dbresolver.Read).
		Where("project_id = ?", project.ID).Order("created_at ASC").Find(&locations).Error
	if err != nil {
		return errors.Join(errors.New("get locations exception"), err)
	}
	for i := range locations {
		if err := s.hydrateLocation(ctx, &locations[i]); err != nil {
			return err
		}
	}
	project.Locations = locations

	var plans []FloorPlan
	err = s.db.WithContext(ctx).Clauses(dbresolver.Read).
		Where("project_id = ?", project.ID).Order("page_index ASC, created_at ASC").Find(&plans).Error
	if err != nil {
		return errors.Join(errors.New("get floor plans exception"), err)
	}
	for i := range plans {
		image, err := s.readImage(ctx, plans[i].ID, RoleFloorPlan)
		if err != nil {
			return err
		}
		plans[i].ImageData = image
	}
	project.FloorPlans = plans
	return nil
}

func (s *Store) hydrateLocation(ctx context.Context, location *Location) error {
	annotated, err := s.readImage(ctx, location.ID, RoleAnnotated)
	if err != nil {
		return err
	}
	original, err := s.readImage(ctx, location.ID, RoleOriginal)
	if err != nil {
		return err
	}
	location.ImageData = annotated
	// a capture without a distinct original shows the annotated image
	if original == "" {
		original = annotated
	}
	location.OriginalImageData = original

	var details []DetailImage
	err = s.db.WithContext(ctx).Clauses(dbresolver.Read).
		Where("location_id = ?", location.ID).Order("created_at ASC").Find(&details).Error
	if err != nil {
		return errors.Join(errors.New("get detail images exception"), err)
	}
	for i := range details {
		if err := s.hydrateDetailImage(ctx, &details[i]); err != nil {
			return err
		}
	}
	location.DetailImages = details
	return nil
}

func (s *Store) hydrateDetailImage(ctx context.Context, detail *DetailImage) error {
	annotated, err := s.readImage(ctx, detail.ID, RoleAnnotated)
	if err != nil {
		return err
	}
	original, err := s.readImage(ctx, detail.ID, RoleOriginal)
	if err != nil {
		return err
	}
	detail.ImageData = annotated
	if original == "" {
		original = annotated
	}
	detail.OriginalImageData = original
	return nil
}

// readImage resolves one blob to data-URI form; absent blobs are "".
func (s *Store) readImage(ctx context.Context, ownerID, role string) (string, error) {
	var blob ImageBlob
	err := s.db.WithContext(ctx).Clauses(dbresolver.Read).
		Where("id = ?", BlobID(ownerID, role)).Take(&blob).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", errors.Join(errors.New("read image exception"), err)
	}
	return encodeDataURI(blob.Mime, blob.Data), nil
}

// SaveProject upserts the project and its location set. Image blobs are
// written only for locations that do not exist yet: blobs are immutable
// under SaveProject, and in-place image edits must go through
// UpdateLocationImage. A full resave therefore never silently applies an
// image change. Locations missing from the incoming set are cascade
// deleted with their detail images and blobs.
func (s *Store) SaveProject(ctx context.Context, project *Project) (err error) {
	err = s.db.WithContext(ctx).Clauses(dbresolver.Write).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		if project.CreatedAt.IsZero() {
			project.CreatedAt = now
		}
		project.UpdatedAt = now

		row := Project{
			ID:        project.ID,
			Number:    project.Number,
			Type:      project.Type,
			CreatedAt: project.CreatedAt,
			UpdatedAt: project.UpdatedAt,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"number", "type", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return errors.Join(errors.New("save project exception"), err)
		}
		project.ID = row.ID

		var existing []Location
		err = tx.Where("project_id = ?", project.ID).Find(&existing).Error
		if err != nil {
			return errors.Join(errors.New("get locations exception"), err)
		}
		existingIDs := make(map[string]struct{}, len(existing))
		for _, loc := range existing {
			existingIDs[loc.ID] = struct{}{}
		}

		incomingIDs := make(map[string]struct{}, len(project.Locations))
		for i := range project.Locations {
			location := &project.Locations[i]
			location.ProjectID = project.ID
			if location.CreatedAt.IsZero() {
				location.CreatedAt = now
			}
			locRow := Location{
				ID:        location.ID,
				ProjectID: location.ProjectID,
				Number:    location.Number,
				Name:      location.Name,
				Comment:   location.Comment,
				System:    location.System,
				Label:     location.Label,
				Type:      location.Type,
				GuestInfo: location.GuestInfo,
				CreatedAt: location.CreatedAt,
			}
			err = tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"number", "name", "comment", "system", "label", "type"}),
			}).Create(&locRow).Error
			if err != nil {
				return errors.Join(errors.New("save location exception"), err)
			}
			location.ID = locRow.ID
			incomingIDs[location.ID] = struct{}{}

			if _, ok := existingIDs[location.ID]; ok {
				continue
			}
			if location.ImageData != "" {
				if err := writeBlob(tx, location.ID, RoleAnnotated, location.ImageData); err != nil {
					return err
				}
			}
			if location.OriginalImageData != "" {
				if err := writeBlob(tx, location.ID, RoleOriginal, location.OriginalImageData); err != nil {
					return err
				}
			}
		}

		// cascade delete locations absent from the incoming set
		for _, loc := range existing {
			if _, ok := incomingIDs[loc.ID]; ok {
				continue
			}
			if err := deleteLocationCascade(tx, loc.ID); err != nil {
				return err
			}
		}
		return nil
	})
	return err
}

// DeleteProject removes a project and everything it owns, children first,
// so an interruption can never leave orphaned rows behind a gone parent.
func (s *Store) DeleteProject(ctx context.Context, id string) (err error) {
	err = s.db.WithContext(ctx).Clauses(dbresolver.Write).Transaction(func(tx *gorm.DB) error {
		var plans []FloorPlan
		if err := tx.Where("project_id = ?", id).Find(&plans).Error; err != nil {
			return errors.Join(errors.New("get floor plans exception"), err)
		}
		for _, plan := range plans {
			if err := tx.Where("owner_id = ?", plan.ID).Delete(&ImageBlob{}).Error; err != nil {
				return errors.Join(errors.New("delete floor plan image exception"), err)
			}
		}
		if err := tx.Where("project_id = ?", id).Delete(&FloorPlan{}).Error; err != nil {
			return errors.Join(errors.New("delete floor plans exception"), err)
		}

		var locations []Location
		if err := tx.Where("project_id = ?", id).Find(&locations).Error; err != nil {
			return errors.Join(errors.New("get locations exception"), err)
		}
		for _, location := range locations {
			if err := deleteLocationCascade(tx, location.ID); err != nil {
				return err
			}
		}

		if err := tx.Where("id = ?", id).Delete(&Project{}).Error; err != nil {
			return errors.Join(errors.New("delete project exception"), err)
		}
		return nil
	})
	return err
}

// deleteLocationCascade removes one location bottom-up: detail image
// blobs, detail image rows, location blobs, then the location row.
func deleteLocationCascade(tx *gorm.DB, locationID string) error {
	var details []DetailImage
	if err := tx.Where("location_id = ?", locationID).Find(&details).Error; err != nil {
		return errors.Join(errors.New("get detail images exception"), err)
	}
	for _, detail := range details {
		if err := tx.Where("owner_id = ?", detail.ID).Delete(&ImageBlob{}).Error; err != nil {
			return errors.Join(errors.New("delete detail image blobs exception"), err)
		}
	}
	if err := tx.Where("location_id = ?", locationID).Delete(&DetailImage{}).Error; err != nil {
		return errors.Join(errors.New("delete detail images exception"), err)
	}
	if err := tx.Where("owner_id = ?", locationID).Delete(&ImageBlob{}).Error; err != nil {
		return errors.Join(errors.New("delete location blobs exception"), err)
	}
	if err := tx.Where("id = ?", locationID).Delete(&Location{}).Error; err != nil {
		return errors.Join(errors.New("delete location exception"), err)
	}
	return nil
}

// writeBlob decodes a data URI and upserts it under the owner/role key.
func writeBlob(tx *gorm.DB, ownerID, role, dataURI string) error {
	mime, data, err := decodeDataURI(dataURI)
	if err != nil {
		return errors.Join(errors.New("decode image exception"), err)
	}
	blob := ImageBlob{
		ID:      BlobID(ownerID, role),
		OwnerID: ownerID,
		Role:    role,
		Mime:    mime,
		Data:    ImageField(data),
	}
	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"mime", "data"}),
	}).Create(&blob).Error
	if err != nil {
		return errors.Join(errors.New("write image exception"), err)
	}
	return nil
}

// touchProject refreshes the parent's updated timestamp.
func touchProject(tx *gorm.DB, projectID string) error {
	err := tx.Model(&Project{}).Where("id = ?", projectID).
		Update("updated_at", time.Now().UTC()).Error
	if err != nil {
		return errors.Join(errors.New("touch project exception"), err)
	}
	return nil
}
