package database

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// ProjectAuth is the slim projection guest validation needs: no locations,
// no blobs.
type ProjectAuth struct {
	ID            string
	Number        string
	GuestPassword string
}

// GetProjectAuth looks a project up by id for guest validation.
func (s *Store) GetProjectAuth(ctx context.Context, projectID string) (auth ProjectAuth, err error) {
	var project Project
	err = s.db.WithContext(ctx).Clauses(dbresolver.Read).
		Select("id", "number", "guest_password").
		Where("id = ?", projectID).Take(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return auth, ErrNotFound
	}
	if err != nil {
		return auth, errors.Join(errors.New("get project auth exception"), err)
	}
	return ProjectAuth{
		ID:            project.ID,
		Number:        project.Number,
		GuestPassword: project.GuestPassword,
	}, nil
}

// SetProjectGuestPassword stores the shared guest secret for a project. An
// empty value removes the password requirement.
func (s *Store) SetProjectGuestPassword(ctx context.Context, projectID, password string) error {
	result := s.db.WithContext(ctx).Clauses(dbresolver.Write).
		Model(&Project{}).Where("id = ?", projectID).
		Update("guest_password", password)
	if result.Error != nil {
		return errors.Join(errors.New("set guest password exception"), result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
