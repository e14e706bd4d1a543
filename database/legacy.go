package database

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/aufmass/go-aufmass/logger"
	"github.com/schollz/progressbar/v3"
	"gorm.io/plugin/dbresolver"
)

// ImportLegacy migrates the flat JSON project file written by early
// releases into the structured store. It runs at most once per store
// lifetime: the SchemaInfo flag is set whether or not a file was found,
// and the file is removed after a successful import so the space is freed.
// Returns whether an import actually happened.
func (s *Store) ImportLegacy(ctx context.Context, path string) (imported bool, err error) {
	if path == "" {
		return false, nil
	}

	var info SchemaInfo
	err = s.db.WithContext(ctx).Clauses(dbresolver.Read).First(&info).Error
	if err != nil {
		return false, errors.Join(errors.New("read schema info exception"), err)
	}
	if info.LegacyImported {
		return false, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, s.markLegacyImported(ctx)
	}
	if err != nil {
		return false, errors.Join(errors.New("read legacy store exception"), err)
	}

	var projects []Project
	if err := json.Unmarshal(raw, &projects); err != nil {
		return false, errors.Join(errors.New("parse legacy store exception"), err)
	}

	bar := progressbar.Default(int64(len(projects)), "Importing legacy projects...")
	for i := range projects {
		if err := s.SaveProject(ctx, &projects[i]); err != nil {
			return false, err
		}
		bar.Add(1)
	}

	if err := s.markLegacyImported(ctx); err != nil {
		return false, err
	}
	if err := os.Remove(path); err != nil {
		logger.Sugar().Warnf("legacy store imported but not removed: %v", err)
	}
	logger.Sugar().Infof("imported %d legacy projects", len(projects))
	return len(projects) > 0, nil
}

func (s *Store) markLegacyImported(ctx context.Context) error {
	err := s.db.WithContext(ctx).Clauses(dbresolver.Write).
		Model(&SchemaInfo{}).Where("1 = 1").
		Update("legacy_imported", true).Error
	if err != nil {
		return errors.Join(errors.New("mark legacy imported exception"), err)
	}
	return nil
}
