package database

import (
	"errors"

	"github.com/aufmass/go-aufmass/config"
	"github.com/aufmass/go-aufmass/logger"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// Store is the local persistence layer. One Store is opened per process
// and shared; Open is the only constructor and Close the only teardown, so
// there is no hidden package-level connection.
type Store struct {
	db         *gorm.DB
	sqlitePath string
}

func Open(cfg config.Database) (store *Store, err error) {
	// get dialectors from config
	readwrite, readonly := cfg.GetDialectors()
	if len(readwrite) == 0 {
		return nil, errors.New("no writable database configured")
	}

	// open primary database connection
	db, err := gorm.Open(readwrite[0], &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, errors.Join(errors.New("open database"), err)
	}
	if err := migrate(db); err != nil {
		return nil, errors.Join(errors.New("migrate database"), err)
	}

	// add resolver connections
	if len(readonly)+len(readwrite) > 1 {
		err = db.Use(dbresolver.Register(dbresolver.Config{
			Sources:           readwrite,
			Replicas:          readonly,
			Policy:            dbresolver.StrictRoundRobinPolicy(),
			TraceResolverMode: true,
		}))
		if err != nil {
			logger.Sugar().Errorf("failed to register database resolver: %v", err)
			return nil, err
		}
	}
	return &Store{db: db, sqlitePath: cfg.Sqlite}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
