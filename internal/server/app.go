// Package server wires configuration, storage backends and services into
// an App used by the command line front end.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/server/config"
	"github.com/dmitrijs2005/gophstore/internal/server/contentstore"
	"github.com/dmitrijs2005/gophstore/internal/server/objectstore"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophstore/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	repos  repomanager.RepositoryManager

	Users       *services.UserService
	Access      *services.AccessService
	Entries     *services.EntryService
	Collections *services.CollectionService
	Public      *services.PublicService
}

// NewApp connects to PostgreSQL and builds the services. Logs go to w as
// JSON (os.Stderr when w is nil). The caller must Close the App.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	if w == nil {
		w = os.Stderr
	}
	logger := logging.NewJSONLogger(w, c.LogLevel)

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	objects, err := newObjectStore(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	m := repomanager.NewPostgresRepositoryManager()
	app, err := build(c, logger, db, dbx.NewSQLTransactor(db, nil), m, objects)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	app.db = db
	return app, nil
}

// newObjectStore returns the part store selected by config, or nil when
// parts stay in the database.
func newObjectStore(ctx context.Context, c *config.Config) (objectstore.Store, error) {
	if c.PartStorage != config.PartStorageS3 {
		return nil, nil
	}
	s, err := objectstore.NewS3(ctx, objectstore.S3Options{
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("object storage init error: %w", err)
	}
	return s, nil
}

func build(c *config.Config, logger logging.Logger, db dbx.DBTX, tx dbx.Transactor,
	m repomanager.RepositoryManager, objects objectstore.Store) (*App, error) {

	content, err := contentstore.New(tx, db, m, logger, contentstore.Options{
		ChunkSize:         c.ChunkSize,
		CacheSize:         c.ValueCacheSize,
		Objects:           objects,
		UploadConcurrency: c.UploadConcurrency,
	})
	if err != nil {
		return nil, fmt.Errorf("content store init error: %w", err)
	}

	access := services.NewAccessService(db, m, logger)
	return &App{
		config:      c,
		logger:      logger,
		repos:       m,
		Users:       services.NewUserService(db, m, c, logger),
		Access:      access,
		Entries:     services.NewEntryService(db, m, content, access, nil, logger),
		Collections: services.NewCollectionService(db, m, access, logger),
		Public:      services.NewPublicService(db, m, content, logger),
	}, nil
}

// Migrate applies the embedded schema migrations.
func (app *App) Migrate(ctx context.Context) error {
	if app.db == nil {
		return fmt.Errorf("migrations need a database connection")
	}
	app.logger.Info(ctx, "running migrations")
	if err := app.repos.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

func (app *App) Logger() logging.Logger { return app.logger }

func (app *App) Close() error {
	if app.db == nil {
		return nil
	}
	return app.db.Close()
}
