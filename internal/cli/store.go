package cli

import (
	"fmt"

	"ai-ghostwriter-be/internal/bootstrap"
	"ai-ghostwriter-be/internal/config"
	"ai-ghostwriter-be/internal/pkg/logger"
	"ai-ghostwriter-be/internal/repository/implementation"
	"ai-ghostwriter-be/pkg/database"

	"gorm.io/gorm"
)

var verbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log SQL and pipeline details")
}

// store opens what the data commands share: configuration, the database and
// the vector index.
type store struct {
	cfg    *config.Config
	db     *gorm.DB
	index  *implementation.PgVectorIndex
	logger logger.ILogger
}

func openStore() (*store, error) {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		return nil, fmt.Errorf("DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, verbose)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	var log logger.ILogger = logger.NewNopLogger()
	if verbose {
		log = logger.NewZapLogger(cfg.App.LogFilePath, false)
	}

	return &store{
		cfg:    cfg,
		db:     db,
		index:  implementation.NewPgVectorIndex(db, bootstrap.NewEmbeddingProvider(cfg)),
		logger: log,
	}, nil
}
