package model

import (
	"fmt"

	"gorm.io/gorm"
)

// AutoMigrate creates the pgvector extension, the tables and the ANN index.
func AutoMigrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		return fmt.Errorf("create pgcrypto extension: %w", err)
	}
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS vector;`).Error; err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	if err := db.AutoMigrate(&Source{}, &SourceChunk{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	indexSQL := `CREATE INDEX IF NOT EXISTS source_chunks_embedding_hnsw
		ON source_chunks USING hnsw (embedding vector_cosine_ops);`
	if err := db.Exec(indexSQL).Error; err != nil {
		return fmt.Errorf("create embedding index: %w", err)
	}
	return nil
}
