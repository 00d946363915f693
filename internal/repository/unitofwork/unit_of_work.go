package unitofwork

import (
	"context"

	"ai-ghostwriter-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	SourceRepository() contract.SourceRepository
	SourceChunkRepository() contract.SourceChunkRepository
}
