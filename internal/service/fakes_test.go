package service

import (
	"context"
	"errors"
	"sync"

	"ai-ghostwriter-be/internal/entity"
	"ai-ghostwriter-be/internal/repository/contract"
	"ai-ghostwriter-be/internal/repository/specification"
	"ai-ghostwriter-be/internal/repository/unitofwork"
	"ai-ghostwriter-be/pkg/embedding"
	"ai-ghostwriter-be/pkg/events"
	"ai-ghostwriter-be/pkg/vectorindex"

	"github.com/google/uuid"
)

// memorySourceRepository understands the specifications the services use.
type memorySourceRepository struct {
	mu      sync.Mutex
	sources map[uuid.UUID]*entity.Source
	order   []uuid.UUID
	err     error
}

func newMemorySourceRepository() *memorySourceRepository {
	return &memorySourceRepository{sources: make(map[uuid.UUID]*entity.Source)}
}

func (r *memorySourceRepository) Create(ctx context.Context, source *entity.Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	cp := *source
	r.sources[source.Id] = &cp
	r.order = append(r.order, source.Id)
	return nil
}

func (r *memorySourceRepository) UpdateContent(ctx context.Context, source *entity.Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.sources[source.Id]
	if !ok {
		return entity.ErrSourceNotFound
	}
	stored.Title = source.Title
	stored.Text = source.Text
	stored.OriginURL = source.OriginURL
	stored.UpdatedAt = source.UpdatedAt
	return nil
}

func (r *memorySourceRepository) UpdateIngestStatus(ctx context.Context, id uuid.UUID, processed bool, chunkCount int, lastError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.sources[id]
	if !ok {
		return entity.ErrSourceNotFound
	}
	stored.Processed = processed
	stored.ChunkCount = chunkCount
	stored.LastError = lastError
	return nil
}

func (r *memorySourceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sources, id)
	return nil
}

func (r *memorySourceRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Source, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *memorySourceRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}

	var res []*entity.Source
	for _, id := range r.order {
		source, ok := r.sources[id]
		if !ok || !matchesAll(source, specs) {
			continue
		}
		cp := *source
		res = append(res, &cp)
	}
	return res, nil
}

func (r *memorySourceRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	return int64(len(all)), err
}

func (r *memorySourceRepository) get(id uuid.UUID) entity.Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.sources[id]
}

func matchesAll(source *entity.Source, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if source.Id != s.ID {
				return false
			}
		case specification.ByIDs:
			found := false
			for _, id := range s.IDs {
				if id == source.Id {
					found = true
				}
			}
			if !found {
				return false
			}
		case specification.ByOwnerID:
			if source.OwnerId != s.OwnerID {
				return false
			}
		case specification.ByProcessed:
			if source.Processed != s.Processed {
				return false
			}
		}
	}
	return true
}

type fakeUnitOfWork struct {
	sources *memorySourceRepository
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *fakeUnitOfWork) Commit() error                   { return nil }
func (u *fakeUnitOfWork) Rollback() error                 { return nil }

func (u *fakeUnitOfWork) SourceRepository() contract.SourceRepository { return u.sources }

func (u *fakeUnitOfWork) SourceChunkRepository() contract.SourceChunkRepository { return nil }

type fakeRepositoryFactory struct {
	uow *fakeUnitOfWork
}

func (f *fakeRepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

func newFakeFactory() (*fakeRepositoryFactory, *memorySourceRepository) {
	repo := newMemorySourceRepository()
	return &fakeRepositoryFactory{uow: &fakeUnitOfWork{sources: repo}}, repo
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []uuid.UUID
	err  error
}

func (q *recordingQueue) SendIngestJob(ctx context.Context, sourceId uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, sourceId)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	res := make([]string, 0, len(p.events))
	for _, e := range p.events {
		res = append(res, e.EventType())
	}
	return res
}

// constantEmbedder maps every text to the same unit vector.
type constantEmbedder struct{}

func (constantEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{1, 0, 0}}}, nil
}

var errIndexDown = errors.New("connection refused")

// flakyIndex fails Upsert while down is set and DeleteSource while
// deleteDown is set. beforeDelete runs ahead of every DeleteSource.
type flakyIndex struct {
	*vectorindex.MemoryIndex
	down         bool
	deleteDown   bool
	beforeDelete func()
}

func (f *flakyIndex) DeleteSource(ctx context.Context, ownerID, sourceID string, keep []string) error {
	if f.beforeDelete != nil {
		f.beforeDelete()
	}
	if f.deleteDown {
		return errors.Join(vectorindex.ErrIndexUnavailable, errIndexDown)
	}
	return f.MemoryIndex.DeleteSource(ctx, ownerID, sourceID, keep)
}

func (f *flakyIndex) Upsert(ctx context.Context, entries []vectorindex.Entry) error {
	if f.down {
		return errors.Join(vectorindex.ErrIndexUnavailable, errIndexDown)
	}
	return f.MemoryIndex.Upsert(ctx, entries)
}
