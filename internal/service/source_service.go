package service

import (
	"context"
	"time"

	"ai-ghostwriter-be/internal/dto"
	"ai-ghostwriter-be/internal/entity"
	"ai-ghostwriter-be/internal/pkg/logger"
	"ai-ghostwriter-be/internal/repository/specification"
	"ai-ghostwriter-be/internal/repository/unitofwork"
	"ai-ghostwriter-be/pkg/vectorindex"

	"github.com/google/uuid"
)

const defaultPageSize = 50

type ISourceService interface {
	Create(ctx context.Context, ownerId string, req *dto.CreateSourceRequest) (*dto.SourceResponse, error)
	Show(ctx context.Context, ownerId string, id uuid.UUID) (*dto.ShowSourceResponse, error)
	List(ctx context.Context, ownerId string, req *dto.ListSourcesRequest) (*dto.ListSourcesResponse, error)
	Update(ctx context.Context, ownerId string, req *dto.UpdateSourceRequest) (*dto.SourceResponse, error)
	Delete(ctx context.Context, ownerId string, id uuid.UUID) error
	// OwnedSourceIDs returns the subset of ids that parse and belong to ownerId,
	// in the order given.
	OwnedSourceIDs(ctx context.Context, ownerId string, ids []string) ([]string, error)
}

type sourceService struct {
	uowFactory unitofwork.RepositoryFactory
	ingestion  IIngestionService
	index      vectorindex.Index
	logger     logger.ILogger
}

func NewSourceService(
	uowFactory unitofwork.RepositoryFactory,
	ingestion IIngestionService,
	index vectorindex.Index,
	log logger.ILogger,
) ISourceService {
	return &sourceService{
		uowFactory: uowFactory,
		ingestion:  ingestion,
		index:      index,
		logger:     log,
	}
}

func (c *sourceService) Create(ctx context.Context, ownerId string, req *dto.CreateSourceRequest) (*dto.SourceResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	source := entity.Source{
		Id:        uuid.New(),
		OwnerId:   ownerId,
		Title:     req.Title,
		Text:      req.Text,
		OriginURL: req.OriginURL,
		CreatedAt: time.Now(),
	}

	if err := uow.SourceRepository().Create(ctx, &source); err != nil {
		return nil, err
	}

	if err := c.ingestion.Enqueue(ctx, source.Id); err != nil {
		return nil, err
	}

	return toSourceResponse(&source), nil
}

func (c *sourceService) Show(ctx context.Context, ownerId string, id uuid.UUID) (*dto.ShowSourceResponse, error) {
	source, err := c.findOwned(ctx, ownerId, id)
	if err != nil {
		return nil, err
	}

	return &dto.ShowSourceResponse{
		SourceResponse: *toSourceResponse(source),
		Text:           source.Text,
	}, nil
}

func (c *sourceService) List(ctx context.Context, ownerId string, req *dto.ListSourcesRequest) (*dto.ListSourcesResponse, error) {
	filters := []specification.Specification{specification.ByOwnerID{OwnerID: ownerId}}
	if req.Processed != nil {
		filters = append(filters, specification.ByProcessed{Processed: *req.Processed})
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	total, err := uow.SourceRepository().Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	specs := append(filters,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: req.Offset},
	)
	sources, err := uow.SourceRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := &dto.ListSourcesResponse{
		Items: make([]*dto.SourceResponse, 0, len(sources)),
		Total: total,
	}
	for _, source := range sources {
		res.Items = append(res.Items, toSourceResponse(source))
	}
	return res, nil
}

// Update rewrites the content and re-ingests. The source stays unprocessed
// until the new run completes.
func (c *sourceService) Update(ctx context.Context, ownerId string, req *dto.UpdateSourceRequest) (*dto.SourceResponse, error) {
	source, err := c.findOwned(ctx, ownerId, req.Id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	source.Title = req.Title
	source.Text = req.Text
	source.OriginURL = req.OriginURL
	source.UpdatedAt = &now

	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.SourceRepository().UpdateContent(ctx, source); err != nil {
		return nil, err
	}

	if err := c.ingestion.Enqueue(ctx, source.Id); err != nil {
		return nil, err
	}
	source.Processed = false
	source.LastError = ""

	return toSourceResponse(source), nil
}

func (c *sourceService) Delete(ctx context.Context, ownerId string, id uuid.UUID) error {
	source, err := c.findOwned(ctx, ownerId, id)
	if err != nil {
		return err
	}

	if err := c.index.DeleteSource(ctx, source.OwnerId, source.Id.String(), nil); err != nil {
		return err
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.SourceRepository().Delete(ctx, source.Id); err != nil {
		return err
	}

	c.logger.Info("SourceService", "Source deleted", map[string]interface{}{
		"source_id": source.Id.String(),
		"owner_id":  ownerId,
	})
	return nil
}

func (c *sourceService) OwnedSourceIDs(ctx context.Context, ownerId string, ids []string) ([]string, error) {
	parsed := make([]uuid.UUID, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		parsed = append(parsed, id)
	}
	if len(parsed) == 0 {
		return []string{}, nil
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	sources, err := uow.SourceRepository().FindAll(ctx,
		specification.ByIDs{IDs: parsed},
		specification.ByOwnerID{OwnerID: ownerId},
	)
	if err != nil {
		return nil, err
	}

	owned := make(map[uuid.UUID]bool, len(sources))
	for _, source := range sources {
		owned[source.Id] = true
	}

	res := make([]string, 0, len(parsed))
	for _, id := range parsed {
		if owned[id] {
			res = append(res, id.String())
		}
	}
	return res, nil
}

func (c *sourceService) findOwned(ctx context.Context, ownerId string, id uuid.UUID) (*entity.Source, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	source, err := uow.SourceRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.ByOwnerID{OwnerID: ownerId},
	)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, entity.ErrSourceNotFound
	}
	return source, nil
}

func toSourceResponse(source *entity.Source) *dto.SourceResponse {
	return &dto.SourceResponse{
		Id:         source.Id,
		Title:      source.Title,
		OriginURL:  source.OriginURL,
		Processed:  source.Processed,
		ChunkCount: source.ChunkCount,
		LastError:  source.LastError,
		CreatedAt:  source.CreatedAt,
		UpdatedAt:  source.UpdatedAt,
	}
}
