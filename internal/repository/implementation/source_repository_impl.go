package implementation

import (
	"context"
	"errors"

	"ai-ghostwriter-be/internal/entity"
	"ai-ghostwriter-be/internal/mapper"
	"ai-ghostwriter-be/internal/model"
	"ai-ghostwriter-be/internal/repository/contract"
	"ai-ghostwriter-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SourceRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SourceMapper
}

func NewSourceRepository(db *gorm.DB) contract.SourceRepository {
	return &SourceRepositoryImpl{
		db:     db,
		mapper: mapper.NewSourceMapper(),
	}
}

func (r *SourceRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SourceRepositoryImpl) Create(ctx context.Context, source *entity.Source) error {
	m := r.mapper.ToModel(source)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return classifyError(err)
	}
	*source = *r.mapper.ToEntity(m)
	return nil
}

func (r *SourceRepositoryImpl) UpdateContent(ctx context.Context, source *entity.Source) error {
	res := r.db.WithContext(ctx).
		Model(&model.Source{}).
		Where("id = ?", source.Id).
		Updates(map[string]interface{}{
			"title":      source.Title,
			"text":       source.Text,
			"origin_url": source.OriginURL,
		})
	if res.Error != nil {
		return classifyError(res.Error)
	}
	if res.RowsAffected == 0 {
		return entity.ErrSourceNotFound
	}
	return nil
}

func (r *SourceRepositoryImpl) UpdateIngestStatus(ctx context.Context, id uuid.UUID, processed bool, chunkCount int, lastError string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Source{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"processed":   processed,
			"chunk_count": chunkCount,
			"last_error":  lastError,
		})
	if res.Error != nil {
		return classifyError(res.Error)
	}
	if res.RowsAffected == 0 {
		return entity.ErrSourceNotFound
	}
	return nil
}

func (r *SourceRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return classifyError(r.db.WithContext(ctx).Delete(&model.Source{}, id).Error)
}

func (r *SourceRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Source, error) {
	var m model.Source
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classifyError(err)
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *SourceRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Source, error) {
	var models []*model.Source
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, classifyError(err)
	}
	return r.mapper.ToEntities(models), nil
}

func (r *SourceRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Source{}).Count(&count).Error
	return count, classifyError(err)
}
