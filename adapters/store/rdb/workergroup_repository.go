package rdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/yaegashi/clusterops/domain"
	"github.com/yaegashi/clusterops/domain/model"
	"gorm.io/gorm"
)

// WorkerGroupRepository is a GORM-backed implementation of domain.WorkerGroupRepository.
type WorkerGroupRepository struct{ db *gorm.DB }

func NewWorkerGroupRepository(db *gorm.DB) *WorkerGroupRepository {
	return &WorkerGroupRepository{db: db}
}

func workerGroupToRecord(w *model.WorkerGroup) *WorkerGroupRecord {
	return &WorkerGroupRecord{ID: w.ID, Name: w.Name, ProviderID: w.ProviderID, ControllerID: w.ControllerID, DesiredCount: w.DesiredCount, CreatedAt: w.CreatedAt, UpdatedAt: w.UpdatedAt}
}
func workerGroupToModel(r *WorkerGroupRecord) *model.WorkerGroup {
	return &model.WorkerGroup{ID: r.ID, Name: r.Name, ProviderID: r.ProviderID, ControllerID: r.ControllerID, DesiredCount: r.DesiredCount, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

func (r *WorkerGroupRepository) Create(ctx context.Context, w *model.WorkerGroup) error {
	rec := workerGroupToRecord(w)
	if rec.ID == "" {
		rec.ID = "wg-" + uuid.NewString()
		w.ID = rec.ID
	}
	return translate(r.db.WithContext(ctx).Create(rec).Error, model.ErrWorkerGroupNotFound)
}

func (r *WorkerGroupRepository) Get(ctx context.Context, id string) (*model.WorkerGroup, error) {
	var rec WorkerGroupRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, translate(err, model.ErrWorkerGroupNotFound)
	}
	return workerGroupToModel(&rec), nil
}

func (r *WorkerGroupRepository) GetByName(ctx context.Context, name string) (*model.WorkerGroup, error) {
	var rec WorkerGroupRecord
	if err := r.db.WithContext(ctx).First(&rec, "name = ?", name).Error; err != nil {
		return nil, translate(err, model.ErrWorkerGroupNotFound)
	}
	return workerGroupToModel(&rec), nil
}

func (r *WorkerGroupRepository) List(ctx context.Context) ([]*model.WorkerGroup, error) {
	return r.find(r.db.WithContext(ctx))
}

func (r *WorkerGroupRepository) ListByController(ctx context.Context, controllerID string) ([]*model.WorkerGroup, error) {
	return r.find(r.db.WithContext(ctx).Where("controller_id = ?", controllerID))
}

func (r *WorkerGroupRepository) find(q *gorm.DB) ([]*model.WorkerGroup, error) {
	var recs []WorkerGroupRecord
	if err := q.Order("created_at ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*model.WorkerGroup, 0, len(recs))
	for i := range recs {
		out = append(out, workerGroupToModel(&recs[i]))
	}
	return out, nil
}

func (r *WorkerGroupRepository) Update(ctx context.Context, w *model.WorkerGroup) error {
	rec := workerGroupToRecord(w)
	res := r.db.WithContext(ctx).Model(&WorkerGroupRecord{}).Where("id = ?", rec.ID).Select("*").Omit("created_at").Updates(rec)
	if res.Error != nil {
		return translate(res.Error, model.ErrWorkerGroupNotFound)
	}
	if res.RowsAffected == 0 {
		return model.ErrWorkerGroupNotFound
	}
	return nil
}

func (r *WorkerGroupRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&WorkerGroupRecord{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrWorkerGroupNotFound
	}
	return nil
}

var _ domain.WorkerGroupRepository = (*WorkerGroupRepository)(nil)
