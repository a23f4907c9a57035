package rdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/yaegashi/clusterops/domain"
	"github.com/yaegashi/clusterops/domain/model"
	"gorm.io/gorm"
)

// InstanceRepository is a GORM-backed implementation of domain.InstanceRepository.
type InstanceRepository struct{ db *gorm.DB }

func NewInstanceRepository(db *gorm.DB) *InstanceRepository { return &InstanceRepository{db: db} }

func instanceToRecord(i *model.Instance) *InstanceRecord {
	return &InstanceRecord{
		ID:                 i.ID,
		ProviderID:         i.ProviderID,
		ProviderInstanceID: i.ProviderInstanceID,
		IPAddress:          i.IPAddress,
		ControllerID:       i.ControllerID,
		WorkerGroupID:      i.WorkerGroupID,
		CreatedAt:          i.CreatedAt,
		UpdatedAt:          i.UpdatedAt,
	}
}

func instanceToModel(r *InstanceRecord) *model.Instance {
	return &model.Instance{
		ID:                 r.ID,
		ProviderID:         r.ProviderID,
		ProviderInstanceID: r.ProviderInstanceID,
		IPAddress:          r.IPAddress,
		ControllerID:       r.ControllerID,
		WorkerGroupID:      r.WorkerGroupID,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func (r *InstanceRepository) Create(ctx context.Context, i *model.Instance) error {
	if err := i.Validate(); err != nil {
		return err
	}
	rec := instanceToRecord(i)
	if rec.ID == "" {
		rec.ID = "inst-" + uuid.NewString()
		i.ID = rec.ID
	}
	return translate(r.db.WithContext(ctx).Create(rec).Error, model.ErrInstanceNotFound)
}

func (r *InstanceRepository) Get(ctx context.Context, id string) (*model.Instance, error) {
	var rec InstanceRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, translate(err, model.ErrInstanceNotFound)
	}
	return instanceToModel(&rec), nil
}

func (r *InstanceRepository) List(ctx context.Context) ([]*model.Instance, error) {
	return r.find(r.db.WithContext(ctx))
}

func (r *InstanceRepository) ListByController(ctx context.Context, controllerID string) ([]*model.Instance, error) {
	return r.find(r.db.WithContext(ctx).Where("controller_id = ?", controllerID))
}

func (r *InstanceRepository) ListByWorkerGroup(ctx context.Context, workerGroupID string) ([]*model.Instance, error) {
	return r.find(r.db.WithContext(ctx).Where("worker_group_id = ?", workerGroupID))
}

func (r *InstanceRepository) find(q *gorm.DB) ([]*model.Instance, error) {
	var recs []InstanceRecord
	if err := q.Order("created_at ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*model.Instance, 0, len(recs))
	for i := range recs {
		out = append(out, instanceToModel(&recs[i]))
	}
	return out, nil
}

func (r *InstanceRepository) Update(ctx context.Context, i *model.Instance) error {
	if err := i.Validate(); err != nil {
		return err
	}
	rec := instanceToRecord(i)
	res := r.db.WithContext(ctx).Model(&InstanceRecord{}).Where("id = ?", rec.ID).Select("*").Omit("created_at").Updates(rec)
	if res.Error != nil {
		return translate(res.Error, model.ErrInstanceNotFound)
	}
	if res.RowsAffected == 0 {
		return model.ErrInstanceNotFound
	}
	return nil
}

func (r *InstanceRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&InstanceRecord{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrInstanceNotFound
	}
	return nil
}

var _ domain.InstanceRepository = (*InstanceRepository)(nil)
