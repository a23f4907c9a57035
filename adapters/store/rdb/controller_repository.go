package rdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/yaegashi/clusterops/domain"
	"github.com/yaegashi/clusterops/domain/model"
	"gorm.io/gorm"
)

// ControllerRepository is a GORM-backed implementation of domain.ControllerRepository.
type ControllerRepository struct{ db *gorm.DB }

func NewControllerRepository(db *gorm.DB) *ControllerRepository {
	return &ControllerRepository{db: db}
}

func controllerToRecord(c *model.Controller) *ControllerRecord {
	return &ControllerRecord{ID: c.ID, Name: c.Name, ProviderID: c.ProviderID, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}
func controllerToModel(r *ControllerRecord) *model.Controller {
	return &model.Controller{ID: r.ID, Name: r.Name, ProviderID: r.ProviderID, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

func (r *ControllerRepository) Create(ctx context.Context, c *model.Controller) error {
	rec := controllerToRecord(c)
	if rec.ID == "" {
		rec.ID = "ctrl-" + uuid.NewString()
		c.ID = rec.ID
	}
	return translate(r.db.WithContext(ctx).Create(rec).Error, model.ErrControllerNotFound)
}

func (r *ControllerRepository) Get(ctx context.Context, id string) (*model.Controller, error) {
	var rec ControllerRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, translate(err, model.ErrControllerNotFound)
	}
	return controllerToModel(&rec), nil
}

func (r *ControllerRepository) GetByName(ctx context.Context, name string) (*model.Controller, error) {
	var rec ControllerRecord
	if err := r.db.WithContext(ctx).First(&rec, "name = ?", name).Error; err != nil {
		return nil, translate(err, model.ErrControllerNotFound)
	}
	return controllerToModel(&rec), nil
}

func (r *ControllerRepository) List(ctx context.Context) ([]*model.Controller, error) {
	var recs []ControllerRecord
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*model.Controller, 0, len(recs))
	for i := range recs {
		out = append(out, controllerToModel(&recs[i]))
	}
	return out, nil
}

func (r *ControllerRepository) Update(ctx context.Context, c *model.Controller) error {
	rec := controllerToRecord(c)
	res := r.db.WithContext(ctx).Model(&ControllerRecord{}).Where("id = ?", rec.ID).Select("*").Omit("created_at").Updates(rec)
	if res.Error != nil {
		return translate(res.Error, model.ErrControllerNotFound)
	}
	if res.RowsAffected == 0 {
		return model.ErrControllerNotFound
	}
	return nil
}

func (r *ControllerRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&ControllerRecord{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrControllerNotFound
	}
	return nil
}

var _ domain.ControllerRepository = (*ControllerRepository)(nil)
