package rdb

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/yaegashi/clusterops/domain"
	"github.com/yaegashi/clusterops/domain/model"
	"gorm.io/gorm"
)

// ProviderRepository is a GORM-backed implementation of domain.ProviderRepository.
type ProviderRepository struct{ db *gorm.DB }

func NewProviderRepository(db *gorm.DB) *ProviderRepository { return &ProviderRepository{db: db} }

func providerToRecord(p *model.Provider) *ProviderRecord {
	return &ProviderRecord{ID: p.ID, Name: p.Name, Driver: p.Driver, Settings: encodeSettings(p.Settings), CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt}
}
func providerToModel(r *ProviderRecord) *model.Provider {
	return &model.Provider{ID: r.ID, Name: r.Name, Driver: r.Driver, Settings: decodeSettings(r.Settings), CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

func (r *ProviderRepository) Create(ctx context.Context, p *model.Provider) error {
	rec := providerToRecord(p)
	if rec.ID == "" {
		rec.ID = "prov-" + uuid.NewString()
		p.ID = rec.ID
	}
	return translate(r.db.WithContext(ctx).Create(rec).Error, model.ErrProviderNotFound)
}

func (r *ProviderRepository) Get(ctx context.Context, id string) (*model.Provider, error) {
	var rec ProviderRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, translate(err, model.ErrProviderNotFound)
	}
	return providerToModel(&rec), nil
}

func (r *ProviderRepository) GetByName(ctx context.Context, name string) (*model.Provider, error) {
	var rec ProviderRecord
	if err := r.db.WithContext(ctx).First(&rec, "name = ?", name).Error; err != nil {
		return nil, translate(err, model.ErrProviderNotFound)
	}
	return providerToModel(&rec), nil
}

func (r *ProviderRepository) List(ctx context.Context) ([]*model.Provider, error) {
	var recs []ProviderRecord
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*model.Provider, 0, len(recs))
	for i := range recs {
		out = append(out, providerToModel(&recs[i]))
	}
	return out, nil
}

func (r *ProviderRepository) Update(ctx context.Context, p *model.Provider) error {
	rec := providerToRecord(p)
	// Select("*") writes zero values too, so cleared settings are persisted.
	res := r.db.WithContext(ctx).Model(&ProviderRecord{}).Where("id = ?", rec.ID).Select("*").Omit("created_at").Updates(rec)
	if res.Error != nil {
		return translate(res.Error, model.ErrProviderNotFound)
	}
	if res.RowsAffected == 0 {
		return model.ErrProviderNotFound
	}
	return nil
}

func (r *ProviderRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&ProviderRecord{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrProviderNotFound
	}
	return nil
}

// translate maps GORM sentinel errors onto domain errors.
func translate(err, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return model.ErrAlreadyExists
	default:
		return err
	}
}

var _ domain.ProviderRepository = (*ProviderRepository)(nil)
