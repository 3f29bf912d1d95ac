package catalog

import (
	"context"
	"errors"
	"strings"

	"go-adega-pos/internal/models"

	"gorm.io/gorm"
)

var errSupplierName = invalid(errors.New("supplier name is required"))

func (r *Repository) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	var out []models.Supplier
	err := r.db.WithContext(ctx).Order("name").Find(&out).Error
	return out, err
}

func (r *Repository) CreateSupplier(ctx context.Context, s *models.Supplier) error {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return errSupplierName
	}
	return duplicate(r.db.WithContext(ctx).Create(s).Error)
}

func (r *Repository) UpdateSupplier(ctx context.Context, id uint, s *models.Supplier) (*models.Supplier, error) {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return nil, errSupplierName
	}
	var out models.Supplier
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, notFound(err, ErrSupplierNotFound)
	}
	out.Name, out.Document, out.Phone, out.Email = s.Name, s.Document, s.Phone, s.Email
	err := r.db.WithContext(ctx).Model(&out).
		Select("name", "document", "phone", "email").
		Updates(&out).Error
	if err != nil {
		return nil, duplicate(err)
	}
	return &out, nil
}

// DeleteSupplier removes a supplier and detaches its products. The FK is
// declared ON DELETE SET NULL, but SQLite only honours it with foreign_keys
// enabled, so the detach is done explicitly.
func (r *Repository) DeleteSupplier(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Product{}).
			Where("supplier_id = ?", id).
			Update("supplier_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Supplier{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSupplierNotFound
		}
		return nil
	})
}
