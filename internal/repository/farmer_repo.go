package repository

import (
	"strings"

	"go-farm-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FarmerRepository interface {
	Create(farmer *model.Farmer) error
	FindAll(search string) ([]model.Farmer, error)
	FindByID(id uuid.UUID) (*model.Farmer, error)
	Update(farmer *model.Farmer) error
	Delete(id uuid.UUID, deletedBy string) error
}

type farmerRepo struct {
	db *gorm.DB
}

func NewFarmerRepo(db *gorm.DB) FarmerRepository {
	return &farmerRepo{db}
}

func (r *farmerRepo) Create(farmer *model.Farmer) error {
	return r.db.Create(farmer).Error
}

// FindAll matches search against name, location and produce types
func (r *farmerRepo) FindAll(search string) ([]model.Farmer, error) {
	var farmers []model.Farmer
	q := r.db.Order("name ASC")
	if s := strings.TrimSpace(search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(location) LIKE ? OR LOWER(produce_types) LIKE ?", like, like, like)
	}
	err := q.Find(&farmers).Error
	return farmers, err
}

func (r *farmerRepo) FindByID(id uuid.UUID) (*model.Farmer, error) {
	var farmer model.Farmer
	if err := r.db.First(&farmer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &farmer, nil
}

func (r *farmerRepo) Update(farmer *model.Farmer) error {
	return r.db.Save(farmer).Error
}

// Delete is a soft delete; purchases keep pointing at the row
func (r *farmerRepo) Delete(id uuid.UUID, deletedBy string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Farmer{}).Where("id = ?", id).Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Farmer{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
