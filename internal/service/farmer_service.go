package service

import (
	"go-farm-ledger/internal/model"
	"go-farm-ledger/internal/repository"

	"github.com/google/uuid"
)

type FarmerService interface {
	CreateFarmer(req *model.Farmer, actor Actor) error
	UpdateFarmer(id uuid.UUID, req *model.Farmer, actor Actor) (*model.Farmer, error)
	DeleteFarmer(id uuid.UUID, actor Actor) error
	GetFarmers(search string) ([]model.Farmer, error)
	GetFarmer(id uuid.UUID) (*model.Farmer, error)
	GetFarmerSummary(id uuid.UUID) (*FarmerSummaryResponse, error)
}

// FarmerSummaryResponse is a farmer together with their purchase totals
type FarmerSummaryResponse struct {
	Farmer    *model.Farmer             `json:"farmer"`
	Summary   *repository.FarmerSummary `json:"summary"`
	Purchases []model.Purchase          `json:"purchases"`
}

type farmerService struct {
	farmerRepo   repository.FarmerRepository
	purchaseRepo repository.PurchaseRepository
}

func NewFarmerService(fRepo repository.FarmerRepository, pRepo repository.PurchaseRepository) FarmerService {
	return &farmerService{farmerRepo: fRepo, purchaseRepo: pRepo}
}

func (s *farmerService) CreateFarmer(req *model.Farmer, actor Actor) error {
	if err := validate(req); err != nil {
		return err
	}
	req.ID = uuid.Nil
	req.CreatedBy = actor.ID
	req.UpdatedBy = actor.ID
	return s.farmerRepo.Create(req)
}

func (s *farmerService) UpdateFarmer(id uuid.UUID, req *model.Farmer, actor Actor) (*model.Farmer, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	existing, err := s.farmerRepo.FindByID(id)
	if err != nil {
		return nil, notFound(err, "farmer")
	}

	existing.Name = req.Name
	existing.Contact = req.Contact
	existing.Location = req.Location
	existing.FarmSize = req.FarmSize
	existing.ProduceTypes = req.ProduceTypes
	existing.UpdatedBy = actor.ID

	if err := s.farmerRepo.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *farmerService) DeleteFarmer(id uuid.UUID, actor Actor) error {
	return notFound(s.farmerRepo.Delete(id, actor.ID), "farmer")
}

func (s *farmerService) GetFarmers(search string) ([]model.Farmer, error) {
	return s.farmerRepo.FindAll(search)
}

func (s *farmerService) GetFarmer(id uuid.UUID) (*model.Farmer, error) {
	farmer, err := s.farmerRepo.FindByID(id)
	if err != nil {
		return nil, notFound(err, "farmer")
	}
	return farmer, nil
}

func (s *farmerService) GetFarmerSummary(id uuid.UUID) (*FarmerSummaryResponse, error) {
	farmer, err := s.GetFarmer(id)
	if err != nil {
		return nil, err
	}
	summary, err := s.purchaseRepo.GetFarmerSummary(id)
	if err != nil {
		return nil, err
	}
	purchases, err := s.purchaseRepo.FindAll(repository.PurchaseFilter{FarmerID: &id})
	if err != nil {
		return nil, err
	}
	return &FarmerSummaryResponse{Farmer: farmer, Summary: summary, Purchases: purchases}, nil
}
