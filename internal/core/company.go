package core

import (
	"context"
	"fmt"

	"github.com/sales440/ivy-ai-platform/internal/model"
)

type CompanyService struct {
	db DB
}

func NewCompanyService(db DB) *CompanyService {
	return &CompanyService{db: db}
}

// List returns all companies, oldest first.
func (s *CompanyService) List(ctx context.Context) ([]model.Company, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, description, industry, created_at, updated_at
		 FROM companies ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		var c model.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Industry, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// GetByID returns one company.
func (s *CompanyService) GetByID(ctx context.Context, id string) (*model.Company, error) {
	var c model.Company
	err := s.db.QueryRow(ctx,
		`SELECT id, name, description, industry, created_at, updated_at
		 FROM companies WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.Industry, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &c, nil
}
