package application

import (
	"context"

	"erp-assistant/internal/domain"
)

// ProductService is the ERP backend surface the assistant needs.
// GenerateReference must be called, and must succeed, before
// CreateProduct; the assistant upholds that ordering.
//
// An implementation with no credential available returns zero values
// and a nil error (the call is skipped, not failed).
type ProductService interface {
	GenerateReference(ctx context.Context, name string) (string, error)
	CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
}
