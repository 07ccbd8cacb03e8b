// Package repository loads league history into typed records.
package repository

import (
	"context"

	"github.com/okian/playoffs/internal/domain/model"
)

// Store provides the historical record set.
type Store interface {
	// Records returns every record in source order.
	Records(ctx context.Context) ([]model.Record, error)
}
