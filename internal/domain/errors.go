package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrInsufficientStock = errors.New("insufficient stock")

// InsufficientStockError reports the first line whose quantity exceeds stock
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
