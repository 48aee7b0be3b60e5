package approval

import (
	"errors"
	"fmt"

	"github.com/safar/store-admin/internal/database"
)

var (
	ErrOrderNotFound          = database.ErrOrderNotFound
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrStatusWriteFailed      = errors.New("status write failed")
	ErrStockAdjustmentFailed  = errors.New("stock adjustment failed")
	ErrApprovalRolledBack     = errors.New("approval rolled back")
)

// ItemError reports a line item whose stock could not be adjusted.
type ItemError struct {
	ProductID string
	Quantity  int
	Err       error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("product %s (quantity %d): %v", e.ProductID, e.Quantity, e.Err)
}

func (e ItemError) Unwrap() error {
	return e.Err
}
