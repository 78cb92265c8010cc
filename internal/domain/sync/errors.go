package sync

import "github.com/pharmacy/backend/internal/domain/shared"

// Domain errors for the sync subsystem
var (
	ErrConflictNotFound    = shared.NewDomainError("NOT_FOUND", "Sync conflict not found")
	ErrUnsupportedStrategy = shared.NewDomainError("INVALID_INPUT", "Unsupported resolution strategy")
	ErrManualDataRequired  = shared.NewDomainError("INVALID_INPUT", "Manual resolution requires a resolved payload")
)
