package stage

import (
	"context"

	"locaudit/internal/audit"
)

// Handler describes the contract the workflow manager needs from each stage.
type Handler interface {
	Prepare(context.Context, *audit.Audit) error
	Execute(context.Context, *audit.Audit) error
	HealthCheck(context.Context) Health
}
