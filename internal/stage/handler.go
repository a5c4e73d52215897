package stage

import (
	"context"

	"rentprep/internal/store"
)

// Handler describes the contract the pipeline needs from each stage.
type Handler interface {
	Prepare(context.Context, *store.Listing) error
	Execute(context.Context, *store.Listing) error
	HealthCheck(context.Context) Health
}
