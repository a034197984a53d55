package audit

import "context"

// Recorder accepts audit records without blocking the caller. Failures are
// logged by the implementation and never returned.
type Recorder interface {
	Record(ctx context.Context, log Log)
}

type Service interface {
	Recorder
	List(ctx context.Context, filter ListFilter) (ListResponse, error)
}
