package correction

import "context"

type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (Response, error)
	Review(ctx context.Context, req ReviewRequest) (ReviewResponse, error)
	Get(ctx context.Context, id string) (Response, error)
	ListMine(ctx context.Context, filter ListFilter) (ListResponse, error)
	ListPending(ctx context.Context, filter ListFilter) (ListResponse, error)
}
