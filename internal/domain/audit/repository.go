package audit

import "context"

type Repository interface {
	Create(ctx context.Context, log Log) error
	List(ctx context.Context, filter ListFilter, companyID string) ([]Log, int64, error)
}
