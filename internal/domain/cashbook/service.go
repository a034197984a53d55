package cashbook

import "context"

type Service interface {
	CreateEntry(ctx context.Context, req CreateEntryRequest) (EntryResponse, error)
	EditEntry(ctx context.Context, req EditEntryRequest) (EntryResponse, error)
	DeleteEntry(ctx context.Context, id string) error
	ReverseEntry(ctx context.Context, id string) (EntryResponse, error)
	GetEntry(ctx context.Context, id string) (EntryResponse, error)
	ListEntries(ctx context.Context, filter ListFilter) (ListResponse, error)
	GetBalance(ctx context.Context, req BalanceRequest) (Balance, error)
}
