// Package store defines the typed access contract over the four marketplace
// collections (tools, reviews, users, purchases) and its Mongo and in-memory
// implementations. Every operation is a single store call; there is no
// cross-collection coordination.
package store

import (
	"context"
	"errors"
)

// ErrInvalidID reports an id that cannot be parsed as an ObjectID.
var ErrInvalidID = errors.New("invalid document id")

// InsertResult mirrors the driver's insert acknowledgement; it is part of
// the wire contract and returned to clients verbatim.
type InsertResult struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

// UpdateResult mirrors the driver's update acknowledgement.
type UpdateResult struct {
	Acknowledged  bool    `json:"acknowledged"`
	MatchedCount  int64   `json:"matchedCount"`
	ModifiedCount int64   `json:"modifiedCount"`
	UpsertedCount int64   `json:"upsertedCount"`
	UpsertedID    *string `json:"upsertedId"`
}

// DeleteResult mirrors the driver's delete acknowledgement.
type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

// Store is the access contract over the marketplace collections. Find-by-id
// operations return (nil, nil) for an absent document so callers can relay
// the miss as a JSON null instead of faulting.
type Store interface {
	InsertTool(ctx context.Context, tool Tool) (InsertResult, error)
	GetTool(ctx context.Context, id string) (*Tool, error)
	ListTools(ctx context.Context) ([]Tool, error)
	ListToolsNewestFirst(ctx context.Context) ([]Tool, error)
	DeleteTool(ctx context.Context, id string) (DeleteResult, error)

	InsertReview(ctx context.Context, review Review) (InsertResult, error)
	ListReviewsNewestFirst(ctx context.Context) ([]Review, error)

	UpsertUserByEmail(ctx context.Context, email string, profile UserProfile) (UpdateResult, error)
	PatchUserByEmail(ctx context.Context, email string, profile UserProfile) (UpdateResult, error)
	MakeUserAdmin(ctx context.Context, id string) (UpdateResult, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)

	InsertPurchase(ctx context.Context, purchase Purchase) (InsertResult, error)
	GetPurchase(ctx context.Context, id string) (*Purchase, error)
	ListPurchases(ctx context.Context) ([]Purchase, error)
	ListPurchasesByEmail(ctx context.Context, email string) ([]Purchase, error)
	UpdatePurchase(ctx context.Context, id string, patch PurchasePatch) (UpdateResult, error)
	DeletePurchase(ctx context.Context, id string) (DeleteResult, error)
}
