// Package identities provides row-level persistence for identity profiles.
package identities

import (
	"context"

	"github.com/ojudge/identity/internal/server/models"
)

// By selects the unique key used for a single-identity lookup.
type By string

const (
	ByID       By = "id"
	ByUsername By = "username"
	ByEmail    By = "email"
)

// OrderField is a sortable column for list/search queries. Only fields on
// the public projection are sortable.
type OrderField string

const (
	OrderByID        OrderField = "id"
	OrderByUsername  OrderField = "username"
	OrderByEmail     OrderField = "email"
	OrderByNickname  OrderField = "nickname"
	OrderByPrivilege OrderField = "privilege"
	OrderByCreatedAt OrderField = "created_at"
)

// Direction is the sort direction for list/search queries.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

type Repository interface {
	Create(ctx context.Context, identity *models.Identity) (*models.Identity, error)
	Update(ctx context.Context, identity *models.Identity) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, key string, by By) (*models.Identity, error)
	List(ctx context.Context, orderBy OrderField, order Direction, limit, offset int) ([]models.Identity, error)
	Search(ctx context.Context, keyword string, orderBy OrderField, order Direction, limit, offset int) ([]models.Identity, error)
}
