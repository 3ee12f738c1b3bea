package postgres

import (
	"github.com/jackc/pgx/v5"
	"github.com/ramaorbit/orbit-engine/internal/postgres"
	"github.com/ramaorbit/orbit-engine/modules/orbit/datagateway"
)

type Repository struct {
	db postgres.DB
	q  postgres.Queryable
	tx pgx.Tx
}

func NewRepository(db postgres.DB) *Repository {
	return &Repository{
		db: db,
		q:  db,
	}
}

var _ datagateway.OrbitDataGatewayWithTx = (*Repository)(nil)
