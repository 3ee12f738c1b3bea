package datagateway

import (
	"context"
	"time"

	"github.com/ramaorbit/orbit-engine/modules/orbit/internal/entity"
)

type OrbitDataGateway interface {
	OrbitReaderDataGateway
	OrbitWriterDataGateway

	// BeginOrbitTx returns a new OrbitDataGateway with transaction enabled. All write operations performed in this datagateway must be committed to persist changes.
	BeginOrbitTx(ctx context.Context) (OrbitDataGatewayWithTx, error)
}

type OrbitDataGatewayWithTx interface {
	OrbitDataGateway
	Tx
}

type OrbitReaderDataGateway interface {
	// GetUserByID returns the user with the given id. Returns errs.NotFound if the user does not exist.
	GetUserByID(ctx context.Context, userID int64) (*entity.User, error)
	// GetUserByAddress returns the user with the given wallet address. Returns errs.NotFound if the user does not exist.
	GetUserByAddress(ctx context.Context, address string) (*entity.User, error)
	// GetSponsorChain returns the user's ancestors in sponsor order, index 0
	// being the direct sponsor (level 1). Walks at most maxLevels ancestors;
	// the chain is shorter when the root user is reached earlier.
	GetSponsorChain(ctx context.Context, userID int64, maxLevels int) ([]*entity.User, error)

	// GetOrbitsByUserID returns all orbits of the user with slots and parts, ordered by orbit id.
	GetOrbitsByUserID(ctx context.Context, userID int64) ([]*entity.Orbit, error)
	// GetActiveOrbit returns the user's single orbit with CompletedX < 10,
	// including its slots and parts. Returns errs.NotFound if none exists.
	GetActiveOrbit(ctx context.Context, userID int64) (*entity.Orbit, error)

	// GetTeamAtLevel returns users positioned exactly level steps below the user in the sponsor tree.
	GetTeamAtLevel(ctx context.Context, userID int64, level int32) ([]*entity.TeamMember, error)
	// GetIncomeRecords returns income records for the user, most recent first.
	// orbitID filters to a single orbit when non-nil.
	GetIncomeRecords(ctx context.Context, userID int64, orbitID *int64, limit int32, offset int32) ([]*entity.OrbitIncomeRecord, error)
	// GetLevelIncomes returns the user's aggregate income per level, levels 1..9.
	GetLevelIncomes(ctx context.Context, userID int64) ([]*entity.LevelIncome, error)

	// GetContractState returns the singleton aggregate state.
	GetContractState(ctx context.Context) (*entity.ContractState, error)

	// GetCascadePayment returns the cascade payment with the given id. Returns errs.NotFound if it does not exist.
	GetCascadePayment(ctx context.Context, id int64) (*entity.CascadePayment, error)
	// GetDueCascadePayments returns pending cascade payments whose next
	// attempt time is at or before now, oldest first.
	GetDueCascadePayments(ctx context.Context, now time.Time, limit int) ([]*entity.CascadePayment, error)
}

type AppendEarningPartParams struct {
	UserID    int64
	OrbitID   int64
	SlotIndex int32
	Part      entity.EarningPart
}

type OrbitWriterDataGateway interface {
	CreateUser(ctx context.Context, user *entity.User) error
	// UpdateUser persists the user's mutable aggregate fields
	// (earnings, repurchase count, current orbit progress, orbit count).
	UpdateUser(ctx context.Context, user *entity.User) error
	// LockUsers acquires write locks on the given users for the duration of
	// the current transaction. Callers must pass the full set of users the
	// transaction will touch so overlapping distributions serialize.
	LockUsers(ctx context.Context, userIDs []int64) error

	// LockContractState acquires a write lock on the contract state singleton
	// for the duration of the current transaction. Transactions that read the
	// state to write it back must lock first: the aggregates are absolute
	// values, so a stale read loses concurrent increments.
	LockContractState(ctx context.Context) error

	CreateOrbit(ctx context.Context, orbit *entity.Orbit) error
	// UpdateOrbitProgress sets the orbit's completed slot count.
	UpdateOrbitProgress(ctx context.Context, userID int64, orbitID int64, completedX int32) error
	// AppendEarningParts appends parts to their slots, creating slot records
	// as needed and adding each part's USD value to its slot total.
	AppendEarningParts(ctx context.Context, params []AppendEarningPartParams) error

	CreateIncomeRecords(ctx context.Context, records []*entity.OrbitIncomeRecord) error

	UpdateContractState(ctx context.Context, state *entity.ContractState) error

	// CreateCascadePayment persists a pending cascade payment and returns its id.
	CreateCascadePayment(ctx context.Context, payment *entity.CascadePayment) (int64, error)
	UpdateCascadePayment(ctx context.Context, payment *entity.CascadePayment) error
}
