package usecase

import (
	"context"

	"github.com/gaze-network/uint128"
	"github.com/ramaorbit/orbit-engine/modules/orbit/datagateway"
	"github.com/ramaorbit/orbit-engine/modules/orbit/internal/entity"
)

// Engine is the write side of the distribution processor.
type Engine interface {
	RegisterUser(ctx context.Context, address string, sponsorRef string) (*entity.User, error)
	Distribute(ctx context.Context, payerID int64, paymentUSD int64, paymentRAMA uint128.Uint128) (*entity.DistributionReceipt, error)
}

type Usecase struct {
	orbitDg datagateway.OrbitDataGateway
	engine  Engine
}

func New(orbitDg datagateway.OrbitDataGateway, engine Engine) *Usecase {
	return &Usecase{
		orbitDg: orbitDg,
		engine:  engine,
	}
}
