package orbit

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/gofiber/fiber/v2"
	"github.com/ramaorbit/orbit-engine/common/errs"
	"github.com/ramaorbit/orbit-engine/core/scheduler"
	"github.com/ramaorbit/orbit-engine/internal/config"
	"github.com/ramaorbit/orbit-engine/internal/postgres"
	orbitapi "github.com/ramaorbit/orbit-engine/modules/orbit/api"
	orbitdatagateway "github.com/ramaorbit/orbit-engine/modules/orbit/datagateway"
	"github.com/ramaorbit/orbit-engine/modules/orbit/internal/entity"
	orbitmemory "github.com/ramaorbit/orbit-engine/modules/orbit/repository/memory"
	orbitpostgres "github.com/ramaorbit/orbit-engine/modules/orbit/repository/postgres"
	orbitusecase "github.com/ramaorbit/orbit-engine/modules/orbit/usecase"
	"github.com/ramaorbit/orbit-engine/pkg/logger"
	"github.com/ramaorbit/orbit-engine/pkg/ramacurrency"
	"github.com/samber/do/v2"
	"github.com/samber/lo"
)

// New wires the orbit module: repository, distribution processor, HTTP API
// and the cascade scheduler that executes repurchase payments.
func New(injector do.Injector) (scheduler.Worker, error) {
	ctx := do.MustInvoke[context.Context](injector)
	conf := do.MustInvoke[config.Config](injector)
	moduleConf := conf.Modules.Orbit

	var orbitDg orbitdatagateway.OrbitDataGateway
	var cleanupFuncs []func(context.Context) error
	switch strings.ToLower(moduleConf.Database) {
	case "postgresql", "postgres", "pg":
		pg, err := postgres.NewPool(ctx, moduleConf.Postgres)
		if err != nil {
			if errors.Is(err, errs.InvalidArgument) {
				return nil, errors.Wrap(err, "Invalid Postgres configuration for orbit module")
			}
			return nil, errors.Wrap(err, "can't create Postgres connection pool")
		}
		cleanupFuncs = append(cleanupFuncs, func(ctx context.Context) error {
			pg.Close()
			return nil
		})
		orbitDg = orbitpostgres.NewRepository(pg)
	case "memory":
		orbitDg = orbitmemory.New()
	default:
		return nil, errors.Wrapf(errs.Unsupported, "%q database for orbit module is not supported", moduleConf.Database)
	}

	joinAmountUSD := int64(DefaultJoinAmountUSD)
	if moduleConf.JoinAmountUSD != "" {
		var err error
		joinAmountUSD, err = ramacurrency.USDFromString(moduleConf.JoinAmountUSD)
		if err != nil {
			return nil, errors.Wrap(err, "invalid join_amount_usd")
		}
	}
	joinAmountRAMA, err := uint128.FromString(DefaultJoinAmountRAMA)
	if err != nil {
		return nil, errors.Wrap(err, "can't parse default join amount")
	}
	if moduleConf.JoinAmountRAMA != "" {
		joinAmountRAMA, err = ramacurrency.RAMAFromString(moduleConf.JoinAmountRAMA)
		if err != nil {
			return nil, errors.Wrap(err, "invalid join_amount_rama")
		}
	}

	processor := NewProcessor(orbitDg, joinAmountUSD, joinAmountRAMA, cleanupFuncs)
	if err := processor.VerifyStates(ctx); err != nil {
		return nil, errors.WithStack(err)
	}

	// Mount API
	apiHandlers := lo.Uniq(moduleConf.APIHandlers)
	for _, handler := range apiHandlers {
		switch handler {
		case "http":
			httpServer := do.MustInvoke[*fiber.App](injector)
			orbitUsecase := orbitusecase.New(orbitDg, processor)
			orbitHTTPHandler := orbitapi.NewHTTPHandler(orbitUsecase)
			if err := orbitHTTPHandler.Mount(httpServer); err != nil {
				return nil, errors.Wrap(err, "can't mount orbit API")
			}
			logger.InfoContext(ctx, "Mounted HTTP handler")
		default:
			return nil, errors.Wrapf(errs.Unsupported, "%q API handler is not supported", handler)
		}
	}

	worker := NewCascadeWorker(processor, moduleConf.Cascade.MaxAttempts, moduleConf.Cascade.RetryBackoff)
	return scheduler.New[*entity.CascadePayment](worker, worker,
		scheduler.WithPollInterval[*entity.CascadePayment](moduleConf.Cascade.PollInterval),
		scheduler.WithBatchSize[*entity.CascadePayment](moduleConf.Cascade.BatchSize),
	), nil
}
