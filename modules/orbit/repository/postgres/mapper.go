package postgres

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/ramaorbit/orbit-engine/modules/orbit/internal/entity"
)

func uint128FromNumeric(src pgtype.Numeric) (uint128.Uint128, error) {
	if !src.Valid {
		return uint128.Zero, nil
	}
	bytes, err := src.MarshalJSON()
	if err != nil {
		return uint128.Zero, errors.WithStack(err)
	}
	result, err := uint128.FromString(string(bytes))
	if err != nil {
		return uint128.Zero, errors.WithStack(err)
	}
	return result, nil
}

func numericFromUint128(src uint128.Uint128) (pgtype.Numeric, error) {
	bytes := []byte(src.String())
	var result pgtype.Numeric
	err := result.UnmarshalJSON(bytes)
	if err != nil {
		return pgtype.Numeric{}, errors.WithStack(err)
	}
	return result, nil
}

type userModel struct {
	UserID            int64
	Address           string
	SponsorID         int64
	SponsorAddress    string
	RegistrationTime  pgtype.Timestamptz
	TotalEarningsUSD  int64
	TotalEarningsRAMA pgtype.Numeric
	RepurchaseCount   int64
	CurrentOrbitX     int32
	OrbitCount        int64
}

func mapUserModelToType(src userModel) (*entity.User, error) {
	totalEarningsRAMA, err := uint128FromNumeric(src.TotalEarningsRAMA)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse total earnings")
	}
	var registrationTime time.Time
	if src.RegistrationTime.Valid {
		registrationTime = src.RegistrationTime.Time.UTC()
	}
	return &entity.User{
		UserID:            src.UserID,
		Address:           src.Address,
		SponsorID:         src.SponsorID,
		SponsorAddress:    src.SponsorAddress,
		RegistrationTime:  registrationTime,
		TotalEarningsUSD:  src.TotalEarningsUSD,
		TotalEarningsRAMA: totalEarningsRAMA,
		RepurchaseCount:   src.RepurchaseCount,
		CurrentOrbitX:     src.CurrentOrbitX,
		OrbitCount:        src.OrbitCount,
	}, nil
}

type earningPartModel struct {
	UserID      int64
	OrbitID     int64
	SlotIndex   int32
	USDValue    int64
	RAMAAmount  pgtype.Numeric
	FromAddress string
	DonorID     int64
	Level       int32
}

func mapEarningPartModelToType(src earningPartModel) (entity.EarningPart, error) {
	ramaAmount, err := uint128FromNumeric(src.RAMAAmount)
	if err != nil {
		return entity.EarningPart{}, errors.Wrap(err, "failed to parse part amount")
	}
	return entity.EarningPart{
		USDValue:   src.USDValue,
		RAMAAmount: ramaAmount,
		From:       src.FromAddress,
		DonorID:    src.DonorID,
		Level:      src.Level,
	}, nil
}

type incomeRecordModel struct {
	UserID    int64
	OrbitID   int64
	Coin      string
	Amount    pgtype.Numeric
	USD       int64
	Timestamp pgtype.Timestamptz
	DonorID   int64
	Level     int32
}

func mapIncomeRecordModelToType(src incomeRecordModel) (*entity.OrbitIncomeRecord, error) {
	amount, err := uint128FromNumeric(src.Amount)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse record amount")
	}
	var timestamp time.Time
	if src.Timestamp.Valid {
		timestamp = src.Timestamp.Time.UTC()
	}
	return &entity.OrbitIncomeRecord{
		UserID:    src.UserID,
		OrbitID:   src.OrbitID,
		Coin:      src.Coin,
		Amount:    amount,
		USD:       src.USD,
		Timestamp: timestamp,
		DonorID:   src.DonorID,
		Level:     src.Level,
	}, nil
}

type contractStateModel struct {
	TotalUsers       int64
	TotalRepurchases int64
	TotalVolumeUSD   int64
	JoinAmountUSD    int64
	JoinAmountRAMA   pgtype.Numeric
	TreasuryUSD      int64
	TreasuryRAMA     pgtype.Numeric
}

func mapContractStateModelToType(src contractStateModel) (*entity.ContractState, error) {
	joinAmountRAMA, err := uint128FromNumeric(src.JoinAmountRAMA)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse join amount")
	}
	treasuryRAMA, err := uint128FromNumeric(src.TreasuryRAMA)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse treasury amount")
	}
	return &entity.ContractState{
		TotalUsers:       src.TotalUsers,
		TotalRepurchases: src.TotalRepurchases,
		TotalVolumeUSD:   src.TotalVolumeUSD,
		JoinAmountUSD:    src.JoinAmountUSD,
		JoinAmountRAMA:   joinAmountRAMA,
		TreasuryUSD:      src.TreasuryUSD,
		TreasuryRAMA:     treasuryRAMA,
	}, nil
}

type cascadePaymentModel struct {
	ID            int64
	PayerID       int64
	TriggerOrbit  int64
	PaymentUSD    int64
	PaymentRAMA   pgtype.Numeric
	Status        string
	Attempts      int32
	LastError     string
	CreatedAt     pgtype.Timestamptz
	NextAttemptAt pgtype.Timestamptz
	CompletedAt   pgtype.Timestamptz
}

func mapCascadePaymentModelToType(src cascadePaymentModel) (*entity.CascadePayment, error) {
	paymentRAMA, err := uint128FromNumeric(src.PaymentRAMA)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse payment amount")
	}
	payment := &entity.CascadePayment{
		ID:           src.ID,
		PayerID:      src.PayerID,
		TriggerOrbit: src.TriggerOrbit,
		PaymentUSD:   src.PaymentUSD,
		PaymentRAMA:  paymentRAMA,
		Status:       entity.CascadeStatus(src.Status),
		Attempts:     src.Attempts,
		LastError:    src.LastError,
	}
	if src.CreatedAt.Valid {
		payment.CreatedAt = src.CreatedAt.Time.UTC()
	}
	if src.NextAttemptAt.Valid {
		payment.NextAttemptAt = src.NextAttemptAt.Time.UTC()
	}
	if src.CompletedAt.Valid {
		completedAt := src.CompletedAt.Time.UTC()
		payment.CompletedAt = &completedAt
	}
	return payment, nil
}
