package postgres

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/ramaorbit/orbit-engine/common/errs"
	"github.com/ramaorbit/orbit-engine/modules/orbit/datagateway"
	"github.com/ramaorbit/orbit-engine/modules/orbit/internal/entity"
)

const userColumns = `user_id, address, sponsor_id, sponsor_address, registration_time, total_earnings_usd, total_earnings_rama, repurchase_count, current_orbit_x, orbit_count`

func scanUser(row pgx.Row) (*entity.User, error) {
	var model userModel
	if err := row.Scan(
		&model.UserID,
		&model.Address,
		&model.SponsorID,
		&model.SponsorAddress,
		&model.RegistrationTime,
		&model.TotalEarningsUSD,
		&model.TotalEarningsRAMA,
		&model.RepurchaseCount,
		&model.CurrentOrbitX,
		&model.OrbitCount,
	); err != nil {
		return nil, err
	}
	return mapUserModelToType(model)
}

func (r *Repository) GetUserByID(ctx context.Context, userID int64) (*entity.User, error) {
	row := r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM orbit_users WHERE user_id = $1`, userID)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.WithStack(errs.NotFound)
		}
		return nil, errors.Wrap(err, "error during query")
	}
	return user, nil
}

func (r *Repository) GetUserByAddress(ctx context.Context, address string) (*entity.User, error) {
	row := r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM orbit_users WHERE address = $1`, address)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.WithStack(errs.NotFound)
		}
		return nil, errors.Wrap(err, "error during query")
	}
	return user, nil
}

func (r *Repository) GetSponsorChain(ctx context.Context, userID int64, maxLevels int) ([]*entity.User, error) {
	rows, err := r.q.Query(ctx, `
		WITH RECURSIVE chain AS (
			SELECT u.*, 1 AS depth
			FROM orbit_users u
			JOIN orbit_users child ON child.sponsor_id = u.user_id
			WHERE child.user_id = $1 AND child.sponsor_id <> 0
			UNION ALL
			SELECT u.*, c.depth + 1
			FROM orbit_users u
			JOIN chain c ON c.sponsor_id = u.user_id
			WHERE c.sponsor_id <> 0 AND c.depth < $2
		)
		SELECT `+userColumns+` FROM chain ORDER BY depth
	`, userID, maxLevels)
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	defer rows.Close()

	chain := make([]*entity.User, 0, maxLevels)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan user row")
		}
		chain = append(chain, user)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error during row iteration")
	}
	if len(chain) == 0 {
		// distinguish the root user (empty chain) from a missing user
		if _, err := r.GetUserByID(ctx, userID); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	return chain, nil
}

func (r *Repository) getOrbitSlots(ctx context.Context, userID int64, orbitID int64) (map[int64][]entity.XSlot, error) {
	var rows pgx.Rows
	var err error
	if orbitID >= 0 {
		rows, err = r.q.Query(ctx, `
			SELECT orbit_id, slot_index, total_usd FROM orbit_x_slots
			WHERE user_id = $1 AND orbit_id = $2
			ORDER BY orbit_id, slot_index
		`, userID, orbitID)
	} else {
		rows, err = r.q.Query(ctx, `
			SELECT orbit_id, slot_index, total_usd FROM orbit_x_slots
			WHERE user_id = $1
			ORDER BY orbit_id, slot_index
		`, userID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	defer rows.Close()

	slots := make(map[int64][]entity.XSlot)
	for rows.Next() {
		var slotOrbitID int64
		var slot entity.XSlot
		if err := rows.Scan(&slotOrbitID, &slot.SlotIndex, &slot.TotalUSD); err != nil {
			return nil, errors.Wrap(err, "failed to scan slot row")
		}
		slots[slotOrbitID] = append(slots[slotOrbitID], slot)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error during row iteration")
	}
	return slots, nil
}

func (r *Repository) getEarningParts(ctx context.Context, userID int64, orbitID int64) (map[int64]map[int32][]entity.EarningPart, error) {
	var rows pgx.Rows
	var err error
	if orbitID >= 0 {
		rows, err = r.q.Query(ctx, `
			SELECT user_id, orbit_id, slot_index, usd_value, rama_amount, from_address, donor_id, level
			FROM orbit_earning_parts
			WHERE user_id = $1 AND orbit_id = $2
			ORDER BY id
		`, userID, orbitID)
	} else {
		rows, err = r.q.Query(ctx, `
			SELECT user_id, orbit_id, slot_index, usd_value, rama_amount, from_address, donor_id, level
			FROM orbit_earning_parts
			WHERE user_id = $1
			ORDER BY id
		`, userID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	defer rows.Close()

	parts := make(map[int64]map[int32][]entity.EarningPart)
	for rows.Next() {
		var model earningPartModel
		if err := rows.Scan(
			&model.UserID,
			&model.OrbitID,
			&model.SlotIndex,
			&model.USDValue,
			&model.RAMAAmount,
			&model.FromAddress,
			&model.DonorID,
			&model.Level,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan part row")
		}
		part, err := mapEarningPartModelToType(model)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse part model")
		}
		if parts[model.OrbitID] == nil {
			parts[model.OrbitID] = make(map[int32][]entity.EarningPart)
		}
		parts[model.OrbitID][model.SlotIndex] = append(parts[model.OrbitID][model.SlotIndex], part)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error during row iteration")
	}
	return parts, nil
}

func (r *Repository) assembleOrbits(ctx context.Context, userID int64, orbitID int64, orbits []*entity.Orbit) ([]*entity.Orbit, error) {
	slots, err := r.getOrbitSlots(ctx, userID, orbitID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get orbit slots")
	}
	parts, err := r.getEarningParts(ctx, userID, orbitID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get earning parts")
	}
	for _, orbit := range orbits {
		orbit.XSlots = slots[orbit.OrbitID]
		for i := range orbit.XSlots {
			orbit.XSlots[i].Parts = parts[orbit.OrbitID][orbit.XSlots[i].SlotIndex]
		}
	}
	return orbits, nil
}

func (r *Repository) GetOrbitsByUserID(ctx context.Context, userID int64) ([]*entity.Orbit, error) {
	rows, err := r.q.Query(ctx, `
		SELECT user_id, orbit_id, completed_x FROM orbit_orbits
		WHERE user_id = $1 ORDER BY orbit_id
	`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	defer rows.Close()

	orbits := make([]*entity.Orbit, 0)
	for rows.Next() {
		var orbit entity.Orbit
		if err := rows.Scan(&orbit.UserID, &orbit.OrbitID, &orbit.CompletedX); err != nil {
			return nil, errors.Wrap(err, "failed to scan orbit row")
		}
		orbits = append(orbits, &orbit)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error during row iteration")
	}
	return r.assembleOrbits(ctx, userID, -1, orbits)
}

func (r *Repository) GetActiveOrbit(ctx context.Context, userID int64) (*entity.Orbit, error) {
	var orbit entity.Orbit
	err := r.q.QueryRow(ctx, `
		SELECT user_id, orbit_id, completed_x FROM orbit_orbits
		WHERE user_id = $1 AND completed_x < 10
		ORDER BY orbit_id LIMIT 1
	`, userID).Scan(&orbit.UserID, &orbit.OrbitID, &orbit.CompletedX)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.WithStack(errs.NotFound)
		}
		return nil, errors.Wrap(err, "error during query")
	}
	orbits, err := r.assembleOrbits(ctx, userID, orbit.OrbitID, []*entity.Orbit{&orbit})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return orbits[0], nil
}

func (r *Repository) GetTeamAtLevel(ctx context.Context, userID int64, level int32) ([]*entity.TeamMember, error) {
	rows, err := r.q.Query(ctx, `
		WITH RECURSIVE team AS (
			SELECT user_id, 0 AS depth FROM orbit_users WHERE user_id = $1
			UNION ALL
			SELECT u.user_id, t.depth + 1
			FROM orbit_users u
			JOIN team t ON u.sponsor_id = t.user_id
			WHERE t.depth < $2
		)
		SELECT u.user_id, u.address, u.total_earnings_usd, u.total_earnings_rama, u.registration_time, u.sponsor_address
		FROM team t
		JOIN orbit_users u ON u.user_id = t.user_id
		WHERE t.depth = $2
		ORDER BY u.user_id
	`, userID, level)
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	defer rows.Close()

	members := make([]*entity.TeamMember, 0)
	for rows.Next() {
		var member entity.TeamMember
		var earningsRAMA pgtype.Numeric
		var registrationTime pgtype.Timestamptz
		if err := rows.Scan(
			&member.UserID,
			&member.Wallet,
			&member.IncomeEarnedUSD,
			&earningsRAMA,
			&registrationTime,
			&member.Sponsor,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan team member row")
		}
		member.IncomeEarnedRAMA, err = uint128FromNumeric(earningsRAMA)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse member earnings")
		}
		if registrationTime.Valid {
			member.RegistrationTime = registrationTime.Time.UTC()
		}
		members = append(members, &member)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error during row iteration")
	}
	if len(members) == 0 {
		if _, err := r.GetUserByID(ctx, userID); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	return members, nil
}

func (r *Repository) GetIncomeRecords(ctx context.Context, userID int64, orbitID *int64, limit int32, offset int32) ([]*entity.OrbitIncomeRecord, error) {
	query := `
		SELECT user_id, orbit_id, coin, amount, usd, timestamp, donor_id, level
		FROM orbit_income_records
		WHERE user_id = $1
	`
	// LIMIT NULL means no limit
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}
	args := []any{userID}
	if orbitID != nil {
		query += ` AND orbit_id = $2 ORDER BY id DESC LIMIT $3 OFFSET $4`
		args = append(args, *orbitID, limitArg, offset)
	} else {
		query += ` ORDER BY id DESC LIMIT $2 OFFSET $3`
		args = append(args, limitArg, offset)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	defer rows.Close()

	records := make([]*entity.OrbitIncomeRecord, 0)
	for rows.Next() {
		var model incomeRecordModel
		if err := rows.Scan(
			&model.UserID,
			&model.OrbitID,
			&model.Coin,
			&model.Amount,
			&model.USD,
			&model.Timestamp,
			&model.DonorID,
			&model.Level,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan income record row")
		}
		record, err := mapIncomeRecordModelToType(model)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse income record model")
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error during row iteration")
	}
	return records, nil
}

func (r *Repository) GetLevelIncomes(ctx context.Context, userID int64) ([]*entity.LevelIncome, error) {
	rows, err := r.q.Query(ctx, `
		SELECT level, COALESCE(SUM(usd), 0), COALESCE(SUM(amount), 0)
		FROM orbit_income_records
		WHERE user_id = $1
		GROUP BY level
		ORDER BY level
	`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	defer rows.Close()

	incomes := make([]*entity.LevelIncome, 0)
	for rows.Next() {
		var income entity.LevelIncome
		var amount pgtype.Numeric
		if err := rows.Scan(&income.Level, &income.USD, &amount); err != nil {
			return nil, errors.Wrap(err, "failed to scan level income row")
		}
		income.RAMAAmount, err = uint128FromNumeric(amount)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse level income amount")
		}
		incomes = append(incomes, &income)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error during row iteration")
	}
	return incomes, nil
}

func (r *Repository) GetContractState(ctx context.Context) (*entity.ContractState, error) {
	var model contractStateModel
	err := r.q.QueryRow(ctx, `
		SELECT total_users, total_repurchases, total_volume_usd, join_amount_usd, join_amount_rama, treasury_usd, treasury_rama
		FROM orbit_contract_state WHERE id
	`).Scan(
		&model.TotalUsers,
		&model.TotalRepurchases,
		&model.TotalVolumeUSD,
		&model.JoinAmountUSD,
		&model.JoinAmountRAMA,
		&model.TreasuryUSD,
		&model.TreasuryRAMA,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.WithStack(errs.NotFound)
		}
		return nil, errors.Wrap(err, "error during query")
	}
	return mapContractStateModelToType(model)
}

const cascadeColumns = `id, payer_id, trigger_orbit, payment_usd, payment_rama, status, attempts, last_error, created_at, next_attempt_at, completed_at`

func scanCascadePayment(row pgx.Row) (*entity.CascadePayment, error) {
	var model cascadePaymentModel
	if err := row.Scan(
		&model.ID,
		&model.PayerID,
		&model.TriggerOrbit,
		&model.PaymentUSD,
		&model.PaymentRAMA,
		&model.Status,
		&model.Attempts,
		&model.LastError,
		&model.CreatedAt,
		&model.NextAttemptAt,
		&model.CompletedAt,
	); err != nil {
		return nil, err
	}
	return mapCascadePaymentModelToType(model)
}

func (r *Repository) GetCascadePayment(ctx context.Context, id int64) (*entity.CascadePayment, error) {
	row := r.q.QueryRow(ctx, `SELECT `+cascadeColumns+` FROM orbit_cascade_payments WHERE id = $1`, id)
	payment, err := scanCascadePayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.WithStack(errs.NotFound)
		}
		return nil, errors.Wrap(err, "error during query")
	}
	return payment, nil
}

func (r *Repository) GetDueCascadePayments(ctx context.Context, now time.Time, limit int) ([]*entity.CascadePayment, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+cascadeColumns+` FROM orbit_cascade_payments
		WHERE status = 'pending' AND next_attempt_at <= $1
		ORDER BY id LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	defer rows.Close()

	payments := make([]*entity.CascadePayment, 0)
	for rows.Next() {
		payment, err := scanCascadePayment(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan cascade payment row")
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error during row iteration")
	}
	return payments, nil
}

// --- writes ----------------------------------------------------------------

func (r *Repository) CreateUser(ctx context.Context, user *entity.User) error {
	totalEarningsRAMA, err := numericFromUint128(user.TotalEarningsRAMA)
	if err != nil {
		return errors.Wrap(err, "failed to convert total earnings")
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO orbit_users (user_id, address, sponsor_id, sponsor_address, registration_time, total_earnings_usd, total_earnings_rama, repurchase_count, current_orbit_x, orbit_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		user.UserID,
		user.Address,
		user.SponsorID,
		user.SponsorAddress,
		user.RegistrationTime,
		user.TotalEarningsUSD,
		totalEarningsRAMA,
		user.RepurchaseCount,
		user.CurrentOrbitX,
		user.OrbitCount,
	)
	if err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

func (r *Repository) UpdateUser(ctx context.Context, user *entity.User) error {
	totalEarningsRAMA, err := numericFromUint128(user.TotalEarningsRAMA)
	if err != nil {
		return errors.Wrap(err, "failed to convert total earnings")
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE orbit_users
		SET total_earnings_usd = $2, total_earnings_rama = $3, repurchase_count = $4, current_orbit_x = $5, orbit_count = $6
		WHERE user_id = $1
	`,
		user.UserID,
		user.TotalEarningsUSD,
		totalEarningsRAMA,
		user.RepurchaseCount,
		user.CurrentOrbitX,
		user.OrbitCount,
	)
	if err != nil {
		return errors.Wrap(err, "error during exec")
	}
	if tag.RowsAffected() == 0 {
		return errors.WithStack(errs.NotFound)
	}
	return nil
}

func (r *Repository) LockUsers(ctx context.Context, userIDs []int64) error {
	// ordered row locks so overlapping distributions cannot deadlock
	rows, err := r.q.Query(ctx, `
		SELECT user_id FROM orbit_users WHERE user_id = ANY($1)
		ORDER BY user_id FOR UPDATE
	`, userIDs)
	if err != nil {
		return errors.Wrap(err, "error during query")
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return errors.Wrap(err, "failed to scan locked user id")
		}
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "error during row iteration")
	}
	return nil
}

func (r *Repository) LockContractState(ctx context.Context) error {
	// lock after user rows, never the other way around, to keep lock order consistent
	_, err := r.q.Exec(ctx, `SELECT id FROM orbit_contract_state FOR UPDATE`)
	if err != nil {
		return errors.Wrap(err, "error during query")
	}
	return nil
}

func (r *Repository) CreateOrbit(ctx context.Context, orbit *entity.Orbit) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO orbit_orbits (user_id, orbit_id, completed_x)
		VALUES ($1, $2, $3)
	`, orbit.UserID, orbit.OrbitID, orbit.CompletedX)
	if err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

func (r *Repository) UpdateOrbitProgress(ctx context.Context, userID int64, orbitID int64, completedX int32) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE orbit_orbits SET completed_x = $3
		WHERE user_id = $1 AND orbit_id = $2
	`, userID, orbitID, completedX)
	if err != nil {
		return errors.Wrap(err, "error during exec")
	}
	if tag.RowsAffected() == 0 {
		return errors.WithStack(errs.NotFound)
	}
	return nil
}

func (r *Repository) AppendEarningParts(ctx context.Context, params []datagateway.AppendEarningPartParams) error {
	for _, p := range params {
		ramaAmount, err := numericFromUint128(p.Part.RAMAAmount)
		if err != nil {
			return errors.Wrap(err, "failed to convert part amount")
		}
		_, err = r.q.Exec(ctx, `
			INSERT INTO orbit_x_slots (user_id, orbit_id, slot_index, total_usd)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, orbit_id, slot_index)
			DO UPDATE SET total_usd = orbit_x_slots.total_usd + EXCLUDED.total_usd
		`, p.UserID, p.OrbitID, p.SlotIndex, p.Part.USDValue)
		if err != nil {
			return errors.Wrap(err, "error during slot upsert")
		}
		_, err = r.q.Exec(ctx, `
			INSERT INTO orbit_earning_parts (user_id, orbit_id, slot_index, usd_value, rama_amount, from_address, donor_id, level)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, p.UserID, p.OrbitID, p.SlotIndex, p.Part.USDValue, ramaAmount, p.Part.From, p.Part.DonorID, p.Part.Level)
		if err != nil {
			return errors.Wrap(err, "error during part insert")
		}
	}
	return nil
}

func (r *Repository) CreateIncomeRecords(ctx context.Context, records []*entity.OrbitIncomeRecord) error {
	for _, record := range records {
		amount, err := numericFromUint128(record.Amount)
		if err != nil {
			return errors.Wrap(err, "failed to convert record amount")
		}
		_, err = r.q.Exec(ctx, `
			INSERT INTO orbit_income_records (user_id, orbit_id, coin, amount, usd, timestamp, donor_id, level)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, record.UserID, record.OrbitID, record.Coin, amount, record.USD, record.Timestamp, record.DonorID, record.Level)
		if err != nil {
			return errors.Wrap(err, "error during exec")
		}
	}
	return nil
}

func (r *Repository) UpdateContractState(ctx context.Context, state *entity.ContractState) error {
	joinAmountRAMA, err := numericFromUint128(state.JoinAmountRAMA)
	if err != nil {
		return errors.Wrap(err, "failed to convert join amount")
	}
	treasuryRAMA, err := numericFromUint128(state.TreasuryRAMA)
	if err != nil {
		return errors.Wrap(err, "failed to convert treasury amount")
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO orbit_contract_state (id, total_users, total_repurchases, total_volume_usd, join_amount_usd, join_amount_rama, treasury_usd, treasury_rama)
		VALUES (TRUE, $1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			total_users = EXCLUDED.total_users,
			total_repurchases = EXCLUDED.total_repurchases,
			total_volume_usd = EXCLUDED.total_volume_usd,
			join_amount_usd = EXCLUDED.join_amount_usd,
			join_amount_rama = EXCLUDED.join_amount_rama,
			treasury_usd = EXCLUDED.treasury_usd,
			treasury_rama = EXCLUDED.treasury_rama
	`,
		state.TotalUsers,
		state.TotalRepurchases,
		state.TotalVolumeUSD,
		state.JoinAmountUSD,
		joinAmountRAMA,
		state.TreasuryUSD,
		treasuryRAMA,
	)
	if err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

func (r *Repository) CreateCascadePayment(ctx context.Context, payment *entity.CascadePayment) (int64, error) {
	paymentRAMA, err := numericFromUint128(payment.PaymentRAMA)
	if err != nil {
		return 0, errors.Wrap(err, "failed to convert payment amount")
	}
	var id int64
	err = r.q.QueryRow(ctx, `
		INSERT INTO orbit_cascade_payments (payer_id, trigger_orbit, payment_usd, payment_rama, status, attempts, last_error, created_at, next_attempt_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`,
		payment.PayerID,
		payment.TriggerOrbit,
		payment.PaymentUSD,
		paymentRAMA,
		string(payment.Status),
		payment.Attempts,
		payment.LastError,
		payment.CreatedAt,
		payment.NextAttemptAt,
	).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "error during exec")
	}
	payment.ID = id
	return id, nil
}

func (r *Repository) UpdateCascadePayment(ctx context.Context, payment *entity.CascadePayment) error {
	var completedAt pgtype.Timestamptz
	if payment.CompletedAt != nil {
		completedAt = pgtype.Timestamptz{Time: *payment.CompletedAt, Valid: true}
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE orbit_cascade_payments
		SET status = $2, attempts = $3, last_error = $4, next_attempt_at = $5, completed_at = $6
		WHERE id = $1
	`,
		payment.ID,
		string(payment.Status),
		payment.Attempts,
		payment.LastError,
		payment.NextAttemptAt,
		completedAt,
	)
	if err != nil {
		return errors.Wrap(err, "error during exec")
	}
	if tag.RowsAffected() == 0 {
		return errors.WithStack(errs.NotFound)
	}
	return nil
}
