package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/ramaorbit/orbit-engine/common/errs"
	"github.com/ramaorbit/orbit-engine/modules/orbit/datagateway"
	"github.com/ramaorbit/orbit-engine/modules/orbit/internal/entity"
)

// Repository is an in-memory implementation of datagateway.OrbitDataGateway
// backed by a single-writer transaction model: BeginOrbitTx acquires an
// exclusive lock, so at most one write transaction is in flight and
// overlapping distributions serialize without row locks. Reads outside a
// transaction take a shared lock and return copies.
type Repository struct {
	mu    sync.RWMutex
	state *state
}

type state struct {
	users          map[int64]*entity.User
	userIDByAddr   map[string]int64
	orbits         map[int64][]*entity.Orbit // per user, index == orbit id
	incomes        map[int64][]*entity.OrbitIncomeRecord
	contract       *entity.ContractState
	cascades       map[int64]*entity.CascadePayment
	nextCascadeID  int64
	childrenByUser map[int64][]int64 // sponsor id -> direct downline ids, registration order
}

func newState() *state {
	return &state{
		users:          make(map[int64]*entity.User),
		userIDByAddr:   make(map[string]int64),
		orbits:         make(map[int64][]*entity.Orbit),
		incomes:        make(map[int64][]*entity.OrbitIncomeRecord),
		cascades:       make(map[int64]*entity.CascadePayment),
		nextCascadeID:  1,
		childrenByUser: make(map[int64][]int64),
	}
}

func New() *Repository {
	return &Repository{state: newState()}
}

var _ datagateway.OrbitDataGateway = (*Repository)(nil)

func (r *Repository) BeginOrbitTx(ctx context.Context) (datagateway.OrbitDataGatewayWithTx, error) {
	r.mu.Lock()
	return &txRepository{parent: r, staged: r.state.clone()}, nil
}

// txRepository operates on a deep copy of the repository state; Commit swaps
// the copy in atomically, Rollback discards it. Either way the exclusive
// lock taken at begin is released exactly once.
type txRepository struct {
	parent *Repository
	staged *state
	done   bool
}

var _ datagateway.OrbitDataGatewayWithTx = (*txRepository)(nil)

func (t *txRepository) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.parent.state = t.staged
	t.parent.mu.Unlock()
	return nil
}

func (t *txRepository) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.parent.mu.Unlock()
	return nil
}

// BeginOrbitTx on an open transaction returns the transaction itself:
// the memory model has no nesting and the outer Commit settles everything.
func (t *txRepository) BeginOrbitTx(ctx context.Context) (datagateway.OrbitDataGatewayWithTx, error) {
	return t, nil
}

// --- reads -----------------------------------------------------------------

func (r *Repository) read() (*state, func()) {
	r.mu.RLock()
	return r.state, r.mu.RUnlock
}

func (t *txRepository) read() (*state, func()) {
	return t.staged, func() {}
}

type reader interface {
	read() (*state, func())
}

func (r *Repository) GetUserByID(ctx context.Context, userID int64) (*entity.User, error) {
	return getUserByID(r, userID)
}

func (t *txRepository) GetUserByID(ctx context.Context, userID int64) (*entity.User, error) {
	return getUserByID(t, userID)
}

func getUserByID(r reader, userID int64) (*entity.User, error) {
	s, release := r.read()
	defer release()
	user, ok := s.users[userID]
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "user %d", userID)
	}
	return copyUser(user), nil
}

func (r *Repository) GetUserByAddress(ctx context.Context, address string) (*entity.User, error) {
	return getUserByAddress(r, address)
}

func (t *txRepository) GetUserByAddress(ctx context.Context, address string) (*entity.User, error) {
	return getUserByAddress(t, address)
}

func getUserByAddress(r reader, address string) (*entity.User, error) {
	s, release := r.read()
	defer release()
	id, ok := s.userIDByAddr[address]
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "user with address %q", address)
	}
	return copyUser(s.users[id]), nil
}

func (r *Repository) GetSponsorChain(ctx context.Context, userID int64, maxLevels int) ([]*entity.User, error) {
	return getSponsorChain(r, userID, maxLevels)
}

func (t *txRepository) GetSponsorChain(ctx context.Context, userID int64, maxLevels int) ([]*entity.User, error) {
	return getSponsorChain(t, userID, maxLevels)
}

func getSponsorChain(r reader, userID int64, maxLevels int) ([]*entity.User, error) {
	s, release := r.read()
	defer release()
	user, ok := s.users[userID]
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "user %d", userID)
	}
	chain := make([]*entity.User, 0, maxLevels)
	for current := user; len(chain) < maxLevels && !current.IsRoot(); {
		sponsor, ok := s.users[current.SponsorID]
		if !ok {
			return nil, errors.Wrapf(errs.InvariantViolation, "user %d references missing sponsor %d", current.UserID, current.SponsorID)
		}
		chain = append(chain, copyUser(sponsor))
		current = sponsor
	}
	return chain, nil
}

func (r *Repository) GetOrbitsByUserID(ctx context.Context, userID int64) ([]*entity.Orbit, error) {
	return getOrbitsByUserID(r, userID)
}

func (t *txRepository) GetOrbitsByUserID(ctx context.Context, userID int64) ([]*entity.Orbit, error) {
	return getOrbitsByUserID(t, userID)
}

func getOrbitsByUserID(r reader, userID int64) ([]*entity.Orbit, error) {
	s, release := r.read()
	defer release()
	orbits := make([]*entity.Orbit, 0, len(s.orbits[userID]))
	for _, orbit := range s.orbits[userID] {
		orbits = append(orbits, copyOrbit(orbit))
	}
	return orbits, nil
}

func (r *Repository) GetActiveOrbit(ctx context.Context, userID int64) (*entity.Orbit, error) {
	return getActiveOrbit(r, userID)
}

func (t *txRepository) GetActiveOrbit(ctx context.Context, userID int64) (*entity.Orbit, error) {
	return getActiveOrbit(t, userID)
}

func getActiveOrbit(r reader, userID int64) (*entity.Orbit, error) {
	s, release := r.read()
	defer release()
	for _, orbit := range s.orbits[userID] {
		if !orbit.Terminal() {
			return copyOrbit(orbit), nil
		}
	}
	return nil, errors.Wrapf(errs.NotFound, "no active orbit for user %d", userID)
}

func (r *Repository) GetTeamAtLevel(ctx context.Context, userID int64, level int32) ([]*entity.TeamMember, error) {
	return getTeamAtLevel(r, userID, level)
}

func (t *txRepository) GetTeamAtLevel(ctx context.Context, userID int64, level int32) ([]*entity.TeamMember, error) {
	return getTeamAtLevel(t, userID, level)
}

func getTeamAtLevel(r reader, userID int64, level int32) ([]*entity.TeamMember, error) {
	s, release := r.read()
	defer release()
	if _, ok := s.users[userID]; !ok {
		return nil, errors.Wrapf(errs.NotFound, "user %d", userID)
	}
	frontier := []int64{userID}
	for depth := int32(0); depth < level; depth++ {
		var next []int64
		for _, id := range frontier {
			next = append(next, s.childrenByUser[id]...)
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}
	members := make([]*entity.TeamMember, 0, len(frontier))
	for _, id := range frontier {
		user := s.users[id]
		members = append(members, &entity.TeamMember{
			UserID:           user.UserID,
			Wallet:           user.Address,
			IncomeEarnedUSD:  user.TotalEarningsUSD,
			IncomeEarnedRAMA: user.TotalEarningsRAMA,
			RegistrationTime: user.RegistrationTime,
			Sponsor:          user.SponsorAddress,
		})
	}
	return members, nil
}

func (r *Repository) GetIncomeRecords(ctx context.Context, userID int64, orbitID *int64, limit int32, offset int32) ([]*entity.OrbitIncomeRecord, error) {
	return getIncomeRecords(r, userID, orbitID, limit, offset)
}

func (t *txRepository) GetIncomeRecords(ctx context.Context, userID int64, orbitID *int64, limit int32, offset int32) ([]*entity.OrbitIncomeRecord, error) {
	return getIncomeRecords(t, userID, orbitID, limit, offset)
}

func getIncomeRecords(r reader, userID int64, orbitID *int64, limit int32, offset int32) ([]*entity.OrbitIncomeRecord, error) {
	s, release := r.read()
	defer release()
	all := s.incomes[userID]
	filtered := make([]*entity.OrbitIncomeRecord, 0, len(all))
	// stored oldest first; walk backwards for most recent first
	for i := len(all) - 1; i >= 0; i-- {
		if orbitID != nil && all[i].OrbitID != *orbitID {
			continue
		}
		filtered = append(filtered, all[i])
	}
	if offset >= int32(len(filtered)) {
		return []*entity.OrbitIncomeRecord{}, nil
	}
	filtered = filtered[offset:]
	if limit > 0 && limit < int32(len(filtered)) {
		filtered = filtered[:limit]
	}
	result := make([]*entity.OrbitIncomeRecord, 0, len(filtered))
	for _, record := range filtered {
		clone := *record
		result = append(result, &clone)
	}
	return result, nil
}

func (r *Repository) GetLevelIncomes(ctx context.Context, userID int64) ([]*entity.LevelIncome, error) {
	return getLevelIncomes(r, userID)
}

func (t *txRepository) GetLevelIncomes(ctx context.Context, userID int64) ([]*entity.LevelIncome, error) {
	return getLevelIncomes(t, userID)
}

func getLevelIncomes(r reader, userID int64) ([]*entity.LevelIncome, error) {
	s, release := r.read()
	defer release()
	byLevel := make(map[int32]*entity.LevelIncome)
	for _, record := range s.incomes[userID] {
		income, ok := byLevel[record.Level]
		if !ok {
			income = &entity.LevelIncome{Level: record.Level, RAMAAmount: uint128.Zero}
			byLevel[record.Level] = income
		}
		income.USD += record.USD
		income.RAMAAmount = income.RAMAAmount.Add(record.Amount)
	}
	incomes := make([]*entity.LevelIncome, 0, len(byLevel))
	for _, income := range byLevel {
		incomes = append(incomes, income)
	}
	slices.SortFunc(incomes, func(a, b *entity.LevelIncome) int {
		return int(a.Level - b.Level)
	})
	return incomes, nil
}

func (r *Repository) GetContractState(ctx context.Context) (*entity.ContractState, error) {
	return getContractState(r)
}

func (t *txRepository) GetContractState(ctx context.Context) (*entity.ContractState, error) {
	return getContractState(t)
}

func getContractState(r reader) (*entity.ContractState, error) {
	s, release := r.read()
	defer release()
	if s.contract == nil {
		return nil, errors.Wrap(errs.NotFound, "contract state not initialized")
	}
	clone := *s.contract
	return &clone, nil
}

func (r *Repository) GetCascadePayment(ctx context.Context, id int64) (*entity.CascadePayment, error) {
	return getCascadePayment(r, id)
}

func (t *txRepository) GetCascadePayment(ctx context.Context, id int64) (*entity.CascadePayment, error) {
	return getCascadePayment(t, id)
}

func getCascadePayment(r reader, id int64) (*entity.CascadePayment, error) {
	s, release := r.read()
	defer release()
	payment, ok := s.cascades[id]
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "cascade payment %d", id)
	}
	return copyCascadePayment(payment), nil
}

func (r *Repository) GetDueCascadePayments(ctx context.Context, now time.Time, limit int) ([]*entity.CascadePayment, error) {
	return getDueCascadePayments(r, now, limit)
}

func (t *txRepository) GetDueCascadePayments(ctx context.Context, now time.Time, limit int) ([]*entity.CascadePayment, error) {
	return getDueCascadePayments(t, now, limit)
}

func getDueCascadePayments(r reader, now time.Time, limit int) ([]*entity.CascadePayment, error) {
	s, release := r.read()
	defer release()
	due := make([]*entity.CascadePayment, 0)
	for _, payment := range s.cascades {
		if payment.Status == entity.CascadeStatusPending && !payment.NextAttemptAt.After(now) {
			due = append(due, copyCascadePayment(payment))
		}
	}
	slices.SortFunc(due, func(a, b *entity.CascadePayment) int {
		return int(a.ID - b.ID)
	})
	if limit > 0 && limit < len(due) {
		due = due[:limit]
	}
	return due, nil
}

// --- writes ----------------------------------------------------------------

// Writes outside a transaction apply immediately under the exclusive lock.
func (r *Repository) write(apply func(s *state) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return apply(r.state)
}

func (t *txRepository) write(apply func(s *state) error) error {
	return apply(t.staged)
}

type writer interface {
	write(apply func(s *state) error) error
}

func (r *Repository) CreateUser(ctx context.Context, user *entity.User) error {
	return createUser(r, user)
}

func (t *txRepository) CreateUser(ctx context.Context, user *entity.User) error {
	return createUser(t, user)
}

func createUser(w writer, user *entity.User) error {
	return w.write(func(s *state) error {
		if _, ok := s.users[user.UserID]; ok {
			return errors.Wrapf(errs.Duplicate, "user %d already exists", user.UserID)
		}
		if _, ok := s.userIDByAddr[user.Address]; ok {
			return errors.Wrapf(errs.Duplicate, "address %q already registered", user.Address)
		}
		s.users[user.UserID] = copyUser(user)
		s.userIDByAddr[user.Address] = user.UserID
		if !user.IsRoot() {
			s.childrenByUser[user.SponsorID] = append(s.childrenByUser[user.SponsorID], user.UserID)
		}
		return nil
	})
}

func (r *Repository) UpdateUser(ctx context.Context, user *entity.User) error {
	return updateUser(r, user)
}

func (t *txRepository) UpdateUser(ctx context.Context, user *entity.User) error {
	return updateUser(t, user)
}

func updateUser(w writer, user *entity.User) error {
	return w.write(func(s *state) error {
		stored, ok := s.users[user.UserID]
		if !ok {
			return errors.Wrapf(errs.NotFound, "user %d", user.UserID)
		}
		stored.TotalEarningsUSD = user.TotalEarningsUSD
		stored.TotalEarningsRAMA = user.TotalEarningsRAMA
		stored.RepurchaseCount = user.RepurchaseCount
		stored.CurrentOrbitX = user.CurrentOrbitX
		stored.OrbitCount = user.OrbitCount
		return nil
	})
}

// LockUsers is a no-op: the exclusive transaction lock already serializes
// all writers.
func (r *Repository) LockUsers(ctx context.Context, userIDs []int64) error {
	return nil
}

func (t *txRepository) LockUsers(ctx context.Context, userIDs []int64) error {
	return nil
}

// LockContractState is a no-op: the exclusive transaction lock already
// serializes every writer, user rows and singleton alike.
func (r *Repository) LockContractState(ctx context.Context) error {
	return nil
}

func (t *txRepository) LockContractState(ctx context.Context) error {
	return nil
}

func (r *Repository) CreateOrbit(ctx context.Context, orbit *entity.Orbit) error {
	return createOrbit(r, orbit)
}

func (t *txRepository) CreateOrbit(ctx context.Context, orbit *entity.Orbit) error {
	return createOrbit(t, orbit)
}

func createOrbit(w writer, orbit *entity.Orbit) error {
	return w.write(func(s *state) error {
		existing := s.orbits[orbit.UserID]
		if orbit.OrbitID != int64(len(existing)) {
			return errors.Wrapf(errs.InvariantViolation, "orbit %d for user %d is out of sequence (have %d orbits)", orbit.OrbitID, orbit.UserID, len(existing))
		}
		s.orbits[orbit.UserID] = append(existing, copyOrbit(orbit))
		return nil
	})
}

func (r *Repository) UpdateOrbitProgress(ctx context.Context, userID int64, orbitID int64, completedX int32) error {
	return updateOrbitProgress(r, userID, orbitID, completedX)
}

func (t *txRepository) UpdateOrbitProgress(ctx context.Context, userID int64, orbitID int64, completedX int32) error {
	return updateOrbitProgress(t, userID, orbitID, completedX)
}

func updateOrbitProgress(w writer, userID int64, orbitID int64, completedX int32) error {
	return w.write(func(s *state) error {
		orbit, err := findOrbit(s, userID, orbitID)
		if err != nil {
			return err
		}
		orbit.CompletedX = completedX
		return nil
	})
}

func (r *Repository) AppendEarningParts(ctx context.Context, params []datagateway.AppendEarningPartParams) error {
	return appendEarningParts(r, params)
}

func (t *txRepository) AppendEarningParts(ctx context.Context, params []datagateway.AppendEarningPartParams) error {
	return appendEarningParts(t, params)
}

func appendEarningParts(w writer, params []datagateway.AppendEarningPartParams) error {
	return w.write(func(s *state) error {
		for _, p := range params {
			orbit, err := findOrbit(s, p.UserID, p.OrbitID)
			if err != nil {
				return err
			}
			var slot *entity.XSlot
			for i := range orbit.XSlots {
				if orbit.XSlots[i].SlotIndex == p.SlotIndex {
					slot = &orbit.XSlots[i]
					break
				}
			}
			if slot == nil {
				orbit.XSlots = append(orbit.XSlots, entity.XSlot{SlotIndex: p.SlotIndex})
				slot = &orbit.XSlots[len(orbit.XSlots)-1]
			}
			slot.Parts = append(slot.Parts, p.Part)
			slot.TotalUSD += p.Part.USDValue
		}
		return nil
	})
}

func (r *Repository) CreateIncomeRecords(ctx context.Context, records []*entity.OrbitIncomeRecord) error {
	return createIncomeRecords(r, records)
}

func (t *txRepository) CreateIncomeRecords(ctx context.Context, records []*entity.OrbitIncomeRecord) error {
	return createIncomeRecords(t, records)
}

func createIncomeRecords(w writer, records []*entity.OrbitIncomeRecord) error {
	return w.write(func(s *state) error {
		for _, record := range records {
			clone := *record
			s.incomes[record.UserID] = append(s.incomes[record.UserID], &clone)
		}
		return nil
	})
}

func (r *Repository) UpdateContractState(ctx context.Context, state *entity.ContractState) error {
	return updateContractState(r, state)
}

func (t *txRepository) UpdateContractState(ctx context.Context, state *entity.ContractState) error {
	return updateContractState(t, state)
}

func updateContractState(w writer, contract *entity.ContractState) error {
	return w.write(func(s *state) error {
		clone := *contract
		s.contract = &clone
		return nil
	})
}

func (r *Repository) CreateCascadePayment(ctx context.Context, payment *entity.CascadePayment) (int64, error) {
	return createCascadePayment(r, payment)
}

func (t *txRepository) CreateCascadePayment(ctx context.Context, payment *entity.CascadePayment) (int64, error) {
	return createCascadePayment(t, payment)
}

func createCascadePayment(w writer, payment *entity.CascadePayment) (int64, error) {
	var id int64
	err := w.write(func(s *state) error {
		id = s.nextCascadeID
		s.nextCascadeID++
		clone := copyCascadePayment(payment)
		clone.ID = id
		s.cascades[id] = clone
		return nil
	})
	if err != nil {
		return 0, err
	}
	payment.ID = id
	return id, nil
}

func (r *Repository) UpdateCascadePayment(ctx context.Context, payment *entity.CascadePayment) error {
	return updateCascadePayment(r, payment)
}

func (t *txRepository) UpdateCascadePayment(ctx context.Context, payment *entity.CascadePayment) error {
	return updateCascadePayment(t, payment)
}

func updateCascadePayment(w writer, payment *entity.CascadePayment) error {
	return w.write(func(s *state) error {
		if _, ok := s.cascades[payment.ID]; !ok {
			return errors.Wrapf(errs.NotFound, "cascade payment %d", payment.ID)
		}
		s.cascades[payment.ID] = copyCascadePayment(payment)
		return nil
	})
}

// --- helpers ---------------------------------------------------------------

func findOrbit(s *state, userID int64, orbitID int64) (*entity.Orbit, error) {
	orbits := s.orbits[userID]
	if orbitID < 0 || orbitID >= int64(len(orbits)) {
		return nil, errors.Wrapf(errs.NotFound, "orbit %d for user %d", orbitID, userID)
	}
	return orbits[orbitID], nil
}

func copyUser(u *entity.User) *entity.User {
	clone := *u
	return &clone
}

func copyOrbit(o *entity.Orbit) *entity.Orbit {
	clone := *o
	clone.XSlots = make([]entity.XSlot, len(o.XSlots))
	for i, slot := range o.XSlots {
		clone.XSlots[i] = slot
		clone.XSlots[i].Parts = slices.Clone(slot.Parts)
	}
	return &clone
}

func copyCascadePayment(p *entity.CascadePayment) *entity.CascadePayment {
	clone := *p
	if p.CompletedAt != nil {
		completedAt := *p.CompletedAt
		clone.CompletedAt = &completedAt
	}
	return &clone
}

func (s *state) clone() *state {
	cloned := newState()
	cloned.nextCascadeID = s.nextCascadeID
	for id, user := range s.users {
		cloned.users[id] = copyUser(user)
	}
	for addr, id := range s.userIDByAddr {
		cloned.userIDByAddr[addr] = id
	}
	for id, orbits := range s.orbits {
		clonedOrbits := make([]*entity.Orbit, len(orbits))
		for i, orbit := range orbits {
			clonedOrbits[i] = copyOrbit(orbit)
		}
		cloned.orbits[id] = clonedOrbits
	}
	for id, records := range s.incomes {
		clonedRecords := make([]*entity.OrbitIncomeRecord, len(records))
		for i, record := range records {
			clone := *record
			clonedRecords[i] = &clone
		}
		cloned.incomes[id] = clonedRecords
	}
	if s.contract != nil {
		contract := *s.contract
		cloned.contract = &contract
	}
	for id, payment := range s.cascades {
		cloned.cascades[id] = copyCascadePayment(payment)
	}
	for id, children := range s.childrenByUser {
		cloned.childrenByUser[id] = slices.Clone(children)
	}
	return cloned
}
