package entity

import (
	"time"

	"github.com/gaze-network/uint128"
)

// User is the identity and aggregate state for one participant.
// All mutable fields are only ever incremented by the distribution engine.
type User struct {
	UserID           int64
	Address          string
	SponsorID        int64  // 0 for the root user
	SponsorAddress   string // empty for the root user
	RegistrationTime time.Time

	TotalEarningsUSD  int64           // micro-USD, non-decreasing
	TotalEarningsRAMA uint128.Uint128 // wei, non-decreasing
	RepurchaseCount   int64
	CurrentOrbitX     int32 // mirrors the active orbit's CompletedX
	OrbitCount        int64 // number of orbits ever created, >= 1
}

// IsRoot reports whether the user has no sponsor (top of every chain).
func (u *User) IsRoot() bool {
	return u.SponsorID == 0
}

// Orbit is one full cycle of ten commission slots for one user.
// Exactly one orbit per user has CompletedX < 10 at any time.
type Orbit struct {
	UserID     int64
	OrbitID    int64 // sequence number per user, starting at 0
	CompletedX int32 // number of fully-filled slots, 0..10
	XSlots     []XSlot
}

// Terminal reports whether the orbit is complete and immutable.
func (o *Orbit) Terminal() bool {
	return o.CompletedX >= 10
}

// XSlot is one of the ten fixed-capacity quotas an orbit must collect.
// TotalUSD always equals the sum of Parts and never exceeds the slot
// capacity (the join amount).
type XSlot struct {
	SlotIndex int32
	TotalUSD  int64 // micro-USD
	Parts     []EarningPart
}

// EarningPart is one atomic credit into a slot. Immutable once appended.
type EarningPart struct {
	USDValue   int64           // micro-USD, > 0
	RAMAAmount uint128.Uint128 // wei, > 0
	From       string          // donor wallet address
	DonorID    int64
	Level      int32 // 1..9
}

// OrbitIncomeRecord is a denormalized, time-ordered history log entry.
// One record is appended per EarningPart. Append-only.
type OrbitIncomeRecord struct {
	UserID    int64
	OrbitID   int64
	Coin      string          // always "RAMA"
	Amount    uint128.Uint128 // wei
	USD       int64           // micro-USD
	Timestamp time.Time
	DonorID   int64
	Level     int32
}

// TeamMember is one downline user at a specific level below another user.
type TeamMember struct {
	UserID           int64
	Wallet           string
	IncomeEarnedUSD  int64
	IncomeEarnedRAMA uint128.Uint128
	RegistrationTime time.Time
	Sponsor          string
}

// LevelIncome is the aggregate income a user collected from one level.
type LevelIncome struct {
	Level      int32
	USD        int64
	RAMAAmount uint128.Uint128
}

// ContractState is the singleton process-wide aggregate state.
type ContractState struct {
	TotalUsers       int64
	TotalRepurchases int64
	TotalVolumeUSD   int64 // micro-USD

	JoinAmountUSD  int64           // slot capacity, micro-USD
	JoinAmountRAMA uint128.Uint128 // wei

	// Treasury accumulators collect every payment fraction not assigned to
	// a level 1-9 recipient: the nominal unallocated 10%, truncation dust
	// and shares of missing upline levels. Kept explicit so every payment
	// is conserved to the last micro-USD.
	TreasuryUSD  int64
	TreasuryRAMA uint128.Uint128
}

// CascadeStatus is the lifecycle state of a repurchase payment.
type CascadeStatus string

const (
	CascadeStatusPending CascadeStatus = "pending"
	CascadeStatusDone    CascadeStatus = "done"
	CascadeStatusFailed  CascadeStatus = "failed"
)

// CascadePayment is a synthesized join payment produced by an orbit
// completion. It is persisted in the same transaction that finalized the
// orbit and executed later by the cascade scheduler, at least once.
type CascadePayment struct {
	ID            int64
	PayerID       int64
	TriggerOrbit  int64 // the completed orbit that synthesized this payment
	PaymentUSD    int64
	PaymentRAMA   uint128.Uint128
	Status        CascadeStatus
	Attempts      int32
	LastError     string
	CreatedAt     time.Time
	NextAttemptAt time.Time
	CompletedAt   *time.Time
}

// ReceiptEntry records the effect of one level share on its recipient.
type ReceiptEntry struct {
	Level          int32
	RecipientID    int64
	ShareUSD       int64
	ShareRAMA      uint128.Uint128
	SlotsCompleted int32
	OrbitCompleted bool
	NewOrbitID     int64 // valid only when OrbitCompleted
}

// DistributionReceipt is the full audit record of one distribute call.
type DistributionReceipt struct {
	PayerID     int64
	PaymentUSD  int64
	PaymentRAMA uint128.Uint128
	Entries     []ReceiptEntry

	// Remainder routed to the treasury sink for this payment.
	TreasuryUSD  int64
	TreasuryRAMA uint128.Uint128

	// IDs of cascade payments spawned by orbit completions in this call.
	CascadeIDs []int64

	Timestamp time.Time
}
