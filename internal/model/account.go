package model

import "time"

// AccountType selects the threshold row used when evaluating objectives.
type AccountType string

const (
	AccountStandard AccountType = "standard"
	AccountInstant  AccountType = "instant"
	AccountOneStep  AccountType = "one-step"
	AccountGauntlet AccountType = "gauntlet"
)

// AccountStatus is the admin-driven lifecycle state of a challenge account.
type AccountStatus string

const (
	StatusActive   AccountStatus = "active"
	StatusInactive AccountStatus = "inactive"
	StatusPassed   AccountStatus = "passed"
	StatusFailed   AccountStatus = "failed"
	StatusFunded   AccountStatus = "funded"
)

// ChallengeAccount links a user to an external trading account and carries
// the configuration the evaluator needs. Step 3 means funded.
type ChallengeAccount struct {
	AccountID   string        `json:"account_id" db:"account_id"`
	UserID      string        `json:"user_id" db:"user_id"`
	AccountType AccountType   `json:"account_type" db:"account_type"`
	AccountSize float64       `json:"account_size" db:"account_size"`
	Step        int           `json:"step" db:"step"`
	Status      AccountStatus `json:"status" db:"status"`
	ProfitSplit float64       `json:"profit_split" db:"profit_split"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// Funded reports whether the account trades live capital. Step and status are
// kept in sync by convention, so either one qualifies.
func (a *ChallengeAccount) Funded() bool {
	return a.Step == 3 || a.Status == StatusFunded
}

func ValidAccountType(t AccountType) bool {
	switch t {
	case AccountStandard, AccountInstant, AccountOneStep, AccountGauntlet:
		return true
	}
	return false
}

func ValidAccountStatus(s AccountStatus) bool {
	switch s {
	case StatusActive, StatusInactive, StatusPassed, StatusFailed, StatusFunded:
		return true
	}
	return false
}

// User is the purchasing customer. OrdersCount moves together with order
// creation inside one transaction.
type User struct {
	ID          string    `json:"id" db:"id"`
	Email       string    `json:"email" db:"email"`
	OrdersCount int       `json:"orders_count" db:"orders_count"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
