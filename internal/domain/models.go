package domain

import (
	"strconv"
	"strings"
	"time"
)

// Debtor is a person tracked by one owner. OwnerID is the chat user who
// registered them and scopes every lookup.
type Debtor struct {
	ID          int64
	OwnerID     int64
	DisplayName string
	CreatedAt   time.Time
}

// Transaction is a signed adjustment of what a debtor owes.
type Transaction struct {
	ID         int64
	DebtorID   int64
	Amount     int64
	Note       string
	OccurredAt time.Time
}

// Balance sums amounts in the given order.
func Balance(txs []Transaction) int64 {
	var sum int64
	for _, t := range txs {
		sum += t.Amount
	}
	return sum
}

// RunningBalances returns the balance after each transaction.
func RunningBalances(txs []Transaction) []int64 {
	out := make([]int64, len(txs))
	var sum int64
	for i, t := range txs {
		sum += t.Amount
		out[i] = sum
	}
	return out
}

// NormalizeName trims a display name; inner whitespace is kept as typed.
func NormalizeName(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", &ValidationError{Field: "name", Reason: "empty"}
	}
	return s, nil
}

// NormalizeNote trims a transaction note; blank notes are rejected.
func NormalizeNote(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", &ValidationError{Field: "note", Reason: "empty"}
	}
	return s, nil
}

// ParseAmount accepts a signed base-10 integer such as "500", "-200" or "+15".
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &ValidationError{Field: "amount", Reason: "empty"}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &ValidationError{Field: "amount", Reason: "not an integer"}
	}
	return n, nil
}
