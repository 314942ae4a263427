// Package split turns a percentage split and the payments made for one expense
// into the debtor to creditor transfers that settle it.
package split

import (
	"sort"

	"github.com/shopspring/decimal"

	"splitexpense/internal/money"
)

// debtorThreshold is the net position below which a user owes money.
var debtorThreshold = decimal.RequireFromString("-0.01")

// Request describes one expense to be split.
type Request struct {
	Amount         decimal.Decimal
	Currency       string
	PaidByShares   map[string]decimal.Decimal
	SplitPctShares map[string]decimal.Decimal
}

// Transfer is one debtor to creditor edge of a settlement.
type Transfer struct {
	DebtorID   string          `json:"debtor_id"`
	CreditorID string          `json:"creditor_id"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
}

// Result is the settlement of one expense.
type Result struct {
	Transfers []Transfer `json:"transfers"`
	// OwedAmounts is each user's share of the cost.
	OwedAmounts map[string]decimal.Decimal `json:"owed_amounts"`
	// OwedToAmounts is each creditor's positive net position.
	OwedToAmounts map[string]decimal.Decimal `json:"owed_to_amounts"`
}

type position struct {
	userID string
	amount decimal.Decimal
}

// Compute validates req and returns its settlement.
func Compute(req Request) (*Result, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	return settle(req), nil
}

// settle assumes req is valid. Every user present in either map gets a net
// position; creditors receive from each debtor in proportion to their share of
// the total credit.
func settle(req Request) *Result {
	result := &Result{
		Transfers:     []Transfer{},
		OwedAmounts:   make(map[string]decimal.Decimal),
		OwedToAmounts: make(map[string]decimal.Decimal),
	}

	var creditors, debtors []position
	totalCredit := decimal.Zero

	for _, userID := range users(req) {
		owed := money.Percent(req.Amount, req.SplitPctShares[userID])
		net := req.PaidByShares[userID].Sub(owed)
		result.OwedAmounts[userID] = money.Round2(owed)

		switch {
		case net.GreaterThan(money.ZeroTolerance):
			creditors = append(creditors, position{userID: userID, amount: net})
			totalCredit = totalCredit.Add(net)
			result.OwedToAmounts[userID] = money.Round2(net)
		case net.LessThan(debtorThreshold):
			debtors = append(debtors, position{userID: userID, amount: net.Neg()})
		}
	}

	if totalCredit.IsZero() {
		return result
	}

	for _, debtor := range debtors {
		for _, creditor := range creditors {
			share := money.Round2(debtor.amount.Mul(creditor.amount).Div(totalCredit))
			if share.LessThanOrEqual(money.ZeroTolerance) {
				continue
			}
			result.Transfers = append(result.Transfers, Transfer{
				DebtorID:   debtor.userID,
				CreditorID: creditor.userID,
				Amount:     share,
				Currency:   req.Currency,
			})
		}
	}
	return result
}

// users returns every user id that appears in either map, sorted.
func users(req Request) []string {
	seen := make(map[string]struct{}, len(req.PaidByShares)+len(req.SplitPctShares))
	for id := range req.PaidByShares {
		seen[id] = struct{}{}
	}
	for id := range req.SplitPctShares {
		seen[id] = struct{}{}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TotalTransferred sums the amounts of transfers.
func TotalTransferred(transfers []Transfer) decimal.Decimal {
	total := decimal.Zero
	for _, t := range transfers {
		total = total.Add(t.Amount)
	}
	return total
}
