package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "splitexpense/internal/errors"
	"splitexpense/internal/models"
	"splitexpense/internal/money"
	"splitexpense/internal/recurrence"
)

// spendRow is one expense entry as read for the monthly report.
type spendRow struct {
	Amount    decimal.Decimal
	Currency  string
	AddedTime time.Time
}

// MonthlyReport summarizes the budget's spend per month and its rolling averages.
func (s *budgetService) MonthlyReport(ctx context.Context, groupID, name string, today time.Time) (*MonthlyReport, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget name is required")
	}
	if err := checkBudgetAllowed(s.db.WithContext(ctx), groupID, name); err != nil {
		return nil, err
	}
	today = today.UTC()
	cutoff := today.AddDate(-s.lookbackYears, 0, 0)

	// Grouping by month runs here rather than in SQL; date functions differ
	// between postgres and sqlite.
	var rows []spendRow
	if err := s.db.WithContext(ctx).Model(&models.BudgetEntry{}).
		Select("amount, currency, added_time").
		Where("group_id = ? AND name = ? AND amount < 0 AND added_time >= ?", groupID, name, cutoff).
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	months, currencies, period := buildMonthlySeries(rows, today, s.lookbackYears)
	return &MonthlyReport{
		MonthlyBudgets:      months,
		AverageMonthlySpend: rollingAverages(months, currencies),
		PeriodAnalyzed:      period,
	}, nil
}

type yearMonth struct {
	year  int
	month time.Month
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// buildMonthlySeries sums absolute spend per month and currency and lays it
// out from today's month back to the oldest month with data, newest first,
// with zeros for empty months. Without data it covers lookbackYears in the
// default currency.
func buildMonthlySeries(rows []spendRow, today time.Time, lookbackYears int) ([]MonthlySpending, []string, PeriodAnalyzed) {
	sums := make(map[yearMonth]map[string]decimal.Decimal)
	seen := make(map[string]bool)
	oldest := today

	for _, r := range rows {
		t := r.AddedTime.UTC()
		seen[r.Currency] = true
		if start := monthStart(t); start.Before(oldest) {
			oldest = start
		}
		k := yearMonth{t.Year(), t.Month()}
		if sums[k] == nil {
			sums[k] = make(map[string]decimal.Decimal)
		}
		sums[k][r.Currency] = sums[k][r.Currency].Add(r.Amount.Abs())
	}
	if len(rows) == 0 {
		oldest = today.AddDate(-lookbackYears, 0, 0)
		seen[money.DefaultCurrency] = true
	}

	currencies := make([]string, 0, len(seen))
	for c := range seen {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)

	var months []MonthlySpending
	end := monthStart(oldest)
	for cur := monthStart(today); !cur.Before(end); cur = cur.AddDate(0, -1, 0) {
		k := yearMonth{cur.Year(), cur.Month()}
		amounts := make([]MonthlyAmount, 0, len(currencies))
		for _, c := range currencies {
			amounts = append(amounts, MonthlyAmount{
				Currency: c,
				Amount:   money.Round2(sums[k][c]),
			})
		}
		months = append(months, MonthlySpending{
			Year:    cur.Year(),
			Month:   cur.Month().String(),
			Amounts: amounts,
		})
	}

	period := PeriodAnalyzed{
		StartDate: recurrence.Today(oldest),
		EndDate:   recurrence.Today(today),
	}
	return months, currencies, period
}

// rollingAverages averages the first k months (most recent first) for every
// k from 1 to len(months). Currencies with no spend in a window are left out
// of it; a window with no spend at all keeps one zero entry so it is never empty.
func rollingAverages(months []MonthlySpending, currencies []string) []RollingAverage {
	totals := make(map[string]decimal.Decimal, len(currencies))
	averages := make([]RollingAverage, 0, len(months))

	for i, m := range months {
		for _, a := range m.Amounts {
			totals[a.Currency] = totals[a.Currency].Add(a.Amount)
		}
		k := i + 1
		divisor := decimal.NewFromInt(int64(k))

		window := make([]AverageSpending, 0, len(currencies))
		for _, c := range currencies {
			total := totals[c]
			if !total.IsPositive() {
				continue
			}
			window = append(window, AverageSpending{
				Currency:            c,
				AverageMonthlySpend: money.Round2(total.Div(divisor)),
				TotalSpend:          money.Round2(total),
				MonthsAnalyzed:      k,
			})
		}
		if len(window) == 0 {
			currency := money.DefaultCurrency
			if len(currencies) > 0 {
				currency = currencies[0]
			}
			window = append(window, AverageSpending{
				Currency:            currency,
				AverageMonthlySpend: decimal.Zero,
				TotalSpend:          decimal.Zero,
				MonthsAnalyzed:      k,
			})
		}

		averages = append(averages, RollingAverage{PeriodMonths: k, Averages: window})
	}
	return averages
}
