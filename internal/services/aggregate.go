package services

import (
	"fmt"
	"sort"
	"time"

	"finreport/internal/core"

	"github.com/shopspring/decimal"
)

// DefaultTopCount is the number of rows shown on the home view.
const DefaultTopCount = 5

// SpendingWindowMonths is the look-back of the spending report.
const SpendingWindowMonths = 3

var hundred = decimal.NewFromInt(100)

// CardSummaries groups rows by card in first-seen order. Rows without a card
// form their own group so that the totals always add up to the table total.
// Cashback is 1% of the unrounded total.
func CardSummaries(t *core.Table) ([]core.CardSummary, error) {
	if err := t.Require(core.ColCard, core.ColPaymentAmount); err != nil {
		return nil, err
	}
	var order []string
	totals := map[string]decimal.Decimal{}
	for _, tx := range t.Rows() {
		if _, ok := totals[tx.Card]; !ok {
			order = append(order, tx.Card)
		}
		totals[tx.Card] = totals[tx.Card].Add(tx.Amount.Abs())
	}

	out := make([]core.CardSummary, 0, len(order))
	for _, card := range order {
		total := totals[card]
		out = append(out, core.CardSummary{
			LastDigits: lastDigits(card),
			TotalSpent: core.Round2(total),
			Cashback:   core.Round2(total.Div(hundred)),
		})
	}
	return out, nil
}

func lastDigits(card string) string {
	r := []rune(card)
	if len(r) <= 4 {
		return card
	}
	return string(r[len(r)-4:])
}

// TopTransactions returns at most n rows with the largest absolute payment
// amount, ties kept in source order. n <= 0 means DefaultTopCount.
func TopTransactions(t *core.Table, n int) ([]core.TopTransaction, error) {
	if err := t.Require(core.ColPaymentAmount, core.ColPaymentDate, core.ColCategory, core.ColDescription); err != nil {
		return nil, err
	}
	if n <= 0 {
		n = DefaultTopCount
	}
	rows := t.Rows()
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Amount.Abs().GreaterThan(rows[j].Amount.Abs())
	})
	if len(rows) > n {
		rows = rows[:n]
	}

	out := make([]core.TopTransaction, 0, len(rows))
	for _, tx := range rows {
		date := tx.PaymentDateRaw
		if tx.HasPaymentDate() {
			date = tx.PaymentDate.Format(core.DateLayout)
		}
		out = append(out, core.TopTransaction{
			Date:        date,
			Amount:      core.Round2(tx.Amount),
			Category:    tx.Category,
			Description: tx.Description,
		})
	}
	return out, nil
}

// SpendingByCategory returns the rows of category whose payment date lies in
// [end - 3 months, end], where end is asOf or now. Rows with an unparseable
// payment date never match.
func SpendingByCategory(t *core.Table, category string, asOf *time.Time, now time.Time) (*core.Table, error) {
	if err := t.Require(core.ColCategory, core.ColPaymentDate); err != nil {
		return nil, err
	}
	end := now
	if asOf != nil {
		end = *asOf
	}
	start := core.AddMonths(end, -SpendingWindowMonths)
	return t.Filter(func(tx core.Transaction) bool {
		return tx.Category == category && core.Within(tx.PaymentDate, start, end)
	}), nil
}

// CashbackTotals sums non-null cashback per category for rows paid in the
// given year and month, keeping first-seen category order. A blank category
// is reported as core.NoCategory.
func CashbackTotals(t *core.Table, year int, month time.Month) (core.CategoryTotals, error) {
	if err := t.Require(core.ColPaymentDate, core.ColCashback, core.ColCategory); err != nil {
		return nil, err
	}
	var order []string
	sums := map[string]decimal.Decimal{}
	for _, tx := range t.Rows() {
		if !tx.HasPaymentDate() || tx.PaymentDate.Year() != year || tx.PaymentDate.Month() != month {
			continue
		}
		if tx.Cashback == nil {
			continue
		}
		cat := tx.Category
		if cat == "" {
			cat = core.NoCategory
		}
		if _, ok := sums[cat]; !ok {
			order = append(order, cat)
		}
		sums[cat] = sums[cat].Add(*tx.Cashback)
	}

	out := make(core.CategoryTotals, 0, len(order))
	for _, cat := range order {
		out = append(out, core.CategoryAmount{Name: cat, Amount: sums[cat].InexactFloat64()})
	}
	return out, nil
}

// CashbackByCategory renders CashbackTotals as indented JSON text.
func CashbackByCategory(t *core.Table, year int, month time.Month) (string, error) {
	if month < time.January || month > time.December {
		return "", fmt.Errorf("invalid month: %d", month)
	}
	totals, err := CashbackTotals(t, year, month)
	if err != nil {
		return "", err
	}
	data, err := core.MarshalReport(totals)
	if err != nil {
		return "", fmt.Errorf("encode cashback: %w", err)
	}
	return string(data), nil
}
