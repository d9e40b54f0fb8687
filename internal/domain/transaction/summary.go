package transaction

import (
	"sort"
	"time"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/money"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/payment"
	"github.com/shopspring/decimal"
)

// DayLayout renders calendar days the way the dashboard shows them (pt-BR).
const DayLayout = "02/01/2006"

// ComparisonWindow is the length of the current and previous periods in CompareSales.
const ComparisonWindow = 30

type Summary struct {
	TotalTransactions  int                    `json:"total_transactions"`
	TotalAmount        decimal.Decimal        `json:"total_amount"`
	PaidAmount         decimal.Decimal        `json:"paid_amount"`
	ApprovalRate       decimal.Decimal        `json:"approval_rate"`
	StatusCount        map[payment.Status]int `json:"status_count"`
	PaymentMethodCount map[payment.Method]int `json:"payment_method_count"`
}

// Summarize totals txs. TotalAmount is the exact sum over txs and PaidAmount the sum over its paid members.
func Summarize(txs []Transaction) Summary {
	var total, paid money.Cents
	statuses := make(map[payment.Status]int)
	methods := make(map[payment.Method]int)

	for _, t := range txs {
		total += t.Amount
		if t.Status == payment.StatusPaid {
			paid += t.Amount
		}
		statuses[t.Status]++
		methods[t.PaymentMethod]++
	}

	return Summary{
		TotalTransactions: len(txs),
		TotalAmount:       total.Reais(),
		PaidAmount:        paid.Reais(),
		ApprovalRate: money.Percent(
			decimal.NewFromInt(int64(statuses[payment.StatusPaid])),
			decimal.NewFromInt(int64(len(txs))),
			1,
		),
		StatusCount:        statuses,
		PaymentMethodCount: methods,
	}
}

type DailyPoint struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// DailySales groups the paid transactions created in the last days (relative to now)
// by calendar day in loc. Points come out in chronological order.
func DailySales(txs []Transaction, now time.Time, days int, loc *time.Location) []DailyPoint {
	if loc == nil {
		loc = time.UTC
	}
	start := now.AddDate(0, 0, -days)

	type bucket struct {
		day   time.Time
		total money.Cents
		count int
	}
	buckets := make(map[time.Time]*bucket)

	for _, t := range txs {
		if t.Status != payment.StatusPaid || t.DateCreated.Before(start) {
			continue
		}
		local := t.DateCreated.In(loc)
		y, m, d := local.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, loc)
		b, ok := buckets[day]
		if !ok {
			b = &bucket{day: day}
			buckets[day] = b
		}
		b.total += t.Amount
		b.count++
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].day.Before(ordered[j].day) })

	points := make([]DailyPoint, 0, len(ordered))
	for _, b := range ordered {
		points = append(points, DailyPoint{
			Date:  b.day.Format(DayLayout),
			Total: b.total.Reais(),
			Count: b.count,
		})
	}
	return points
}

type SalesSummary struct {
	TotalSales     decimal.Decimal `json:"total_sales"`
	PreviousTotal  decimal.Decimal `json:"previous_total"`
	PercentChange  decimal.Decimal `json:"percent_change"`
	AverageTicket  decimal.Decimal `json:"average_ticket"`
	TotalOrders    int             `json:"total_orders"`
	PaidOrders     int             `json:"paid_orders"`
	ConversionRate decimal.Decimal `json:"conversion_rate"`
}

// CompareSales compares paid sales of the last ComparisonWindow days with the window before it.
func CompareSales(txs []Transaction, now time.Time) SalesSummary {
	currentStart := now.AddDate(0, 0, -ComparisonWindow)
	previousStart := now.AddDate(0, 0, -2*ComparisonWindow)

	var current, previous money.Cents
	var currentCount, paidCount int
	for _, t := range txs {
		if t.Status != payment.StatusPaid {
			continue
		}
		switch {
		case !t.DateCreated.Before(currentStart):
			current += t.Amount
			currentCount++
			paidCount++
		case !t.DateCreated.Before(previousStart):
			previous += t.Amount
		}
	}

	summary := SalesSummary{
		TotalSales:     current.Reais(),
		PreviousTotal:  previous.Reais(),
		PercentChange:  decimal.Zero,
		AverageTicket:  decimal.Zero,
		TotalOrders:    currentCount,
		PaidOrders:     paidCount,
		ConversionRate: decimal.Zero,
	}
	if previous > 0 {
		summary.PercentChange = money.Percent(current.Reais().Sub(previous.Reais()), previous.Reais(), 1)
	}
	if currentCount > 0 {
		summary.AverageTicket = current.Reais().Div(decimal.NewFromInt(int64(currentCount))).Round(2)
		summary.ConversionRate = money.Percent(
			decimal.NewFromInt(int64(paidCount)),
			decimal.NewFromInt(int64(currentCount)),
			1,
		)
	}
	return summary
}
