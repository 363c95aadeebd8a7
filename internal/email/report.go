package email

import (
	"context"
	"fmt"
	"time"
)

// StatusTotal aggregates entries sharing a status
type StatusTotal struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// Report summarizes the history over a period
type Report struct {
	From     time.Time              `json:"from"`
	To       time.Time              `json:"to"`
	Count    int                    `json:"count"`
	Total    float64                `json:"total"`
	ByStatus map[Status]StatusTotal `json:"byStatus"`
}

// Summary returns count and sum of ValorTotal per status for entries
// created in [from, to).
func (h *History) Summary(ctx context.Context, from, to time.Time) (*Report, error) {
	from, to = from.UTC(), to.UTC()
	if !to.After(from) {
		return nil, fmt.Errorf("invalid period: %s is not after %s", to.Format(time.RFC3339), from.Format(time.RFC3339))
	}

	rows, err := h.db.QueryContext(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(valor_total), 0)
		FROM email_history
		WHERE created_at >= ? AND created_at < ?
		GROUP BY status`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize history: %w", err)
	}
	defer rows.Close()

	report := &Report{
		From: from,
		To:   to,
		ByStatus: map[Status]StatusTotal{
			StatusDraft: {},
			StatusSaved: {},
			StatusSent:  {},
		},
	}
	for rows.Next() {
		var (
			status string
			st     StatusTotal
		)
		if err := rows.Scan(&status, &st.Count, &st.Total); err != nil {
			return nil, err
		}
		report.ByStatus[Status(status)] = st
		report.Count += st.Count
		report.Total += st.Total
	}

	return report, rows.Err()
}

// WeekRange returns the ISO week containing t: Monday 00:00 up to the
// following Monday, in t's location.
func WeekRange(t time.Time) (time.Time, time.Time) {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 7)
}

// MonthRange returns the calendar month containing t
func MonthRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}
