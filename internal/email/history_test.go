package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dcadvisors/backoffice/internal/db"
)

func setupHistory(t *testing.T) *History {
	t.Helper()

	database, err := db.New()
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	h := NewHistory(database.DB)
	h.SetClock(func() time.Time {
		now = now.Add(time.Minute)
		return now
	})
	return h
}

func testEntry(razao, nf string, valor float64, status Status) *Entry {
	return &Entry{
		Data: Data{
			RazaoSocial: razao,
			Email:       "financeiro@example.com",
			NumeroNF:    nf,
			ValorTotal:  valor,
		},
		Subject: "Notificação de Crédito - DC Advisors",
		Body:    "Prezado " + razao,
		Status:  status,
	}
}

func TestHistoryRecordAndGet(t *testing.T) {
	h := setupHistory(t)
	ctx := context.Background()

	customerID := "c-1"
	obs := "pagamento parcial"
	e := testEntry("Empresa ABC Ltda", "NF-001", 1500.5, "")
	e.CustomerID = &customerID
	e.Data.Observacoes = &obs
	e.TemplateVersionID = "v-1"

	if err := h.Record(ctx, e); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if e.ID == "" {
		t.Fatal("expected ID to be assigned")
	}
	if e.Status != StatusDraft {
		t.Errorf("Status = %q, want draft", e.Status)
	}
	if e.SentAt != nil {
		t.Errorf("SentAt = %v, want nil", e.SentAt)
	}

	got, err := h.Get(ctx, e.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil {
		t.Fatal("Get() returned nil")
	}
	if diff := cmp.Diff(e, got); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}
}

func TestHistoryGetMissing(t *testing.T) {
	h := setupHistory(t)

	got, err := h.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %v, want nil", got)
	}
}

func TestHistoryRecordSent(t *testing.T) {
	h := setupHistory(t)

	e := testEntry("Empresa ABC Ltda", "NF-002", 10, StatusSent)
	if err := h.Record(context.Background(), e); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if e.SentAt == nil || !e.SentAt.Equal(e.CreatedAt) {
		t.Errorf("SentAt = %v, want %v", e.SentAt, e.CreatedAt)
	}
}

func TestHistoryRecordInvalidStatus(t *testing.T) {
	h := setupHistory(t)

	e := testEntry("Empresa ABC Ltda", "NF-003", 10, Status("queued"))
	if err := h.Record(context.Background(), e); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestHistoryList(t *testing.T) {
	h := setupHistory(t)
	ctx := context.Background()

	for _, e := range []*Entry{
		testEntry("Empresa ABC Ltda", "NF-001", 100, StatusDraft),
		testEntry("Comercial XYZ S.A.", "NF-002", 200, StatusSent),
		testEntry("Empresa ABC Ltda", "NF-003", 300, StatusSaved),
	} {
		if err := h.Record(ctx, e); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	tests := []struct {
		name      string
		filter    HistoryFilter
		wantNFs   []string
		wantTotal int
	}{
		{"all newest first", HistoryFilter{}, []string{"NF-003", "NF-002", "NF-001"}, 3},
		{"by status", HistoryFilter{Status: StatusSent}, []string{"NF-002"}, 1},
		{"search", HistoryFilter{Search: "ABC"}, []string{"NF-003", "NF-001"}, 2},
		{"limit", HistoryFilter{Limit: 1}, []string{"NF-003"}, 3},
		{"offset", HistoryFilter{Limit: 1, Offset: 1}, []string{"NF-002"}, 3},
		{"offset without limit", HistoryFilter{Offset: 2}, []string{"NF-001"}, 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			entries, total, err := h.List(ctx, tc.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if total != tc.wantTotal {
				t.Errorf("total = %d, want %d", total, tc.wantTotal)
			}
			var nfs []string
			for _, e := range entries {
				nfs = append(nfs, e.Data.NumeroNF)
			}
			if diff := cmp.Diff(tc.wantNFs, nfs); diff != "" {
				t.Errorf("List() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHistoryListSearchWildcards(t *testing.T) {
	h := setupHistory(t)
	ctx := context.Background()

	for _, e := range []*Entry{
		testEntry("Empresa ABC Ltda", "NF-010", 100, StatusDraft),
		testEntry("Empresa ABC Ltda", "NF_011", 200, StatusDraft),
		testEntry("Desconto 5% Ltda", "NF-012", 300, StatusDraft),
	} {
		if err := h.Record(ctx, e); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	tests := []struct {
		search  string
		wantNFs []string
	}{
		{"NF_0", []string{"NF_011"}},
		{"%", []string{"NF-012"}},
		{"NF", []string{"NF-012", "NF_011", "NF-010"}},
	}

	for _, tc := range tests {
		t.Run(tc.search, func(t *testing.T) {
			entries, total, err := h.List(ctx, HistoryFilter{Search: tc.search})
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if total != len(tc.wantNFs) {
				t.Errorf("total = %d, want %d", total, len(tc.wantNFs))
			}
			var nfs []string
			for _, e := range entries {
				nfs = append(nfs, e.Data.NumeroNF)
			}
			if diff := cmp.Diff(tc.wantNFs, nfs); diff != "" {
				t.Errorf("List(%q) mismatch (-want +got):\n%s", tc.search, diff)
			}
		})
	}
}

func TestHistoryUpdateStatus(t *testing.T) {
	h := setupHistory(t)
	ctx := context.Background()

	e := testEntry("Empresa ABC Ltda", "NF-001", 100, StatusDraft)
	if err := h.Record(ctx, e); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	saved, err := h.UpdateStatus(ctx, e.ID, StatusSaved)
	if err != nil {
		t.Fatalf("UpdateStatus(saved) error = %v", err)
	}
	if saved.Status != StatusSaved || saved.SentAt != nil {
		t.Errorf("after saved: status = %q sentAt = %v", saved.Status, saved.SentAt)
	}

	sent, err := h.UpdateStatus(ctx, e.ID, StatusSent)
	if err != nil {
		t.Fatalf("UpdateStatus(sent) error = %v", err)
	}
	if sent.SentAt == nil {
		t.Fatal("expected SentAt after sent")
	}

	_, err = h.UpdateStatus(ctx, e.ID, StatusDraft)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("UpdateStatus(draft) after sent error = %v, want ErrInvalidTransition", err)
	}

	got, err := h.Get(ctx, e.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != StatusSent {
		t.Errorf("stored status = %q, want sent", got.Status)
	}
	if got.SentAt == nil || !got.SentAt.Equal(*sent.SentAt) {
		t.Errorf("stored SentAt = %v, want %v", got.SentAt, sent.SentAt)
	}
}

func TestHistoryUpdateStatusConcurrentChange(t *testing.T) {
	h := setupHistory(t)
	ctx := context.Background()

	e := testEntry("Empresa ABC Ltda", "NF-001", 100, StatusDraft)
	if err := h.Record(ctx, e); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	// Another writer marks the entry as sent after UpdateStatus read it as
	// draft. The clock runs between that read and the write.
	now := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	h.SetClock(func() time.Time {
		if _, err := h.db.ExecContext(ctx,
			`UPDATE email_history SET status = 'sent', sent_at = ? WHERE id = ? AND status = 'draft'`,
			now, e.ID,
		); err != nil {
			t.Errorf("concurrent update error = %v", err)
		}
		return now
	})

	_, err := h.UpdateStatus(ctx, e.ID, StatusSaved)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("UpdateStatus(saved) error = %v, want ErrInvalidTransition", err)
	}

	got, err := h.Get(ctx, e.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != StatusSent {
		t.Errorf("stored status = %q, want sent", got.Status)
	}
}

func TestHistoryUpdateStatusDeletedMeanwhile(t *testing.T) {
	h := setupHistory(t)
	ctx := context.Background()

	e := testEntry("Empresa ABC Ltda", "NF-001", 100, StatusDraft)
	if err := h.Record(ctx, e); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	h.SetClock(func() time.Time {
		if _, err := h.db.ExecContext(ctx, `DELETE FROM email_history WHERE id = ?`, e.ID); err != nil {
			t.Errorf("concurrent delete error = %v", err)
		}
		return time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	})

	got, err := h.UpdateStatus(ctx, e.ID, StatusSent)
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if got != nil {
		t.Errorf("UpdateStatus() = %v, want nil", got)
	}
}

func TestHistoryUpdateStatusMissing(t *testing.T) {
	h := setupHistory(t)

	got, err := h.UpdateStatus(context.Background(), "missing", StatusSent)
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if got != nil {
		t.Errorf("UpdateStatus() = %v, want nil", got)
	}
}

func TestHistoryDelete(t *testing.T) {
	h := setupHistory(t)
	ctx := context.Background()

	e := testEntry("Empresa ABC Ltda", "NF-001", 100, StatusDraft)
	if err := h.Record(ctx, e); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	deleted, err := h.Delete(ctx, e.ID)
	if err != nil || !deleted {
		t.Fatalf("Delete() = %v, %v, want true, nil", deleted, err)
	}

	deleted, err = h.Delete(ctx, e.ID)
	if err != nil || deleted {
		t.Errorf("second Delete() = %v, %v, want false, nil", deleted, err)
	}
}

func TestHistoryCountByStatus(t *testing.T) {
	h := setupHistory(t)
	ctx := context.Background()

	for _, s := range []Status{StatusDraft, StatusDraft, StatusSent} {
		if err := h.Record(ctx, testEntry("Empresa", "NF", 1, s)); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	counts, err := h.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus() error = %v", err)
	}
	want := map[Status]int{StatusDraft: 2, StatusSent: 1}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("CountByStatus() mismatch (-want +got):\n%s", diff)
	}
}
