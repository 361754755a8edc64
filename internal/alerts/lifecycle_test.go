package alerts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"turbine-monitor/internal/anomaly"
	"turbine-monitor/internal/storage"
)

type memAlertStore struct {
	alerts map[string]storage.AlertRecord
}

func newMemAlertStore() *memAlertStore {
	return &memAlertStore{alerts: map[string]storage.AlertRecord{}}
}

func (m *memAlertStore) CreateAlert(ctx context.Context, alert storage.AlertRecord) error {
	m.alerts[alert.ID] = alert
	return nil
}

func (m *memAlertStore) GetAlert(ctx context.Context, id string) (storage.AlertRecord, error) {
	alert, ok := m.alerts[id]
	if !ok {
		return storage.AlertRecord{}, storage.ErrNotFound
	}
	return alert, nil
}

func (m *memAlertStore) UpdateAlert(ctx context.Context, alert storage.AlertRecord) error {
	if _, ok := m.alerts[alert.ID]; !ok {
		return storage.ErrNotFound
	}
	m.alerts[alert.ID] = alert
	return nil
}

type memPublisher struct {
	events []string
}

func (m *memPublisher) Publish(subject string, payload any) error {
	m.events = append(m.events, subject)
	return nil
}

func newTestLifecycle(store Store, pub Publisher) *Lifecycle {
	return NewLifecycle(store, pub, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRaiseCreatesActiveAlert(t *testing.T) {
	store := newMemAlertStore()
	pub := &memPublisher{}
	lc := newTestLifecycle(store, pub)

	alert, err := lc.Raise(context.Background(), "t1", "ANOMALY_DETECTED", anomaly.SeverityHigh, "High vibration: 12.00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alert.Status != storage.AlertStatusActive {
		t.Fatalf("expected ACTIVE, got %s", alert.Status)
	}
	if alert.ResolvedAt != nil {
		t.Fatalf("new alert must have no resolution time")
	}
	if alert.ID == "" || alert.AlertTime.IsZero() {
		t.Fatalf("alert missing id or creation time: %+v", alert)
	}
	if len(pub.events) != 1 || pub.events[0] != "alert.raised" {
		t.Fatalf("expected alert.raised event, got %v", pub.events)
	}
}

func TestResolveSetsTerminalState(t *testing.T) {
	store := newMemAlertStore()
	pub := &memPublisher{}
	lc := newTestLifecycle(store, pub)

	raised, err := lc.Raise(context.Background(), "t1", "ANOMALY_DETECTED", anomaly.SeverityMedium, "Low efficiency: 20.00%")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resolved, err := lc.Resolve(context.Background(), raised.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Status != storage.AlertStatusResolved {
		t.Fatalf("expected RESOLVED, got %s", resolved.Status)
	}
	if resolved.ResolvedAt == nil {
		t.Fatalf("expected resolution time to be set")
	}
	if len(pub.events) != 2 || pub.events[1] != "alert.resolved" {
		t.Fatalf("expected alert.resolved event, got %v", pub.events)
	}
}

func TestResolveUnknownAlert(t *testing.T) {
	lc := newTestLifecycle(newMemAlertStore(), nil)
	_, err := lc.Resolve(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveTwice(t *testing.T) {
	store := newMemAlertStore()
	lc := newTestLifecycle(store, nil)

	raised, err := lc.Raise(context.Background(), "t1", "ANOMALY_DETECTED", anomaly.SeverityMedium, "Low efficiency: 20.00%")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, err := lc.Resolve(context.Background(), raised.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = lc.Resolve(context.Background(), raised.ID)
	if !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
	// The stored resolution time is untouched by the second call.
	stored := store.alerts[raised.ID]
	if stored.ResolvedAt == nil || !stored.ResolvedAt.Equal(*first.ResolvedAt) {
		t.Fatalf("resolution time must not be overwritten")
	}
}
