package alerts

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"turbine-monitor/internal/anomaly"
	"turbine-monitor/internal/bus"
	"turbine-monitor/internal/metrics"
	"turbine-monitor/internal/storage"
)

// ErrAlreadyResolved is returned when resolving an alert whose status is
// already RESOLVED. RESOLVED is terminal; the resolution time is never
// overwritten.
var ErrAlreadyResolved = errors.New("alert already resolved")

type Store interface {
	CreateAlert(ctx context.Context, alert storage.AlertRecord) error
	GetAlert(ctx context.Context, id string) (storage.AlertRecord, error)
	UpdateAlert(ctx context.Context, alert storage.AlertRecord) error
}

type Publisher interface {
	Publish(subject string, payload any) error
}

type Broadcaster interface {
	BroadcastAlert(alert storage.AlertRecord)
}

// Lifecycle is the sole writer of alert status and resolution time. Alerts
// are created ACTIVE; the only transition is ACTIVE -> RESOLVED.
type Lifecycle struct {
	store  Store
	bus    Publisher
	hub    Broadcaster
	obs    *metrics.Pipeline
	logger *slog.Logger
	now    func() time.Time
}

func NewLifecycle(store Store, bus Publisher, hub Broadcaster, obs *metrics.Pipeline, logger *slog.Logger) *Lifecycle {
	return &Lifecycle{
		store:  store,
		bus:    bus,
		hub:    hub,
		obs:    obs,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (l *Lifecycle) Raise(ctx context.Context, turbineID, alertType string, severity anomaly.Severity, message string) (storage.AlertRecord, error) {
	alert := storage.AlertRecord{
		ID:        uuid.NewString(),
		TurbineID: turbineID,
		AlertTime: l.now(),
		AlertType: alertType,
		Severity:  string(severity),
		Message:   message,
		Status:    storage.AlertStatusActive,
	}
	if err := l.store.CreateAlert(ctx, alert); err != nil {
		return storage.AlertRecord{}, err
	}
	l.obs.AlertRaised(alert.Severity)
	l.publish(bus.SubjectAlertRaised, alert)
	if l.hub != nil {
		l.hub.BroadcastAlert(alert)
	}
	l.logger.Info("alert raised",
		slog.String("alert", alert.ID),
		slog.String("turbine", turbineID),
		slog.String("severity", alert.Severity))
	return alert, nil
}

func (l *Lifecycle) Resolve(ctx context.Context, alertID string) (storage.AlertRecord, error) {
	alert, err := l.store.GetAlert(ctx, alertID)
	if err != nil {
		return storage.AlertRecord{}, err
	}
	if alert.Status == storage.AlertStatusResolved {
		return alert, ErrAlreadyResolved
	}
	resolvedAt := l.now()
	alert.Status = storage.AlertStatusResolved
	alert.ResolvedAt = &resolvedAt
	if err := l.store.UpdateAlert(ctx, alert); err != nil {
		return storage.AlertRecord{}, err
	}
	l.obs.AlertResolved()
	l.publish(bus.SubjectAlertResolved, alert)
	l.logger.Info("alert resolved", slog.String("alert", alert.ID))
	return alert, nil
}

func (l *Lifecycle) publish(subject string, alert storage.AlertRecord) {
	if l.bus == nil {
		return
	}
	if err := l.bus.Publish(subject, alertEvent(alert)); err != nil {
		l.logger.Error("failed to publish alert event",
			slog.String("subject", subject), slog.String("error", err.Error()))
	}
}

type AlertEvent struct {
	AlertID    string     `json:"alertId"`
	TurbineID  string     `json:"turbineId"`
	AlertType  string     `json:"alertType"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Status     string     `json:"status"`
	AlertTime  time.Time  `json:"alertTime"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
}

func alertEvent(alert storage.AlertRecord) AlertEvent {
	return AlertEvent{
		AlertID:    alert.ID,
		TurbineID:  alert.TurbineID,
		AlertType:  alert.AlertType,
		Severity:   alert.Severity,
		Message:    alert.Message,
		Status:     alert.Status,
		AlertTime:  alert.AlertTime,
		ResolvedAt: alert.ResolvedAt,
	}
}
