package storage

import "time"

const (
	TurbineStatusActive      = "ACTIVE"
	TurbineStatusMaintenance = "MAINTENANCE"

	AlertStatusActive   = "ACTIVE"
	AlertStatusResolved = "RESOLVED"
)

type FarmRecord struct {
	ID        string
	Name      string
	Region    string
	Location  string
	CreatedAt time.Time
}

type TurbineRecord struct {
	ID          string
	Name        string
	FarmID      string
	RatedPower  float64
	Status      string
	InstalledAt time.Time
	UpdatedAt   time.Time
}

type TelemetryRecord struct {
	ID          int64
	TurbineID   string
	Timestamp   time.Time
	WindSpeed   float64
	PowerOutput float64
	RotorSpeed  float64
	Temperature float64
	Vibration   float64
	Efficiency  float64
	Aggregated  bool
}

type AggregateRecord struct {
	ID              string
	TurbineID       string
	WindowStart     time.Time
	AvgWindSpeed    float64
	AvgPowerOutput  float64
	AvgRotorSpeed   float64
	AvgTemperature  float64
	AvgVibration    float64
	AvgEfficiency   float64
	TotalGeneration float64
	DataPointCount  int
	HasAnomaly      bool
	CreatedAt       time.Time
}

type AlertRecord struct {
	ID         string
	TurbineID  string
	AlertTime  time.Time
	AlertType  string
	Severity   string
	Message    string
	Status     string
	ResolvedAt *time.Time
}

// AlertFilter narrows active-alert queries. Zero-value fields are ignored.
type AlertFilter struct {
	TurbineID string
	Region    string
	Farm      string
	Page      int
	Size      int
}
