package anomaly

import (
	"fmt"
	"strings"
)

type Severity string

const (
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Rank orders severities: MEDIUM < HIGH < CRITICAL.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// Thresholds holds the operating limits a windowed aggregate is checked
// against. All limits apply to the window means, not to raw samples.
type Thresholds struct {
	EfficiencyLow   float64 `yaml:"efficiency_low"`
	EfficiencyHigh  float64 `yaml:"efficiency_high"`
	Vibration       float64 `yaml:"vibration"`
	TemperatureHigh float64 `yaml:"temperature_high"`
	TemperatureLow  float64 `yaml:"temperature_low"`
	PowerOutputLow  float64 `yaml:"power_output_low"`
	WindSpeedMin    float64 `yaml:"wind_speed_min"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		EfficiencyLow:   30.0,
		EfficiencyHigh:  95.0,
		Vibration:       10.0,
		TemperatureHigh: 80.0,
		TemperatureLow:  -20.0,
		PowerOutputLow:  0.1,
		WindSpeedMin:    5.0,
	}
}

// WindowMeans carries the six mean values of one aggregate.
type WindowMeans struct {
	WindSpeed   float64
	PowerOutput float64
	RotorSpeed  float64
	Temperature float64
	Vibration   float64
	Efficiency  float64
}

type Verdict struct {
	HasAnomaly bool
	Message    string
	Severity   Severity
}

type Detector struct {
	thresholds Thresholds
}

func NewDetector(thresholds Thresholds) *Detector {
	return &Detector{thresholds: thresholds}
}

// Evaluate checks one window's means against the thresholds. It is a pure
// function: no state, no side effects.
func (d *Detector) Evaluate(means WindowMeans) Verdict {
	t := d.thresholds
	breaches := []string{}

	if means.Efficiency < t.EfficiencyLow {
		breaches = append(breaches, fmt.Sprintf("Low efficiency: %.2f%%", means.Efficiency))
	}
	if means.Efficiency > t.EfficiencyHigh {
		breaches = append(breaches, fmt.Sprintf("Abnormally high efficiency: %.2f%%", means.Efficiency))
	}
	if means.Vibration > t.Vibration {
		breaches = append(breaches, fmt.Sprintf("High vibration: %.2f", means.Vibration))
	}
	if means.Temperature > t.TemperatureHigh {
		breaches = append(breaches, fmt.Sprintf("High temperature: %.2f°C", means.Temperature))
	}
	if means.Temperature < t.TemperatureLow {
		breaches = append(breaches, fmt.Sprintf("Low temperature: %.2f°C", means.Temperature))
	}
	if means.PowerOutput < t.PowerOutputLow && means.WindSpeed > t.WindSpeedMin {
		breaches = append(breaches, "Low power output despite sufficient wind")
	}

	if len(breaches) == 0 {
		return Verdict{}
	}
	return Verdict{
		HasAnomaly: true,
		Message:    strings.Join(breaches, "; "),
		Severity:   d.severity(means),
	}
}

// severity counts critical-tier breaches, judged with stricter limits on the
// same metrics: two or more is CRITICAL, one is HIGH, none is MEDIUM.
func (d *Detector) severity(means WindowMeans) Severity {
	t := d.thresholds
	criticalCount := 0
	if means.Vibration > t.Vibration*1.5 {
		criticalCount++
	}
	if means.Temperature > t.TemperatureHigh+10 {
		criticalCount++
	}
	if means.Efficiency < t.EfficiencyLow/2 {
		criticalCount++
	}
	if criticalCount >= 2 {
		return SeverityCritical
	}
	if criticalCount >= 1 {
		return SeverityHigh
	}
	return SeverityMedium
}
