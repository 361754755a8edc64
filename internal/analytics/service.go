package analytics

import (
	"context"
	"sort"
	"time"

	"turbine-monitor/internal/storage"
)

const allFarmsLabel = "All Farms"

// Source provides the aggregate rows analytics rolls up. Satisfied by
// *storage.Repository.
type Source interface {
	AggregatesByTurbine(ctx context.Context, turbineID string, start, end time.Time) ([]storage.AggregateRecord, error)
	AggregatesWithFarm(ctx context.Context, start, end time.Time, farm, region string) ([]storage.FarmAggregate, error)
}

// TurbineDaily summarizes one turbine over one calendar day.
type TurbineDaily struct {
	Date            string  `json:"date"`
	TotalGeneration float64 `json:"totalGeneration"`
	AvgEfficiency   float64 `json:"avgEfficiency"`
	AvgPowerOutput  float64 `json:"avgPowerOutput"`
	HourCount       int     `json:"hourCount"`
}

// TurbinePerformance summarizes one turbine over an inclusive date range.
type TurbinePerformance struct {
	StartDate       string  `json:"startDate"`
	EndDate         string  `json:"endDate"`
	TotalGeneration float64 `json:"totalGeneration"`
	AvgEfficiency   float64 `json:"avgEfficiency"`
	AvgPowerOutput  float64 `json:"avgPowerOutput"`
	DataPoints      int     `json:"dataPoints"`
}

// DailyMetric is one day of one farm. PeakPowerKW carries the summed hourly
// mean power converted from MW to kW, matching the dashboard's expectation.
type DailyMetric struct {
	Date            string  `json:"date"`
	Farm            string  `json:"farm"`
	TotalGeneration float64 `json:"totalGeneration"`
	AvgEfficiency   float64 `json:"avgEfficiency"`
	HourCount       int     `json:"hourCount"`
	PeakPowerKW     float64 `json:"peakPowerKw"`
}

// GraphPoint is one day of the fleet-wide series; days without aggregates
// appear with zero values so the series has no gaps.
type GraphPoint struct {
	Date            string  `json:"date"`
	TotalGeneration float64 `json:"totalGeneration"`
	AvgEfficiency   float64 `json:"avgEfficiency"`
}

// Service answers reporting queries by rolling hourly aggregates up to days.
type Service struct {
	source Source
}

func NewService(source Source) *Service {
	return &Service{source: source}
}

// TurbineDaily rolls one turbine's aggregates for the calendar day of date
// (UTC) into a single summary. A day without aggregates yields zeros.
func (s *Service) TurbineDaily(ctx context.Context, turbineID string, date time.Time) (TurbineDaily, error) {
	dayStart := date.UTC().Truncate(24 * time.Hour)
	aggs, err := s.source.AggregatesByTurbine(ctx, turbineID, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return TurbineDaily{}, err
	}
	result := TurbineDaily{Date: dayStart.Format("2006-01-02")}
	if len(aggs) == 0 {
		return result, nil
	}
	var sumEff, sumPower float64
	for _, agg := range aggs {
		result.TotalGeneration += agg.TotalGeneration
		sumEff += agg.AvgEfficiency
		sumPower += agg.AvgPowerOutput
	}
	result.AvgEfficiency = sumEff / float64(len(aggs))
	result.AvgPowerOutput = sumPower / float64(len(aggs))
	result.HourCount = len(aggs)
	return result, nil
}

// TurbinePerformance rolls one turbine's aggregates over [startDate, endDate]
// (both calendar days, endDate inclusive) into a single summary.
func (s *Service) TurbinePerformance(ctx context.Context, turbineID string, startDate, endDate time.Time) (TurbinePerformance, error) {
	start := startDate.UTC().Truncate(24 * time.Hour)
	end := endDate.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	aggs, err := s.source.AggregatesByTurbine(ctx, turbineID, start, end)
	if err != nil {
		return TurbinePerformance{}, err
	}
	result := TurbinePerformance{
		StartDate: start.Format("2006-01-02"),
		EndDate:   endDate.UTC().Truncate(24 * time.Hour).Format("2006-01-02"),
	}
	if len(aggs) == 0 {
		return result, nil
	}
	var sumEff, sumPower float64
	for _, agg := range aggs {
		result.TotalGeneration += agg.TotalGeneration
		sumEff += agg.AvgEfficiency
		sumPower += agg.AvgPowerOutput
	}
	result.AvgEfficiency = sumEff / float64(len(aggs))
	result.AvgPowerOutput = sumPower / float64(len(aggs))
	result.DataPoints = len(aggs)
	return result, nil
}

type dailyFarmAcc struct {
	totalGeneration float64
	sumEfficiency   float64
	count           int
	sumPowerKW      float64
}

// DailyMetrics groups aggregates in [start, end) by day and farm. Each day
// yields one "All Farms" row followed by the individual farms in name order;
// days are emitted in increasing order.
func (s *Service) DailyMetrics(ctx context.Context, start, end time.Time, farm, region string) ([]DailyMetric, error) {
	aggs, err := s.source.AggregatesWithFarm(ctx, start, end, farm, region)
	if err != nil {
		return nil, err
	}

	byDay := map[string]map[string]*dailyFarmAcc{}
	for _, agg := range aggs {
		day := agg.WindowStart.UTC().Format("2006-01-02")
		farms, ok := byDay[day]
		if !ok {
			farms = map[string]*dailyFarmAcc{}
			byDay[day] = farms
		}
		acc, ok := farms[agg.FarmName]
		if !ok {
			acc = &dailyFarmAcc{}
			farms[agg.FarmName] = acc
		}
		acc.totalGeneration += agg.TotalGeneration
		acc.sumEfficiency += agg.AvgEfficiency
		acc.count++
		acc.sumPowerKW += agg.AvgPowerOutput * 1000
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	result := []DailyMetric{}
	for _, day := range days {
		farms := byDay[day]
		names := make([]string, 0, len(farms))
		fleet := dailyFarmAcc{}
		for name, acc := range farms {
			names = append(names, name)
			fleet.totalGeneration += acc.totalGeneration
			fleet.sumEfficiency += acc.sumEfficiency
			fleet.count += acc.count
			fleet.sumPowerKW += acc.sumPowerKW
		}
		sort.Strings(names)
		result = append(result, metricRow(day, allFarmsLabel, fleet))
		for _, name := range names {
			result = append(result, metricRow(day, name, *farms[name]))
		}
	}
	return result, nil
}

func metricRow(day, farm string, acc dailyFarmAcc) DailyMetric {
	row := DailyMetric{
		Date:            day,
		Farm:            farm,
		TotalGeneration: acc.totalGeneration,
		HourCount:       acc.count,
		PeakPowerKW:     acc.sumPowerKW,
	}
	if acc.count > 0 {
		row.AvgEfficiency = acc.sumEfficiency / float64(acc.count)
	}
	return row
}

// GraphData returns the fleet-wide daily series over [start, end), one point
// per calendar day, zero-filled where no aggregates exist.
func (s *Service) GraphData(ctx context.Context, start, end time.Time, farm, region string) ([]GraphPoint, error) {
	metrics, err := s.DailyMetrics(ctx, start, end, farm, region)
	if err != nil {
		return nil, err
	}
	fleet := map[string]GraphPoint{}
	for _, metric := range metrics {
		if metric.Farm == allFarmsLabel {
			fleet[metric.Date] = GraphPoint{
				Date:            metric.Date,
				TotalGeneration: metric.TotalGeneration,
				AvgEfficiency:   metric.AvgEfficiency,
			}
		}
	}

	result := []GraphPoint{}
	lastDay := end.UTC().Add(-time.Nanosecond).Truncate(24 * time.Hour)
	for day := start.UTC().Truncate(24 * time.Hour); !day.After(lastDay); day = day.Add(24 * time.Hour) {
		key := day.Format("2006-01-02")
		if point, ok := fleet[key]; ok {
			result = append(result, point)
			continue
		}
		result = append(result, GraphPoint{Date: key})
	}
	return result, nil
}
