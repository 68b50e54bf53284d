package service

import "helpdesk-scheduler/internal/config"

// CategoryEfficiency - эффективность сотрудника по одной категории.
// Weight - число заявок категории в бэклоге сотрудника.
type CategoryEfficiency struct {
	CategoryID               string
	Efficiency               float64
	DefaultResolutionMinutes int
	Weight                   float64
}

// EfficiencyAggregator сводит эффективность по нескольким категориям
// в общий коэффициент и среднее время решения заявки.
type EfficiencyAggregator interface {
	Aggregate(items []CategoryEfficiency) (efficiency float64, averageResolutionMinutes float64)
}

// SimpleAverage - невзвешенное среднее по категориям.
type SimpleAverage struct{}

func (SimpleAverage) Aggregate(items []CategoryEfficiency) (float64, float64) {
	if len(items) == 0 {
		return 0, 0
	}

	var efficiency, resolution float64
	for _, item := range items {
		efficiency += item.Efficiency
		resolution += float64(item.DefaultResolutionMinutes)
	}

	n := float64(len(items))
	return efficiency / n, resolution / n
}

// BacklogWeighted взвешивает категории по объему бэклога.
// Если бэклог пуст, сводится к простому среднему.
type BacklogWeighted struct{}

func (BacklogWeighted) Aggregate(items []CategoryEfficiency) (float64, float64) {
	var totalWeight float64
	for _, item := range items {
		if item.Weight > 0 {
			totalWeight += item.Weight
		}
	}
	if totalWeight == 0 {
		return SimpleAverage{}.Aggregate(items)
	}

	var efficiency, resolution float64
	for _, item := range items {
		if item.Weight <= 0 {
			continue
		}
		efficiency += item.Efficiency * item.Weight
		resolution += float64(item.DefaultResolutionMinutes) * item.Weight
	}

	return efficiency / totalWeight, resolution / totalWeight
}

// NewEfficiencyAggregator выбирает агрегатор по имени из конфигурации.
func NewEfficiencyAggregator(name string) EfficiencyAggregator {
	if name == config.AggregationBacklogWeighted {
		return BacklogWeighted{}
	}
	return SimpleAverage{}
}
