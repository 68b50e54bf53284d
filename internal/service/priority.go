package service

import (
	"sort"

	"helpdesk-scheduler/internal/config"
	"helpdesk-scheduler/internal/models"
)

// PriorityPolicy переводит числовой приоритет назначения в метку для отображения
// и обратно. Таблица порогов отсортирована по возрастанию Min.
type PriorityPolicy struct {
	thresholds   []config.PriorityThreshold
	defaultLabel string
}

// DefaultPriorityThresholds - пороги по умолчанию.
var DefaultPriorityThresholds = []config.PriorityThreshold{
	{Min: 0, Label: models.TicketPriorityLow},
	{Min: 25, Label: models.TicketPriorityMedium},
	{Min: 50, Label: models.TicketPriorityHigh},
	{Min: 75, Label: models.TicketPriorityUrgent},
}

// NewPriorityPolicy создает политику; defaultLabel используется для пустого приоритета.
func NewPriorityPolicy(thresholds []config.PriorityThreshold, defaultLabel string) *PriorityPolicy {
	if len(thresholds) == 0 {
		thresholds = DefaultPriorityThresholds
	}

	sorted := make([]config.PriorityThreshold, len(thresholds))
	copy(sorted, thresholds)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Min < sorted[j].Min
	})

	return &PriorityPolicy{thresholds: sorted, defaultLabel: defaultLabel}
}

// Label возвращает метку для приоритета: последний порог, не превышающий значение.
func (p *PriorityPolicy) Label(priority *int) string {
	if priority == nil {
		return p.defaultLabel
	}

	label := p.thresholds[0].Label
	for _, t := range p.thresholds {
		if *priority < t.Min {
			break
		}
		label = t.Label
	}
	return label
}

// Rank возвращает числовой приоритет для метки (нижняя граница ее порога).
// Для неизвестной метки - nil.
func (p *PriorityPolicy) Rank(label string) *int {
	for _, t := range p.thresholds {
		if t.Label == label {
			value := t.Min
			return &value
		}
	}
	return nil
}
