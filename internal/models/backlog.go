package models

import "time"

// BacklogTicket - заявка-кандидат на размещение в календаре сотрудника.
type BacklogTicket struct {
	Ticket               *Ticket    `json:"ticket"`
	Category             *Category  `json:"category"`
	Priority             string     `json:"priority"`
	EstimatedTimeMinutes int        `json:"estimated_time_minutes"`
	CreatedAt            time.Time  `json:"created_at"`
	ScheduledDate        *time.Time `json:"scheduled_date,omitempty"`
}

// BacklogFilter ограничивает выборку бэклога.
type BacklogFilter struct {
	Statuses []string
	Limit    int
	// ScheduledFrom - с какого дня учитывать уже запланированные назначения.
	ScheduledFrom time.Time
	// ExcludeScheduledFrom - если задано, заявки с назначением на этот день или позже
	// не попадают в выборку (отсекаются до Limit).
	ExcludeScheduledFrom time.Time
}

type Backlog struct {
	Tickets []*BacklogTicket `json:"tickets"`
	Total   int64            `json:"total"`
}
