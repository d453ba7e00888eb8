package dto

import (
	"time"

	"github.com/deskline/helpdesk/internal/domain"
)

// SLAPolicyDTO is one SLA row, used for both requests and responses.
type SLAPolicyDTO struct {
	Priority        domain.TicketPriority `json:"priority"`
	ResponseHours   int                   `json:"response_hours"`
	ResolutionHours int                   `json:"resolution_hours"`
}

// ReplaceSLARequest payload.
type ReplaceSLARequest struct {
	Policies []SLAPolicyDTO `json:"policies"`
}

// CategoryCountResponse is one bar of the category chart.
type CategoryCountResponse struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// AgentPerformanceResponse is one row of the agent table.
type AgentPerformanceResponse struct {
	AgentID  string `json:"agent_id"`
	Name     string `json:"name"`
	Assigned int    `json:"assigned"`
	Resolved int    `json:"resolved"`
}

// DashboardResponse is the computed dashboard.
type DashboardResponse struct {
	WindowDays         int                        `json:"window_days"`
	Since              time.Time                  `json:"since"`
	GeneratedAt        time.Time                  `json:"generated_at"`
	Total              int                        `json:"total"`
	Open               int                        `json:"open"`
	Pending            int                        `json:"pending"`
	Resolved           int                        `json:"resolved"`
	Urgent             int                        `json:"urgent"`
	ByCategory         []CategoryCountResponse    `json:"by_category"`
	Agents             []AgentPerformanceResponse `json:"agents"`
	AvgResolutionHours float64                    `json:"avg_resolution_hours"`
	ResolutionRate     float64                    `json:"resolution_rate"`
}
