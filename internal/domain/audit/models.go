package audit

import (
	"time"

	json "github.com/goccy/go-json"
)

const (
	ActionCreate     = "create"
	ActionUpdate     = "update"
	ActionSupersede  = "supersede"
	ActionSubmit     = "submit"
	ActionApprove    = "approve"
	ActionReject     = "reject"
	ActionAggregate  = "aggregate"
	ActionConvert    = "convert"
	ActionGenerate   = "generate"
	ActionTransition = "transition"
)

const (
	EntityBillingProfile = "billing_profile"
	EntityWeekly         = "weekly_timesheet"
	EntityBiWeekly       = "biweekly_timesheet"
	EntityMonthly        = "monthly_timesheet"
	EntityInvoice        = "invoice"
	EntityClient         = "client_company"
	EntityEndUser        = "end_user"
	EntitySettings       = "company_settings"
)

type Event struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

// Entry is what a caller records; Before and After are marshalled as JSON.
type Entry struct {
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	RequestID  string
	IP         string
	Before     any
	After      any
}

type Filter struct {
	Action     string
	EntityType string
	EntityID   string
	ActorUser  string
}
