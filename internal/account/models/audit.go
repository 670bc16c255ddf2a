package models

import "time"

// AuditLogEntry is one append-only row describing an attempted mutating action.
type AuditLogEntry struct {
	ActorName        string    `json:"actor_name"`
	TargetIdentifier string    `json:"target_identifier"`
	ServiceLabel     string    `json:"service_label"`
	ActionLabel      string    `json:"action_label"`
	SourceIP         string    `json:"source_ip"`
	Timestamp        time.Time `json:"timestamp"`
}
