package models

import "time"

// Audit actions
const (
	ActionGenerateRecommendations     = "generate_dss_recommendations"
	ActionBulkGenerateRecommendations = "bulk_generate_dss_recommendations"
	ActionExportRecommendations       = "export_dss_recommendations"
)

// AuditEntry is a row of the activity log
type AuditEntry struct {
	ID        int64                  `json:"id"`
	UserID    string                 `json:"user_id,omitempty"`
	Action    string                 `json:"action"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}
