package models

// BulkRecommendationRequest represents the parameters of a bulk regeneration run
type BulkRecommendationRequest struct {
	District string `json:"district,omitempty" query:"district" validate:"omitempty,max=100"`
	State    string `json:"state,omitempty" query:"state" validate:"omitempty,max=100"`
	Limit    int    `json:"limit,omitempty" query:"limit" validate:"min=0,max=1000"`
}

// BulkRecommendationResponse reports the outcome of a bulk regeneration run
type BulkRecommendationResponse struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`

	// Interrupted is set when the run was cancelled or timed out between claims
	Interrupted bool `json:"interrupted,omitempty" yaml:"interrupted,omitempty"`
}

// GenerateRecommendationsRequest is the optional body of a generate call
type GenerateRecommendationsRequest struct {
	ClaimID string `json:"claim_id" param:"id" validate:"required,uuid"`
}

// ExportRequest selects the claims included in a recommendation report
type ExportRequest struct {
	District string `query:"district" validate:"omitempty,max=100"`
	State    string `query:"state" validate:"omitempty,max=100"`
	Limit    int    `query:"limit" validate:"min=0,max=5000"`
}
