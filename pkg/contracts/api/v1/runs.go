// Package api contains the v1 HTTP contract of the analysis server. Handlers
// bind these types directly, so the validate tags are the authoritative
// request validation rules.
package api

// StartRunRequest is the body of POST /api/runs.
type StartRunRequest struct {
	Domain     string                 `json:"domain,omitempty" validate:"omitempty,min=2,max=64"`
	Format     string                 `json:"format,omitempty" validate:"omitempty,oneof=markdown html pdf docx"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// RunStartedResponse acknowledges an accepted run.
type RunStartedResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// DecisionRequest is the body of POST /api/runs/{id}/checkpoint.
type DecisionRequest struct {
	Action string                 `json:"action" validate:"required,oneof=accept adjust"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// DecisionResponse acknowledges a checkpoint decision.
type DecisionResponse struct {
	ID       string `json:"id"`
	Decision string `json:"decision"`
}
