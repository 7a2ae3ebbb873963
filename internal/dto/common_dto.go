package dto

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}
