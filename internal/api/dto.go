package api

import (
	"time"

	"ai-risk-eval/backend/internal/catalog"
	"ai-risk-eval/backend/internal/scoring"
	"ai-risk-eval/backend/internal/store"
)

// CredentialsRequest is the body of /api/register and /api/login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries an issued bearer token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// CheckRequest is the body of /api/check. Description is a pointer so a
// missing field can be told apart from an empty one.
type CheckRequest struct {
	Description  *string         `json:"description"`
	Name         string          `json:"name"`
	Capabilities map[string]bool `json:"capabilities"`
	Flags        []string        `json:"flags"`
	ModelCard    string          `json:"model_card"`
}

// CheckResponse is returned for every evaluated check. ReportID and
// DownloadURL are empty when the report could not be stored.
type CheckResponse struct {
	ReportID    string                   `json:"report_id,omitempty"`
	Analysis    scoring.EvaluationResult `json:"analysis"`
	DownloadURL string                   `json:"download_url,omitempty"`
	Persisted   bool                     `json:"persisted"`
}

// ReportDTO is the API representation for a persisted report.
type ReportDTO struct {
	ID               string                    `json:"id"`
	Name             string                    `json:"name"`
	Description      string                    `json:"description"`
	RiskCategory     string                    `json:"risk_category"`
	RiskScore        int                       `json:"risk_score"`
	ComplianceScore  float64                   `json:"compliance_score"`
	Digest           string                    `json:"digest"`
	CatalogVersion   string                    `json:"catalog_version"`
	ProcessingTimeMs int64                     `json:"processing_time_ms"`
	CreatedAt        time.Time                 `json:"created_at"`
	DownloadURL      string                    `json:"download_url"`
	Analysis         *scoring.EvaluationResult `json:"analysis,omitempty"`
}

// ReportsResponse lists reports with the caller's total.
type ReportsResponse struct {
	Items []ReportDTO `json:"items"`
	Total int64       `json:"total"`
}

// CatalogResponse summarises the loaded rule catalog.
type CatalogResponse struct {
	Name        string                   `json:"name"`
	Version     string                   `json:"version"`
	Fingerprint string                   `json:"fingerprint"`
	Policy      catalog.Policy           `json:"policy"`
	Rules       map[catalog.Category]int `json:"rules"`
}

func downloadURL(id string) string {
	return "/api/download/" + id
}

// ReportFromModel converts a stored report. The analysis is decoded only
// when withAnalysis is set.
func ReportFromModel(r store.Report, withAnalysis bool) (ReportDTO, error) {
	dto := ReportDTO{
		ID:               r.ID,
		Name:             r.Name,
		Description:      r.Description,
		RiskCategory:     r.Category,
		RiskScore:        r.Score,
		ComplianceScore:  r.ComplianceScore,
		Digest:           r.Digest,
		CatalogVersion:   r.CatalogVersion,
		ProcessingTimeMs: r.ProcessingTimeMs,
		CreatedAt:        r.CreatedAt,
		DownloadURL:      downloadURL(r.ID),
	}
	if withAnalysis {
		var result scoring.EvaluationResult
		if err := r.Result(&result); err != nil {
			return ReportDTO{}, err
		}
		dto.Analysis = &result
	}
	return dto, nil
}
