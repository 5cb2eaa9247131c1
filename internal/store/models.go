package store

import (
	"encoding/json"
	"strings"
	"time"
)

// User is an account that owns reports.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"size:255;uniqueIndex"`
	PasswordHash string `gorm:"size:255"`
	CreatedAt    time.Time
}

// Report is one persisted evaluation. UserID is nil for anonymous checks.
type Report struct {
	ID               string `gorm:"primaryKey;size:36"`
	UserID           *uint  `gorm:"index"`
	Name             string `gorm:"size:255"`
	Description      string `gorm:"type:text"`
	Category         string `gorm:"size:32;index"`
	Score            int
	ComplianceScore  float64
	ResultJSON       string `gorm:"type:text"`
	Digest           string `gorm:"size:64"`
	CatalogVersion   string `gorm:"size:32"`
	ProcessingTimeMs int64
	CreatedAt        time.Time `gorm:"index"`
}

// SetResult stores the evaluation payload as JSON.
func (r *Report) SetResult(result any) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	r.ResultJSON = string(payload)
	return nil
}

// Result decodes the stored payload into out.
func (r *Report) Result(out any) error {
	if strings.TrimSpace(r.ResultJSON) == "" {
		return nil
	}
	return json.Unmarshal([]byte(r.ResultJSON), out)
}

// OwnedBy reports whether userID owns the report.
func (r *Report) OwnedBy(userID uint) bool {
	return r.UserID != nil && *r.UserID == userID
}
