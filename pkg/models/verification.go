// pkg/models/verification.go
package models

import (
	"fmt"
	"time"
)

const VerificationStatusViewed = "viewed"

// VerificationRecord is the append-only audit row written each time an
// employer resolves a talent by public identifier.
type VerificationRecord struct {
	ID             string    `json:"id" mapstructure:"-"`
	EmployerID     string    `json:"employerId" mapstructure:"employerId"`
	TalentID       string    `json:"talentId" mapstructure:"talentId"`
	TalentPublicID string    `json:"talentPublicId" mapstructure:"talentUID"`
	SearchedAt     time.Time `json:"searchedAt" mapstructure:"searchedAt"`
	Status         string    `json:"status" mapstructure:"status"`
	EmployerName   string    `json:"employerName,omitempty" mapstructure:"employerName"`
	TalentName     string    `json:"talentName,omitempty" mapstructure:"talentName"`
}

func (v *VerificationRecord) Document() map[string]interface{} {
	return map[string]interface{}{
		"employerId":   v.EmployerID,
		"talentId":     v.TalentID,
		"talentUID":    v.TalentPublicID,
		"searchedAt":   v.SearchedAt,
		"status":       v.Status,
		"employerName": v.EmployerName,
		"talentName":   v.TalentName,
	}
}

func DecodeVerification(id string, doc map[string]interface{}) (*VerificationRecord, error) {
	rec := &VerificationRecord{}
	if err := decodeDocument(doc, rec); err != nil {
		return nil, fmt.Errorf("decode verification %s: %w", id, err)
	}
	rec.ID = id
	return rec, nil
}
