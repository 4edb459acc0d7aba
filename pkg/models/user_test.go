package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTalentDocumentUsesStoredFieldNames(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	p := &Profile{Talent: &TalentProfile{
		Principal:  Principal{UID: "u1", Email: "a@b.co", Role: RoleTalent, CreatedAt: created, UpdatedAt: created},
		PublicID:   "ABCDEF123456",
		FullName:   "Ada Obi",
		Profession: "Nurse",
	}}

	doc, err := p.Document()
	require.NoError(t, err)
	assert.Equal(t, "ABCDEF123456", doc["talentUID"])
	assert.Equal(t, "talent", doc["role"])
	assert.Equal(t, created, doc["createdAt"])
	assert.NotContains(t, doc, "phone")
	assert.NotContains(t, doc, "publicId")
}

func TestDecodeProfileFromNativeValues(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	doc := map[string]interface{}{
		"email":      "a@b.co",
		"role":       "talent",
		"createdAt":  created,
		"updatedAt":  created,
		"talentUID":  "ABCDEF123456",
		"fullName":   "Ada Obi",
		"profession": "Nurse",
		"verified":   true,
		"verificationStatus": map[string]interface{}{
			"overall": true,
		},
		"education": []interface{}{
			map[string]interface{}{"degree": "BSc", "institution": "UNILAG", "year": int64(2019)},
		},
	}

	p, err := DecodeProfile("u1", doc)
	require.NoError(t, err)
	require.NotNil(t, p.Talent)
	assert.Equal(t, "u1", p.UID())
	assert.Equal(t, RoleTalent, p.Role())
	assert.Equal(t, created, p.Talent.CreatedAt)
	assert.True(t, p.Talent.VerificationStatus.Overall)
	assert.Equal(t, 2019, p.Talent.Education[0].Year)
}

func TestDecodeProfileFromJSONValues(t *testing.T) {
	// shape returned by the postgres jsonb backend
	doc := map[string]interface{}{
		"uid":         "e1",
		"email":       "hr@acme.co",
		"role":        "employer",
		"createdAt":   "2024-03-01T10:00:00.000000000Z",
		"companyName": "Acme",
		"industry":    "Health",
		"subscription": map[string]interface{}{
			"plan":              "free",
			"searchesRemaining": float64(3),
			"searchesUsed":      float64(0),
		},
	}

	p, err := DecodeProfile("e1", doc)
	require.NoError(t, err)
	require.NotNil(t, p.Employer)
	assert.Equal(t, 3, p.Employer.Subscription.SearchesRemaining)
	assert.Equal(t, 2024, p.Employer.CreatedAt.Year())
}

func TestDecodeProfileRejectsUnknownRole(t *testing.T) {
	_, err := DecodeProfile("x", map[string]interface{}{"role": "guest"})
	assert.Error(t, err)
}

func TestProfileJSONFlattensVariant(t *testing.T) {
	p := Profile{Employer: &EmployerProfile{
		Principal:    Principal{UID: "e1", Role: RoleEmployer},
		CompanyName:  "Acme",
		Subscription: DefaultSubscription(),
	}}
	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "employer", out["role"])
	assert.Equal(t, "Acme", out["companyName"])
	assert.Equal(t, "free", out["subscription"].(map[string]interface{})["plan"])
}

func TestTalentJSONHidesDeviceTokens(t *testing.T) {
	p := Profile{Talent: &TalentProfile{
		Principal:    Principal{UID: "u1", Role: RoleTalent},
		PublicID:     "ABCDEF123456",
		DeviceTokens: []string{"secret"},
	}}
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.Contains(t, string(raw), `"publicId":"ABCDEF123456"`)
}
