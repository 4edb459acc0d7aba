// pkg/models/user.go
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type Role string

const (
	RoleTalent   Role = "talent"
	RoleEmployer Role = "employer"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleTalent, RoleEmployer, RoleAdmin:
		return true
	}
	return false
}

// Principal is the base identity record stored under users/{uid}.
type Principal struct {
	UID         string    `json:"uid" mapstructure:"uid"`
	Email       string    `json:"email" mapstructure:"email"`
	Role        Role      `json:"role" mapstructure:"role"`
	CreatedAt   time.Time `json:"createdAt" mapstructure:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" mapstructure:"updatedAt"`
	DisplayName string    `json:"displayName,omitempty" mapstructure:"displayName"`
	PhotoURL    string    `json:"photoURL,omitempty" mapstructure:"photoURL"`
}

type VerificationStatus struct {
	PersonalInfo bool `json:"personalInfo" mapstructure:"personalInfo"`
	Education    bool `json:"education" mapstructure:"education"`
	Experience   bool `json:"experience" mapstructure:"experience"`
	Documents    bool `json:"documents" mapstructure:"documents"`
	Overall      bool `json:"overall" mapstructure:"overall"`
}

type Experience struct {
	Title       string `json:"title" mapstructure:"title"`
	Company     string `json:"company" mapstructure:"company"`
	StartDate   string `json:"startDate" mapstructure:"startDate"`
	EndDate     string `json:"endDate,omitempty" mapstructure:"endDate"`
	Description string `json:"description,omitempty" mapstructure:"description"`
}

type Education struct {
	Degree      string `json:"degree" mapstructure:"degree"`
	Institution string `json:"institution" mapstructure:"institution"`
	Year        int    `json:"year" mapstructure:"year"`
}

// TalentProfile is the role=talent variant. PublicID is persisted as talentUID.
type TalentProfile struct {
	Principal          `mapstructure:",squash"`
	PublicID           string             `json:"publicId" mapstructure:"talentUID"`
	FullName           string             `json:"fullName" mapstructure:"fullName"`
	Profession         string             `json:"profession" mapstructure:"profession"`
	Phone              string             `json:"phone,omitempty" mapstructure:"phone"`
	Verified           bool               `json:"verified" mapstructure:"verified"`
	VerificationStatus VerificationStatus `json:"verificationStatus" mapstructure:"verificationStatus"`
	Bio                string             `json:"bio,omitempty" mapstructure:"bio"`
	Skills             []string           `json:"skills,omitempty" mapstructure:"skills"`
	Experience         []Experience       `json:"experience,omitempty" mapstructure:"experience"`
	Education          []Education        `json:"education,omitempty" mapstructure:"education"`
	DeviceTokens       []string           `json:"-" mapstructure:"deviceTokens"`
}

type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

type Subscription struct {
	Plan              Plan       `json:"plan" mapstructure:"plan"`
	SearchesRemaining int        `json:"searchesRemaining" mapstructure:"searchesRemaining"`
	SearchesUsed      int        `json:"searchesUsed" mapstructure:"searchesUsed"`
	ValidUntil        *time.Time `json:"validUntil,omitempty" mapstructure:"validUntil"`
}

// EmployerProfile is the role=employer variant.
type EmployerProfile struct {
	Principal     `mapstructure:",squash"`
	CompanyName   string       `json:"companyName" mapstructure:"companyName"`
	Industry      string       `json:"industry" mapstructure:"industry"`
	EmployeeCount string       `json:"employeeCount,omitempty" mapstructure:"employeeCount"`
	Phone         string       `json:"phone,omitempty" mapstructure:"phone"`
	Subscription  Subscription `json:"subscription" mapstructure:"subscription"`
}

// Profile is the role-discriminated document under users/{uid}. Exactly one
// of the variant pointers is set.
type Profile struct {
	Talent   *TalentProfile
	Employer *EmployerProfile
	Admin    *Principal
}

func (p *Profile) Principal() *Principal {
	switch {
	case p == nil:
		return nil
	case p.Talent != nil:
		return &p.Talent.Principal
	case p.Employer != nil:
		return &p.Employer.Principal
	default:
		return p.Admin
	}
}

func (p *Profile) Role() Role {
	if base := p.Principal(); base != nil {
		return base.Role
	}
	return ""
}

func (p *Profile) UID() string {
	if base := p.Principal(); base != nil {
		return base.UID
	}
	return ""
}

func (p Profile) MarshalJSON() ([]byte, error) {
	switch {
	case p.Talent != nil:
		return json.Marshal(p.Talent)
	case p.Employer != nil:
		return json.Marshal(p.Employer)
	case p.Admin != nil:
		return json.Marshal(p.Admin)
	}
	return []byte("null"), nil
}

// Document flattens the profile into the persisted field layout.
func (p *Profile) Document() (map[string]interface{}, error) {
	switch {
	case p == nil:
		return nil, fmt.Errorf("nil profile")
	case p.Talent != nil:
		return p.Talent.document(), nil
	case p.Employer != nil:
		return p.Employer.document(), nil
	case p.Admin != nil:
		return p.Admin.document(), nil
	}
	return nil, fmt.Errorf("profile has no variant set")
}

func (b *Principal) document() map[string]interface{} {
	doc := map[string]interface{}{
		"uid":       b.UID,
		"email":     b.Email,
		"role":      string(b.Role),
		"createdAt": b.CreatedAt,
		"updatedAt": b.UpdatedAt,
	}
	putString(doc, "displayName", b.DisplayName)
	putString(doc, "photoURL", b.PhotoURL)
	return doc
}

func (t *TalentProfile) document() map[string]interface{} {
	doc := t.Principal.document()
	doc["talentUID"] = t.PublicID
	doc["fullName"] = t.FullName
	doc["profession"] = t.Profession
	doc["verified"] = t.Verified
	doc["verificationStatus"] = map[string]interface{}{
		"personalInfo": t.VerificationStatus.PersonalInfo,
		"education":    t.VerificationStatus.Education,
		"experience":   t.VerificationStatus.Experience,
		"documents":    t.VerificationStatus.Documents,
		"overall":      t.VerificationStatus.Overall,
	}
	putString(doc, "phone", t.Phone)
	putString(doc, "bio", t.Bio)
	if len(t.Skills) > 0 {
		doc["skills"] = stringsToAny(t.Skills)
	}
	if len(t.Experience) > 0 {
		items := make([]interface{}, 0, len(t.Experience))
		for _, e := range t.Experience {
			item := map[string]interface{}{
				"title":     e.Title,
				"company":   e.Company,
				"startDate": e.StartDate,
			}
			putString(item, "endDate", e.EndDate)
			putString(item, "description", e.Description)
			items = append(items, item)
		}
		doc["experience"] = items
	}
	if len(t.Education) > 0 {
		items := make([]interface{}, 0, len(t.Education))
		for _, e := range t.Education {
			items = append(items, map[string]interface{}{
				"degree":      e.Degree,
				"institution": e.Institution,
				"year":        e.Year,
			})
		}
		doc["education"] = items
	}
	if len(t.DeviceTokens) > 0 {
		doc["deviceTokens"] = stringsToAny(t.DeviceTokens)
	}
	return doc
}

func (e *EmployerProfile) document() map[string]interface{} {
	doc := e.Principal.document()
	doc["companyName"] = e.CompanyName
	doc["industry"] = e.Industry
	putString(doc, "employeeCount", e.EmployeeCount)
	putString(doc, "phone", e.Phone)
	sub := map[string]interface{}{
		"plan":              string(e.Subscription.Plan),
		"searchesRemaining": e.Subscription.SearchesRemaining,
		"searchesUsed":      e.Subscription.SearchesUsed,
	}
	if e.Subscription.ValidUntil != nil {
		sub["validUntil"] = *e.Subscription.ValidUntil
	}
	doc["subscription"] = sub
	return doc
}

// DecodeProfile turns a users/{uid} document into a Profile, branching on
// the role field. Documents written by older clients without a uid field get
// it from the document id.
func DecodeProfile(id string, doc map[string]interface{}) (*Profile, error) {
	role, _ := doc["role"].(string)
	p := &Profile{}
	var err error
	switch Role(role) {
	case RoleTalent:
		p.Talent = &TalentProfile{}
		err = decodeDocument(doc, p.Talent)
	case RoleEmployer:
		p.Employer = &EmployerProfile{}
		err = decodeDocument(doc, p.Employer)
	case RoleAdmin:
		p.Admin = &Principal{}
		err = decodeDocument(doc, p.Admin)
	default:
		return nil, fmt.Errorf("document %s has unknown role %q", id, role)
	}
	if err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", id, err)
	}
	if base := p.Principal(); base.UID == "" {
		base.UID = id
	}
	return p, nil
}

func putString(doc map[string]interface{}, key, value string) {
	if value != "" {
		doc[key] = value
	}
}

func stringsToAny(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
