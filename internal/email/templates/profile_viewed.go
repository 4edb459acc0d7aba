// internal/email/templates/profile_viewed.go
package templates

import (
	"html/template"
	"strings"
	"time"
)

var profileViewedTmpl = template.Must(template.New("profile_viewed").Parse(profileViewedHTML))

type ProfileViewedData struct {
	TalentName   string
	EmployerName string
	PublicID     string
	ViewedAt     string
	LogoURL      string
	Year         int
}

func RenderProfileViewedEmail(data ProfileViewedData) (string, error) {
	if data.Year == 0 {
		data.Year = time.Now().Year()
	}
	if data.LogoURL == "" {
		data.LogoURL = defaultLogoURL
	}
	if data.EmployerName == "" {
		data.EmployerName = "An employer"
	}
	var buf strings.Builder
	err := profileViewedTmpl.Execute(&buf, data)
	return buf.String(), err
}
