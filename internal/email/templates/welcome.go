// internal/email/templates/welcome.go
package templates

import (
	"html/template"
	"strings"
	"time"
)

var welcomeTmpl = template.Must(template.New("welcome").Parse(welcomeHTML))

type WelcomeData struct {
	Name     string
	Role     string // "talent" or "employer"
	PublicID string // talents only
	HomeURL  string
	LogoURL  string
	Year     int
}

func RenderWelcomeEmail(data WelcomeData) (string, error) {
	if data.Year == 0 {
		data.Year = time.Now().Year()
	}
	if data.LogoURL == "" {
		data.LogoURL = defaultLogoURL
	}
	var buf strings.Builder
	err := welcomeTmpl.Execute(&buf, data)
	return buf.String(), err
}
