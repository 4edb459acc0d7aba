package templates

import (
	_ "embed"
)

//go:embed welcome.html
var welcomeHTML string

//go:embed profile_viewed.html
var profileViewedHTML string

const defaultLogoURL = "https://backcheck.app/icon.png"
