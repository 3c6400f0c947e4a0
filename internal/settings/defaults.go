package settings

import "github.com/GoEventHub/GoEventHub/internal/db/models"

// Branding keys consumed by every rendered page.
const (
	KeySiteName       = "site_name"
	KeyDescription    = "site_description"
	KeyLogo           = "logo"
	KeyFavicon        = "favicon"
	KeyPrimaryColor   = "primary_color"
	KeySecondaryColor = "secondary_color"
	KeyTheme          = "theme"
	KeyFooterText     = "footer_text"
	KeyCustomCSS      = "custom_css"
)

// Theme values.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

const groupBranding = "branding"

// Definitions returns the branding settings with their default values and
// form metadata. They are seeded on startup and form the branding allow-list.
func Definitions() []models.Setting {
	return []models.Setting{
		{Name: KeySiteName, Value: "GoEventHub", Label: "Site name", Type: models.SettingTypeText, SortOrder: 10},
		{
			Name: KeyDescription, Value: "Discover, register and check in to events",
			Label: "Site description", Type: models.SettingTypeTextarea, SortOrder: 20,
		},
		{Name: KeyLogo, Value: "", Label: "Logo URL", Type: models.SettingTypeText, SortOrder: 30},
		{Name: KeyFavicon, Value: "/static/img/favicon.svg", Label: "Favicon URL", Type: models.SettingTypeText, SortOrder: 40},
		{Name: KeyPrimaryColor, Value: "#dc2626", Label: "Primary color", Type: models.SettingTypeColor, SortOrder: 50},
		{Name: KeySecondaryColor, Value: "#1f2937", Label: "Secondary color", Type: models.SettingTypeColor, SortOrder: 60},
		{Name: KeyTheme, Value: ThemeLight, Label: "Theme", Type: models.SettingTypeSelect, SortOrder: 70},
		{Name: KeyFooterText, Value: "Powered by GoEventHub", Label: "Footer text", Type: models.SettingTypeText, SortOrder: 80},
		{Name: KeyCustomCSS, Value: "", Label: "Custom CSS", Type: models.SettingTypeTextarea, SortOrder: 90},
	}
}

// SeedDefinitions returns Definitions marked public and grouped for seeding.
func SeedDefinitions() []models.Setting {
	defs := Definitions()
	for i := range defs {
		defs[i].Public = true
		defs[i].Group = groupBranding
	}

	return defs
}

// Defaults returns the default value of every branding key.
func Defaults() map[string]string {
	defs := Definitions()

	out := make(map[string]string, len(defs))
	for _, d := range defs {
		out[d.Name] = d.Value
	}

	return out
}

// BrandingKeys lists the allow-listed keys in display order.
func BrandingKeys() []string {
	defs := Definitions()

	out := make([]string, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Name)
	}

	return out
}

// Themes lists the selectable themes.
func Themes() []string {
	return []string{ThemeLight, ThemeDark}
}
