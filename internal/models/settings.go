package models

import (
	"portfolio-backend/internal/store"
)

// SettingsID is the fixed key of the settings singleton record.
const SettingsID = "settings"

// AdminID is the fixed key of the admin credential record.
const AdminID = "admin"

// DefaultSettings is the shape written on first boot when no settings
// record exists yet. The dashboard edits it in place afterwards.
func DefaultSettings() store.Record {
	return store.Record{
		"profile": map[string]any{
			"nameFr":  "",
			"nameEn":  "",
			"titleFr": "",
			"titleEn": "",
			"bioFr":   "",
			"bioEn":   "",
			"email":   "",
			"phone":   "",
			"photo":   "",
		},
		"socials": map[string]any{
			"github":   "",
			"linkedin": "",
			"twitter":  "",
		},
		"footer": map[string]any{
			"textFr": "",
			"textEn": "",
		},
		"homePage": map[string]any{
			"headlineFr": "",
			"headlineEn": "",
			"showChat":   true,
		},
	}
}
