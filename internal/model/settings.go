package model

const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// Settings are the owner's application preferences.
type Settings struct {
	SoundEnabled         bool   `json:"soundEnabled"`
	Volume               int    `json:"volume"`
	Theme                string `json:"theme"`
	NotificationsEnabled bool   `json:"notificationsEnabled"`
}

// DefaultSettings returns the settings used before anything is saved.
func DefaultSettings() Settings {
	return Settings{
		SoundEnabled: true,
		Volume:       70,
		Theme:        ThemeSystem,
	}
}

// SettingsPatch merges into the current settings. Nil fields are kept.
type SettingsPatch struct {
	SoundEnabled         *bool   `json:"soundEnabled"`
	Volume               *int    `json:"volume"`
	Theme                *string `json:"theme"`
	NotificationsEnabled *bool   `json:"notificationsEnabled"`
}
