package domain

import (
	"strings"
	"time"
)

// Theme enumerates UI themes a user can select.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Language enumerates supported UI languages.
type Language string

const (
	LanguageChinese Language = "zh-CN"
	LanguageEnglish Language = "en"
)

// ParseTheme reports whether value names a known theme.
func ParseTheme(value string) (Theme, bool) {
	switch Theme(strings.ToLower(strings.TrimSpace(value))) {
	case ThemeLight:
		return ThemeLight, true
	case ThemeDark:
		return ThemeDark, true
	case ThemeSystem:
		return ThemeSystem, true
	default:
		return "", false
	}
}

// ParseLanguage reports whether value names a supported language tag.
func ParseLanguage(value string) (Language, bool) {
	switch strings.TrimSpace(value) {
	case string(LanguageChinese):
		return LanguageChinese, true
	case string(LanguageEnglish):
		return LanguageEnglish, true
	default:
		return "", false
	}
}

// UserPreferences holds per-user UI settings.
type UserPreferences struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Theme     Theme     `json:"theme"`
	Language  Language  `json:"language"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PreferencesUpdate carries the mutable preference fields; nil means unchanged.
type PreferencesUpdate struct {
	Theme    *Theme
	Language *Language
}
