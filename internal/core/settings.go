package core

import (
	"encoding/json"
	"time"
)

const (
	ThemeLight ThemeMode = "light"
	ThemeDark  ThemeMode = "dark"
	ThemeAuto  ThemeMode = "auto"

	LanguageJA LanguageCode = "ja"
	LanguageEN LanguageCode = "en"
)

// SettingsVersion is written into fresh settings and export bundles.
const SettingsVersion = "1.0.0"

type (
	ThemeMode    string
	LanguageCode string

	NotificationSettings struct {
		BudgetAlerts       bool `json:"budgetAlerts"`
		WeeklyReports      bool `json:"weeklyReports"`
		PushNotifications  bool `json:"pushNotifications"`
		EmailNotifications bool `json:"emailNotifications"`
	}

	PrivacySettings struct {
		DataRetentionDays int  `json:"dataRetentionDays"`
		AutoBackup        bool `json:"autoBackup"`
		AnalyticsEnabled  bool `json:"analyticsEnabled"`
		CrashReporting    bool `json:"crashReporting"`
	}

	// Settings are the user's application preferences.
	Settings struct {
		DefaultCurrency Currency             `json:"defaultCurrency"`
		Theme           ThemeMode            `json:"theme"`
		Language        LanguageCode         `json:"language"`
		Notifications   NotificationSettings `json:"notifications"`
		Privacy         PrivacySettings      `json:"privacy"`
		Version         string               `json:"version,omitempty"`
		LastModified    time.Time            `json:"lastModified,omitzero"`
	}
)

// DefaultSettings returns the settings a new user starts with.
func DefaultSettings() Settings {
	return Settings{
		DefaultCurrency: HomeCurrency,
		Theme:           ThemeAuto,
		Language:        LanguageJA,
		Notifications: NotificationSettings{
			BudgetAlerts: true,
		},
		Privacy: PrivacySettings{
			DataRetentionDays: 365,
			AutoBackup:        true,
			CrashReporting:    true,
		},
		Version: SettingsVersion,
	}
}

// MergeSettings decodes raw over the defaults, so fields missing from raw keep
// their default values.
func MergeSettings(raw json.RawMessage) (Settings, error) {
	s := DefaultSettings()
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return DefaultSettings(), WrapError(KindInvalidInput, "settings must be a JSON object", err)
	}
	return s, s.Validate()
}

func (s Settings) Validate() error {
	if !s.DefaultCurrency.IsSupported() {
		return NewError(KindCurrencyNotSupported, "unsupported default currency "+string(s.DefaultCurrency))
	}
	switch s.Theme {
	case ThemeLight, ThemeDark, ThemeAuto:
	default:
		return NewError(KindValidation, "invalid theme "+string(s.Theme))
	}
	switch s.Language {
	case LanguageJA, LanguageEN:
	default:
		return NewError(KindValidation, "invalid language "+string(s.Language))
	}
	if s.Privacy.DataRetentionDays < 0 {
		return NewError(KindValidation, "data retention days must not be negative")
	}
	return nil
}
