package vitrine

// Setting keys read by the studio at call time.
const (
	SettingAPIKey       = "api_key"
	SettingImageModel   = "image_model"
	SettingAtlasWebhook = "atlas_webhook"
	SettingAtlasUser    = "atlas_user"
)

// SettingsProvider is a key-value string store for user-level settings.
// Implementations must be safe for concurrent use.
type SettingsProvider interface {
	// GetString returns the value for key and whether it was set.
	GetString(key string) (string, bool)
	// SetString stores value under key.
	SetString(key, value string) error
}
