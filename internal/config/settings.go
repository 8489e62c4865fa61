package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Settings holds all configuration options.
type Settings struct {
	// Paths
	RootDir string `json:"root_dir"`

	// Remote metadata endpoints
	ManifestURL  string `json:"manifest_url"`
	AssetBaseURL string `json:"asset_base_url"`

	// Identity provider (device-code OAuth)
	ClientID      string `json:"client_id"`
	Scope         string `json:"scope"`
	DeviceCodeURL string `json:"device_code_url"`
	TokenURL      string `json:"token_url"`
	ProfileURL    string `json:"profile_url"`

	// Download behavior
	MaxConcurrentDownloads int     `json:"max_concurrent_downloads"`
	DownloadMaxRetries     int     `json:"download_max_retries"`
	DownloadRetryCooldown  float64 `json:"download_retry_cooldown"`
	DownloadRetryExponent  float64 `json:"download_retry_exponent"`

	// Launch identification, substituted into JVM arguments
	LauncherName    string `json:"launcher_name"`
	LauncherVersion string `json:"launcher_version"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	return &Settings{
		RootDir: filepath.Join(homeDir, ".synthlab-launcher"),

		ManifestURL:  "https://launchermeta.mojang.com/mc/game/version_manifest.json",
		AssetBaseURL: "https://resources.download.minecraft.net",

		ClientID:      "04bc8538-fc3c-4490-9e61-a2b3f4cbcf5c",
		Scope:         "XboxLive.signin offline_access",
		DeviceCodeURL: "https://login.microsoftonline.com/consumers/oauth2/v2.0/devicecode",
		TokenURL:      "https://login.microsoftonline.com/consumers/oauth2/v2.0/token",
		ProfileURL:    "https://api.minecraftservices.com/minecraft/profile",

		MaxConcurrentDownloads: 16,
		DownloadMaxRetries:     7,
		DownloadRetryCooldown:  0.2,
		DownloadRetryExponent:  4.0,

		LauncherName:    "synthlab-launcher",
		LauncherVersion: "0.1",
	}
}

// Load reads settings from a JSON file.
//
// A missing file is not an error; defaults are returned so first runs
// work without any configuration.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// VersionsDir is where version metadata and jars are cached.
func (s *Settings) VersionsDir() string {
	return filepath.Join(s.RootDir, "versions")
}

// AssetsDir is the root for asset indexes and objects.
func (s *Settings) AssetsDir() string {
	return filepath.Join(s.RootDir, "assets")
}

// LibrariesDir is where library jars are stored.
func (s *Settings) LibrariesDir() string {
	return filepath.Join(s.RootDir, "libraries")
}

// NativesDir is where native libraries are extracted for launch.
func (s *Settings) NativesDir() string {
	return filepath.Join(s.RootDir, "natives")
}

// DataPath is the launcher data file (accounts and JVM registrations).
func (s *Settings) DataPath() string {
	return filepath.Join(s.RootDir, "launcher_data.json")
}

// AvatarsDir is where rendered player face icons are cached.
func (s *Settings) AvatarsDir() string {
	return filepath.Join(s.RootDir, "avatars")
}
