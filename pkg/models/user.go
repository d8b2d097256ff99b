package models

import "time"

type Profile struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	Name                string    `json:"name,omitempty"`
	PreferredLanguage   string    `json:"preferred_language"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	IsPro               bool      `json:"is_pro"`
	CustomVoiceSamples  string    `json:"custom_voice_samples,omitempty"`
	BrandKit            BrandKit  `json:"brand_kit"`
	Created             time.Time `json:"created"`
	Updated             time.Time `json:"updated"`
}

// BrandKit holds the visual identity applied to exported carousels.
// Headshot and Logo are storage keys, not URLs.
type BrandKit struct {
	Headshot string `json:"headshot,omitempty"`
	Logo     string `json:"logo,omitempty"`
	Color    string `json:"color,omitempty"`
	Tagline  string `json:"tagline,omitempty"`
}

type Subscription struct {
	Tier            string `json:"tier"`
	GenerationsUsed int    `json:"generations_used"`
	// GenerationsLimit is nil for unlimited tiers.
	GenerationsLimit *int `json:"generations_limit"`
	CanGenerate      bool `json:"can_generate"`
}
