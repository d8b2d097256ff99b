package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"apexcarousel/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Patch holds the profile fields a user may change; nil means unchanged.
type Patch struct {
	Name                *string `json:"name"`
	PreferredLanguage   *string `json:"preferred_language"`
	OnboardingCompleted *bool   `json:"onboarding_completed"`
}

func (r *Repo) Get(ctx context.Context, id string) (*models.Profile, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, email, name, preferred_language, onboarding_completed, is_pro,
		       custom_voice_samples, brand_headshot, brand_logo, brand_color, brand_tagline,
		       created_at, updated_at
		FROM users
		WHERE id = ?
	`, id)

	var p models.Profile
	err := row.Scan(&p.ID, &p.Email, &p.Name, &p.PreferredLanguage, &p.OnboardingCompleted, &p.IsPro,
		&p.CustomVoiceSamples, &p.BrandKit.Headshot, &p.BrandKit.Logo, &p.BrandKit.Color, &p.BrandKit.Tagline,
		&p.Created, &p.Updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

func (r *Repo) Update(ctx context.Context, id string, p Patch) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE users SET
		  name = COALESCE(?, name),
		  preferred_language = COALESCE(?, preferred_language),
		  onboarding_completed = COALESCE(?, onboarding_completed),
		  updated_at = ?
		WHERE id = ?
	`, p.Name, p.PreferredLanguage, p.OnboardingCompleted, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

func (r *Repo) UpdateBrandKit(ctx context.Context, id, color, tagline string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE users SET brand_color = ?, brand_tagline = ?, updated_at = ? WHERE id = ?
	`, color, tagline, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update brand kit: %w", err)
	}
	return nil
}

// assetColumns whitelists the brand image columns addressable by name.
var assetColumns = map[string]string{
	"headshot": "brand_headshot",
	"logo":     "brand_logo",
}

// SetAsset stores key in the named brand image slot and returns the key it replaced.
func (r *Repo) SetAsset(ctx context.Context, id, field, key string) (string, error) {
	col, ok := assetColumns[field]
	if !ok {
		return "", fmt.Errorf("unknown asset field %q", field)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin set asset: %w", err)
	}
	defer tx.Rollback()

	var old string
	if err := tx.QueryRowContext(ctx, `SELECT `+col+` FROM users WHERE id = ?`, id).Scan(&old); err != nil {
		return "", fmt.Errorf("read asset: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET `+col+` = ?, updated_at = ? WHERE id = ?`, key, time.Now().UTC(), id); err != nil {
		return "", fmt.Errorf("set asset: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit set asset: %w", err)
	}
	return old, nil
}

func (r *Repo) SetVoiceSamples(ctx context.Context, id, samples string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE users SET custom_voice_samples = ?, updated_at = ? WHERE id = ?
	`, samples, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set voice samples: %w", err)
	}
	return nil
}

// SetPro flips the paid flag. There is no public route for it.
func (r *Repo) SetPro(ctx context.Context, id string, pro bool) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE users SET is_pro = ?, updated_at = ? WHERE id = ?`, pro, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set pro: %w", err)
	}
	return nil
}

// Subscription reports usage against freeLimit. Pro users are unlimited.
func (r *Repo) Subscription(ctx context.Context, id string, freeLimit int) (*models.Subscription, error) {
	var isPro bool
	var used int
	err := r.DB.QueryRowContext(ctx, `
		SELECT u.is_pro, (SELECT COUNT(*) FROM generations g WHERE g.owner = u.id)
		FROM users u
		WHERE u.id = ?
	`, id).Scan(&isPro, &used)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}

	sub := &models.Subscription{Tier: "free", GenerationsUsed: used}
	if isPro {
		sub.Tier = "pro"
		sub.CanGenerate = true
		return sub, nil
	}
	limit := freeLimit
	sub.GenerationsLimit = &limit
	sub.CanGenerate = used < limit
	return sub, nil
}
