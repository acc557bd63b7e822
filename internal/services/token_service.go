package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierhaus/portfolio-backend/internal/config"
	"github.com/atelierhaus/portfolio-backend/internal/models"
)

const tokenBytes = 32

// TokenService manages the capability token shared by all secret assets of a
// project.
type TokenService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewTokenService(db *gorm.DB, cfg *config.Config) *TokenService {
	return &TokenService{db: db, cfg: cfg}
}

// Issue produces a new random capability token.
func (s *TokenService) Issue() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// TokenForTransition applies the category transition rules on update and
// returns the token the asset should carry afterwards:
//   - any -> non-secret: cleared unconditionally
//   - secret -> secret: untouched (a revoked asset stays sealed)
//   - non-secret -> secret: issued, unless one already exists
func (s *TokenService) TokenForTransition(oldCategory models.Category, current *string, newCategory models.Category) (*string, error) {
	switch {
	case newCategory != models.CategorySecret:
		return nil, nil
	case oldCategory == models.CategorySecret:
		return current, nil
	default:
		if current != nil && *current != "" {
			return current, nil
		}
		token, err := s.Issue()
		if err != nil {
			return nil, err
		}
		return &token, nil
	}
}

// Rotate issues a fresh token and swaps it onto every active secret asset of
// the project the given asset belongs to. The old token stops working the
// moment the transaction commits. Assets without a project rotate alone.
func (s *TokenService) Rotate(ctx context.Context, assetID uuid.UUID) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	token, err := s.Issue()
	if err != nil {
		return "", err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var asset models.Asset
		if err := tx.Where("id = ? AND is_active = ?", assetID, true).First(&asset).Error; err != nil {
			return storeError(err, "image not found")
		}
		if asset.Category != models.CategorySecret {
			return newError(KindNotSecret, "only secret images can have access tokens")
		}

		scope := tx.Model(&models.Asset{}).
			Where("category = ? AND is_active = ?", models.CategorySecret, true)
		if asset.ProjectID != nil {
			scope = scope.Where("project_id = ?", *asset.ProjectID)
		} else {
			scope = scope.Where("id = ?", asset.ID)
		}
		if err := scope.Update("access_token", token).Error; err != nil {
			return storeError(err, "failed to rotate access token")
		}
		return nil
	}, txOptions(s.db)...)
	if err != nil {
		return "", err
	}
	return token, nil
}

// Revoke clears the asset's token, sealing its content until a rotate issues
// a replacement. Only valid for secret assets.
func (s *TokenService) Revoke(ctx context.Context, assetID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var asset models.Asset
		if err := tx.Where("id = ? AND is_active = ?", assetID, true).First(&asset).Error; err != nil {
			return storeError(err, "image not found")
		}
		if asset.Category != models.CategorySecret {
			return newError(KindInvalidCategory, "only secret images can have access revoked")
		}
		if err := tx.Model(&models.Asset{}).Where("id = ?", asset.ID).
			Update("access_token", nil).Error; err != nil {
			return storeError(err, "failed to revoke access")
		}
		return nil
	}, txOptions(s.db)...)
}
