package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierhaus/portfolio-backend/internal/config"
	"github.com/atelierhaus/portfolio-backend/internal/models"
	"github.com/atelierhaus/portfolio-backend/pkg/validation"
)

// Credentials carry what a requester presents: the out-of-band admin flag
// from the upstream auth layer and an optional capability token.
type Credentials struct {
	Admin bool
	Token string
}

type CreateAssetInput struct {
	Title       string
	Description string
	Category    string
	ProjectID   *int
	Files       []UploadFile
}

type UpdateAssetInput struct {
	Title       string
	Description string
	Category    string
	ProjectID   *int
}

type ListFilter struct {
	Category  string
	ProjectID *int
	Title     string
}

// ProjectView is the derived grouping of one project's visible assets.
// Projects have no row of their own.
type ProjectView struct {
	ProjectID int
	Assets    []models.Asset
	Decisions []AccessDecision
}

// AssetService orchestrates the asset lifecycle: validated uploads in,
// policy-checked reads out, soft delete at the end. It owns no state beyond
// the pooled store connection.
type AssetService struct {
	db        *gorm.DB
	cfg       *config.Config
	validator *UploadValidator
	guard     *CapacityGuard
	tokens    *TokenService
	policy    *AccessPolicy
}

func NewAssetService(db *gorm.DB, cfg *config.Config, validator *UploadValidator, guard *CapacityGuard, tokens *TokenService, policy *AccessPolicy) *AssetService {
	return &AssetService{
		db:        db,
		cfg:       cfg,
		validator: validator,
		guard:     guard,
		tokens:    tokens,
		policy:    policy,
	}
}

func (s *AssetService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.StoreTimeout)
}

// fetchActive loads an asset by id, excluding soft-deleted rows. Callers
// cannot distinguish an unknown id from an inactive one.
func fetchActive(tx *gorm.DB, id uuid.UUID) (*models.Asset, error) {
	var asset models.Asset
	if err := tx.Where("id = ? AND is_active = ?", id, true).First(&asset).Error; err != nil {
		return nil, storeError(err, "image not found")
	}
	return &asset, nil
}

// Create validates the batch, checks project capacity and persists one asset
// per file. The batch is atomic: either every file is stored or none is.
func (s *AssetService) Create(ctx context.Context, input CreateAssetInput) ([]models.Asset, error) {
	title := validation.SanitizeString(input.Title)
	if title == "" {
		return nil, newError(KindValidation, "title is required")
	}
	if err := s.validator.ValidateBatch(input.Files); err != nil {
		return nil, err
	}
	category := models.NormalizeCategory(input.Category)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var created []models.Asset
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.ProjectID != nil {
			if err := s.guard.CheckCapacity(tx, *input.ProjectID, len(input.Files)); err != nil {
				return err
			}
		}

		token, err := s.deriveCreateToken(tx, category, input.ProjectID)
		if err != nil {
			return err
		}

		created = make([]models.Asset, 0, len(input.Files))
		for _, f := range input.Files {
			filename := f.Filename
			if filename == "" {
				filename = fmt.Sprintf("image-%s", uuid.New().String())
			}
			asset := models.Asset{
				Title:       title,
				Description: input.Description,
				Category:    category,
				ProjectID:   input.ProjectID,
				ContentType: f.ContentType,
				Filename:    filename,
				Filepath:    "/uploads/" + filename,
				ImageData:   f.Data,
				AccessToken: token,
				IsActive:    true,
			}
			if err := tx.Create(&asset).Error; err != nil {
				return storeError(err, "failed to store image")
			}
			created = append(created, asset)
		}
		return nil
	}, txOptions(s.db)...)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// deriveCreateToken returns the capability token newly created assets carry.
// Secret assets joining a project reuse the token its other secret assets
// already share; the first secret asset of a project gets a fresh one.
func (s *AssetService) deriveCreateToken(tx *gorm.DB, category models.Category, projectID *int) (*string, error) {
	if category != models.CategorySecret {
		return nil, nil
	}
	if projectID != nil {
		var existing models.Asset
		err := tx.Where("project_id = ? AND category = ? AND is_active = ? AND access_token IS NOT NULL",
			*projectID, models.CategorySecret, true).First(&existing).Error
		if err == nil {
			return existing.AccessToken, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storeError(err, "failed to look up project access token")
		}
	}
	token, err := s.tokens.Issue()
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// Get returns the metadata row, authorized by the access policy.
func (s *AssetService) Get(ctx context.Context, id uuid.UUID, creds Credentials) (*models.Asset, AccessDecision, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	asset, err := fetchActive(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, AccessDecision{}, err
	}
	decision, err := s.policy.Authorize(asset, creds.Admin, creds.Token)
	if err != nil {
		return nil, AccessDecision{}, err
	}
	return asset, decision, nil
}

// GetData returns the stored binary and its content type. The category/token
// check runs here in full, independent of any earlier metadata authorization.
func (s *AssetService) GetData(ctx context.Context, id uuid.UUID, creds Credentials) ([]byte, string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	asset, err := fetchActive(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, "", err
	}
	decision, err := s.policy.Authorize(asset, creds.Admin, creds.Token)
	if err != nil {
		return nil, "", err
	}
	if !decision.Content {
		return nil, "", newError(KindAccessDenied, "this secret image has no access token configured")
	}
	if len(asset.ImageData) == 0 {
		return nil, "", newError(KindNotFound, "image data not found")
	}
	return asset.ImageData, asset.ContentType, nil
}

// List returns active assets matching the filter. Denied rows are silently
// omitted; listing never errors on partial denial.
func (s *AssetService) List(ctx context.Context, filter ListFilter, creds Credentials) ([]models.Asset, []AccessDecision, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := s.db.WithContext(ctx).Where("is_active = ?", true)
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.Title != "" {
		query = query.Where("title = ?", filter.Title)
	}

	var rows []models.Asset
	if err := query.Order("upload_date DESC").Find(&rows).Error; err != nil {
		return nil, nil, storeError(err, "failed to list images")
	}

	assets := make([]models.Asset, 0, len(rows))
	decisions := make([]AccessDecision, 0, len(rows))
	for i := range rows {
		decision, err := s.policy.Authorize(&rows[i], creds.Admin, creds.Token)
		if err != nil || !decision.Metadata {
			continue
		}
		assets = append(assets, rows[i])
		decisions = append(decisions, decision)
	}
	return assets, decisions, nil
}

// Update replaces the asset's metadata, applying the reassignment capacity
// check and the category transition token rules.
func (s *AssetService) Update(ctx context.Context, id uuid.UUID, input UpdateAssetInput) (*models.Asset, error) {
	title := validation.SanitizeString(input.Title)
	if title == "" {
		return nil, newError(KindValidation, "title is required")
	}
	category := models.NormalizeCategory(input.Category)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var updated *models.Asset
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		asset, err := fetchActive(tx, id)
		if err != nil {
			return err
		}

		if input.ProjectID != nil && !sameProject(input.ProjectID, asset.ProjectID) {
			if err := s.guard.CheckReassignCapacity(tx, *input.ProjectID); err != nil {
				return err
			}
		}

		token, err := s.tokens.TokenForTransition(asset.Category, asset.AccessToken, category)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"title":        title,
			"description":  input.Description,
			"category":     category,
			"project_id":   input.ProjectID,
			"access_token": token,
		}
		if err := tx.Model(asset).Updates(updates).Error; err != nil {
			return storeError(err, "failed to update image")
		}

		asset.Title = title
		asset.Description = input.Description
		asset.Category = category
		asset.ProjectID = input.ProjectID
		asset.AccessToken = token
		updated = asset
		return nil
	}, txOptions(s.db)...)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func sameProject(a, b *int) bool {
	return a != nil && b != nil && *a == *b
}

// ReplaceContent overwrites the stored binary and content type. Metadata and
// token are untouched.
func (s *AssetService) ReplaceContent(ctx context.Context, id uuid.UUID, file UploadFile) error {
	if err := s.validator.ValidateBatch([]UploadFile{file}); err != nil {
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		asset, err := fetchActive(tx, id)
		if err != nil {
			return err
		}
		updates := map[string]interface{}{
			"image_data":   file.Data,
			"content_type": file.ContentType,
		}
		if err := tx.Model(asset).Updates(updates).Error; err != nil {
			return storeError(err, "failed to replace image data")
		}
		return nil
	})
}

// SoftDelete marks the asset inactive. Inactive rows stay in the store but
// disappear from every read; the active-only fetch makes a second delete on
// the same id fail NotFound.
func (s *AssetService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		asset, err := fetchActive(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Model(asset).Update("is_active", false).Error; err != nil {
			return storeError(err, "failed to delete image")
		}
		return nil
	})
}

// GetProject returns the visible assets of one project, NotFound when nothing
// is visible to the requester.
func (s *AssetService) GetProject(ctx context.Context, projectID int, creds Credentials) (*ProjectView, error) {
	assets, decisions, err := s.List(ctx, ListFilter{ProjectID: &projectID}, creds)
	if err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return nil, newError(KindNotFound, "project not found")
	}
	return &ProjectView{ProjectID: projectID, Assets: assets, Decisions: decisions}, nil
}
