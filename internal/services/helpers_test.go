package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/atelierhaus/portfolio-backend/internal/config"
	"github.com/atelierhaus/portfolio-backend/internal/models"
	"github.com/atelierhaus/portfolio-backend/internal/services"
)

type testEnv struct {
	db     *gorm.DB
	assets *services.AssetService
	tokens *services.TokenService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	cfg := config.New()
	validator := services.NewUploadValidator(cfg)
	guard := services.NewCapacityGuard()
	policy := services.NewAccessPolicy()
	tokens := services.NewTokenService(db, cfg)
	assets := services.NewAssetService(db, cfg, validator, guard, tokens, policy)

	return &testEnv{db: db, assets: assets, tokens: tokens}
}

func pngFile(name string) services.UploadFile {
	data := []byte("\x89PNG fake image bytes for testing")
	return services.UploadFile{
		Filename:    name,
		ContentType: "image/png",
		Size:        int64(len(data)),
		Data:        data,
	}
}

func pngFiles(n int) []services.UploadFile {
	files := make([]services.UploadFile, n)
	for i := range files {
		files[i] = pngFile("plan.png")
	}
	return files
}

func intPtr(v int) *int { return &v }

// assertTokenInvariant checks, over every row in the store, that a token is
// present exactly when the asset is secret and not revoked.
func assertTokenInvariant(t *testing.T, db *gorm.DB) {
	t.Helper()
	var all []models.Asset
	require.NoError(t, db.Find(&all).Error)
	for _, a := range all {
		if a.AccessToken != nil && *a.AccessToken != "" {
			assert.Equal(t, models.CategorySecret, a.Category,
				"asset %s has a token but is not secret", a.ID)
		}
		if a.Category != models.CategorySecret {
			assert.Nil(t, a.AccessToken, "non-secret asset %s carries a token", a.ID)
		}
	}
}
