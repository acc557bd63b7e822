package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/atelierhaus/portfolio-backend/internal/config"
	"github.com/atelierhaus/portfolio-backend/internal/middleware"
	"github.com/atelierhaus/portfolio-backend/internal/models"
	"github.com/atelierhaus/portfolio-backend/internal/services"
)

type ImageHandler struct {
	assetService *services.AssetService
	tokenService *services.TokenService
	cfg          *config.Config
}

func NewImageHandler(assetService *services.AssetService, tokenService *services.TokenService, cfg *config.Config) *ImageHandler {
	return &ImageHandler{
		assetService: assetService,
		tokenService: tokenService,
		cfg:          cfg,
	}
}

// credentials pulls the out-of-band admin flag and the presented access
// token off the request.
func credentials(c *gin.Context) services.Credentials {
	return services.Credentials{
		Admin: c.GetBool(middleware.ContextIsAdmin),
		Token: c.Query("access_token"),
	}
}

// respondError maps the service error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch services.KindOf(err) {
	case services.KindValidation, services.KindCapacityExceeded,
		services.KindInvalidCategory, services.KindNotSecret:
		status = http.StatusBadRequest
	case services.KindNotFound:
		status = http.StatusNotFound
	case services.KindAccessDenied:
		status = http.StatusForbidden
	case services.KindStoreUnavailable:
		status = http.StatusServiceUnavailable
	}

	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		c.JSON(status, gin.H{"error": string(svcErr.Kind), "message": svcErr.Message})
		return
	}
	c.JSON(status, gin.H{"error": "internal_error", "message": "server error"})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": string(services.KindValidation), "message": message})
}

func imageResponse(asset *models.Asset, decision services.AccessDecision) gin.H {
	resp := gin.H{
		"id":           asset.ID,
		"title":        asset.Title,
		"description":  asset.Description,
		"category":     asset.Category,
		"project_id":   asset.ProjectID,
		"content_type": asset.ContentType,
		"filename":     asset.Filename,
		"upload_date":  asset.UploadDate,
	}
	if decision.IncludeToken {
		resp["access_token"] = asset.AccessToken
	}
	return resp
}

func parseAssetID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid image ID")
		return uuid.Nil, false
	}
	return id, true
}

// GetAllImages lists images matching the optional filters, with denied rows
// silently omitted.
// GET /images?category=&project_id=&title=&access_token=
func (h *ImageHandler) GetAllImages(c *gin.Context) {
	filter := services.ListFilter{
		Category: c.Query("category"),
		Title:    c.Query("title"),
	}
	if v := c.Query("project_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			badRequest(c, "project_id must be an integer")
			return
		}
		filter.ProjectID = &id
	}

	assets, decisions, err := h.assetService.List(c.Request.Context(), filter, credentials(c))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]gin.H, len(assets))
	for i := range assets {
		out[i] = imageResponse(&assets[i], decisions[i])
	}
	c.JSON(http.StatusOK, out)
}

// GetImage fetches a single image's metadata.
// GET /images/:id?access_token=
func (h *ImageHandler) GetImage(c *gin.Context) {
	id, ok := parseAssetID(c)
	if !ok {
		return
	}

	asset, decision, err := h.assetService.Get(c.Request.Context(), id, credentials(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, imageResponse(asset, decision))
}

// GetImageData serves the stored binary with its content type. The full
// authorization check runs again here.
// GET /images/:id/data?access_token=
func (h *ImageHandler) GetImageData(c *gin.Context) {
	id, ok := parseAssetID(c)
	if !ok {
		return
	}

	data, contentType, err := h.assetService.GetData(c.Request.Context(), id, credentials(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, data)
}

// CreateImage stores an uploaded batch under shared metadata.
// POST /images — multipart, file field "images", body fields title,
// description, category, project_id
func (h *ImageHandler) CreateImage(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(h.cfg.UploadMaxMemory); err != nil {
		badRequest(c, "failed to parse multipart form")
		return
	}

	fileHeaders := c.Request.MultipartForm.File["images"]
	// Transport cap; the validator enforces the real batch limit.
	if len(fileHeaders) > h.cfg.UploadMaxParts {
		badRequest(c, fmt.Sprintf("too many form parts: maximum %d", h.cfg.UploadMaxParts))
		return
	}

	files := make([]services.UploadFile, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			badRequest(c, fmt.Sprintf("failed to open uploaded file %q", fh.Filename))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			badRequest(c, fmt.Sprintf("failed to read uploaded file %q", fh.Filename))
			return
		}
		files = append(files, services.UploadFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Data:        data,
		})
	}

	input := services.CreateAssetInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		Files:       files,
	}
	if v := c.PostForm("project_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			badRequest(c, "project_id must be an integer")
			return
		}
		input.ProjectID = &id
	}

	created, err := h.assetService.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	// The uploader gets the full record back, generated token included.
	out := make([]gin.H, len(created))
	for i := range created {
		out[i] = imageResponse(&created[i], services.AccessDecision{IncludeToken: true})
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": fmt.Sprintf("%d image(s) uploaded successfully", len(created)),
		"images":  out,
	})
}

// UpdateImage replaces an image's metadata.
// PUT /images/:id
func (h *ImageHandler) UpdateImage(c *gin.Context) {
	id, ok := parseAssetID(c)
	if !ok {
		return
	}

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Category    string `json:"category"`
		ProjectID   *int   `json:"project_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	asset, err := h.assetService.Update(c.Request.Context(), id, services.UpdateAssetInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		ProjectID:   req.ProjectID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Image updated successfully",
		"image":   imageResponse(asset, services.AccessDecision{IncludeToken: true}),
	})
}

// ReplaceImageFile overwrites the stored binary and content type only.
// PUT /images/:id/file — multipart, file field "image"
func (h *ImageHandler) ReplaceImageFile(c *gin.Context) {
	id, ok := parseAssetID(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("image")
	if err != nil {
		badRequest(c, "please upload an image file")
		return
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, "failed to open uploaded file")
		return
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		badRequest(c, "failed to read uploaded file")
		return
	}

	file := services.UploadFile{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Data:        data,
	}
	if err := h.assetService.ReplaceContent(c.Request.Context(), id, file); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Image file updated successfully",
		"image_id": id,
	})
}

// DeleteImage soft-deletes an image. A second delete on the same id is 404.
// DELETE /images/:id
func (h *ImageHandler) DeleteImage(c *gin.Context) {
	id, ok := parseAssetID(c)
	if !ok {
		return
	}

	if err := h.assetService.SoftDelete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Image deleted successfully"})
}

// RegenerateAccessToken rotates the project-scoped token of a secret image.
// POST /images/:id/regenerate-token
func (h *ImageHandler) RegenerateAccessToken(c *gin.Context) {
	id, ok := parseAssetID(c)
	if !ok {
		return
	}

	token, err := h.tokenService.Rotate(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "Access token regenerated successfully for all project images",
		"access_token": token,
	})
}

// RevokeAccess clears a secret image's token, sealing its content.
// POST /images/:id/revoke-access
func (h *ImageHandler) RevokeAccess(c *gin.Context) {
	id, ok := parseAssetID(c)
	if !ok {
		return
	}

	if err := h.tokenService.Revoke(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Access revoked successfully"})
}

// GetProject returns the derived view of one project's visible images.
// GET /projects/:id?access_token=
func (h *ImageHandler) GetProject(c *gin.Context) {
	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid project ID")
		return
	}

	view, err := h.assetService.GetProject(c.Request.Context(), projectID, credentials(c))
	if err != nil {
		respondError(c, err)
		return
	}

	images := make([]gin.H, len(view.Assets))
	for i := range view.Assets {
		images[i] = imageResponse(&view.Assets[i], view.Decisions[i])
	}
	c.JSON(http.StatusOK, gin.H{
		"project_id":   view.ProjectID,
		"title":        fmt.Sprintf("Project %d", view.ProjectID),
		"images":       images,
		"total_images": len(images),
	})
}

// GetProjectFiles lists one project's files for a token holder.
// GET /projects/:id/files?access_token=
func (h *ImageHandler) GetProjectFiles(c *gin.Context) {
	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid project ID")
		return
	}

	creds := credentials(c)
	if creds.Token == "" && !creds.Admin {
		badRequest(c, "missing required parameters")
		return
	}

	assets, decisions, err := h.assetService.List(c.Request.Context(), services.ListFilter{ProjectID: &projectID}, creds)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]gin.H, len(assets))
	for i := range assets {
		out[i] = imageResponse(&assets[i], decisions[i])
	}
	c.JSON(http.StatusOK, out)
}
