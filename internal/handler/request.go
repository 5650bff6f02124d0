package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/lessonplan-api/internal/middleware"
	"github.com/noah-isme/lessonplan-api/internal/models"
	appErrors "github.com/noah-isme/lessonplan-api/pkg/errors"
	"github.com/noah-isme/lessonplan-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

// currentUser writes a 401 and returns false when the request carries no identity.
func currentUser(c *gin.Context) (string, bool) {
	claims := claimsFromContext(c)
	if claims == nil || claims.Identity() == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	return claims.Identity(), true
}

// pathID reads a uuid path parameter. Anything else cannot name a stored
// record, so it is answered with 404.
func pathID(c *gin.Context, name string) (string, bool) {
	id := strings.TrimSpace(c.Param(name))
	if _, err := uuid.Parse(id); err != nil {
		response.Error(c, appErrors.ErrNotFound)
		return "", false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}

func listOptions(c *gin.Context) models.ListOptions {
	var opts models.ListOptions
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		opts.Page = page
	}
	if size, err := strconv.Atoi(c.Query("limit")); err == nil {
		opts.PageSize = size
	}
	opts.SortBy = c.Query("sort")
	opts.SortOrder = strings.ToUpper(c.Query("order"))
	return opts
}

func queryDate(c *gin.Context, key string) (models.Date, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return models.Date{}, nil
	}
	date, err := models.ParseDate(raw)
	if err != nil {
		return models.Date{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, key+" must be YYYY-MM-DD")
	}
	return date, nil
}

func queryRange(c *gin.Context) (models.Date, models.Date, bool) {
	from, err := queryDate(c, "from")
	if err != nil {
		response.Error(c, err)
		return from, from, false
	}
	to, err := queryDate(c, "to")
	if err != nil {
		response.Error(c, err)
		return from, to, false
	}
	return from, to, true
}

func queryBucket(c *gin.Context) (models.Bucket, bool) {
	bucket := models.Bucket(strings.ToLower(c.Query("bucket")))
	if bucket != "" && !bucket.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "bucket must be one of today, tomorrow, upcoming, previous"))
		return "", false
	}
	return bucket, true
}

func queryView(c *gin.Context) models.View {
	if strings.EqualFold(c.Query("view"), string(models.ViewDetailed)) {
		return models.ViewDetailed
	}
	return models.ViewCard
}

// respondList writes a page with the cache flag folded into meta.
func respondList(c *gin.Context, data interface{}, pagination models.Pagination, cacheHit bool) {
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, data, &pagination, middleware.ExtractMeta(c))
}

func respondFile(c *gin.Context, filename, contentType string, body []byte) {
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, contentType, body)
}
