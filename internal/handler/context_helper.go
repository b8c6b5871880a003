package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/erp-api/internal/middleware"
	"github.com/noah-isme/erp-api/internal/models"
	appErrors "github.com/noah-isme/erp-api/pkg/errors"
	"github.com/noah-isme/erp-api/pkg/response"
	"github.com/noah-isme/erp-api/pkg/validation"
)

// currentUser returns the caller's claims or writes a 401.
func currentUser(c *gin.Context) (*models.JWTClaims, bool) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

func requestMeta(c *gin.Context) models.LoginRequest {
	return models.LoginRequest{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}

// bindJSON decodes the body. Malformed JSON writes a 400; a field holding a
// value of the wrong type writes the 422 field map.
func bindJSON(c *gin.Context, dst interface{}) bool {
	body, err := c.GetRawData()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, appErrors.ErrBadRequest.Status, "invalid payload"))
		return false
	}
	if err := validation.DecodeJSON(body, dst); err != nil {
		if errors.Is(err, validation.ErrMalformedJSON) {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, appErrors.ErrBadRequest.Status, "invalid payload"))
			return false
		}
		response.Error(c, err)
		return false
	}
	return true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, size
}

// withCacheMeta notes the cache hit flag and returns the response metadata.
func withCacheMeta(c *gin.Context, hit bool) map[string]interface{} {
	middleware.NoteCacheHit(c, hit)
	return middleware.Meta(c)
}
