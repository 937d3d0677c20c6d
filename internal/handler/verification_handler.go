package handler

import (
	"net/http"

	"taxengine/internal/middleware"
	"taxengine/internal/service"
	"taxengine/pkg/pagination"
	"taxengine/pkg/response"

	"github.com/gin-gonic/gin"
)

type VerificationHandler struct {
	queries service.VerificationQueryService
}

func NewVerificationHandler(queries service.VerificationQueryService) *VerificationHandler {
	return &VerificationHandler{queries: queries}
}

func (h *VerificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/verifications")
	group.Use(middleware.RequireRole("admin", "manager", "staff"))
	{
		group.GET("", h.ListVerifications)
		group.GET("/latest", h.LatestVerification)
	}
}

// ListVerifications returns the append-only verification log, newest first
// @Summary      List VAT verifications
// @Tags         verifications
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/verifications [get]
func (h *VerificationHandler) ListVerifications(c *gin.Context) {
	params := pagination.Parse(c)

	records, total, err := h.queries.ListVerifications(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"verifications": records,
		"total":         total,
		"page":          params.Page,
		"limit":         params.Limit,
	}))
}

// LatestVerification returns the most recent check for one number
// @Summary      Latest verification for a VAT number
// @Tags         verifications
// @Security     BearerAuth
// @Produce      json
// @Param        vat_number  query     string  true  "Registration number"
// @Success      200         {object}  response.Response{data=service.VerificationResponse}
// @Router       /api/verifications/latest [get]
func (h *VerificationHandler) LatestVerification(c *gin.Context) {
	vatNumber := c.Query("vat_number")
	if vatNumber == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "vat_number query parameter is required"))
		return
	}

	record, err := h.queries.LatestVerification(c.Request.Context(), vatNumber)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "no verification on record for this number"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, record))
}
