package handler

import (
	"net/http"

	"taxengine/internal/middleware"
	"taxengine/internal/service"
	"taxengine/pkg/pagination"
	"taxengine/pkg/response"

	"github.com/gin-gonic/gin"
)

// ConfigHandler exposes the tax configuration CRUD surface. All routes
// require an admin or manager role.
type ConfigHandler struct {
	configService service.ConfigService
}

func NewConfigHandler(configService service.ConfigService) *ConfigHandler {
	return &ConfigHandler{configService: configService}
}

func (h *ConfigHandler) RegisterRoutes(router *gin.RouterGroup) {
	classes := router.Group("/api/tax-classes")
	classes.Use(middleware.RequireRole("admin", "manager"))
	{
		classes.GET("", h.ListTaxClasses)
		classes.POST("", h.CreateTaxClass)
		classes.PUT("/:id", h.UpdateTaxClass)
		classes.DELETE("/:id", h.DeleteTaxClass)
	}

	rates := router.Group("/api/tax-rates")
	rates.Use(middleware.RequireRole("admin", "manager"))
	{
		rates.GET("", h.ListTaxRates)
		rates.POST("", h.CreateTaxRate)
		rates.PUT("/:id", h.UpdateTaxRate)
		rates.DELETE("/:id", h.DeleteTaxRate)
	}

	oss := router.Group("/api/oss-destinations")
	oss.Use(middleware.RequireRole("admin", "manager"))
	{
		oss.GET("", h.ListOSSDestinations)
		oss.POST("", h.CreateOSSDestination)
		oss.PUT("/:id", h.UpdateOSSDestination)
		oss.DELETE("/:id", h.DeleteOSSDestination)
	}

	exemptions := router.Group("/api/exemptions")
	exemptions.Use(middleware.RequireRole("admin", "manager"))
	{
		exemptions.GET("", h.ListExemptions)
		exemptions.PUT("", h.UpsertExemption)
		exemptions.DELETE("/:code", h.DeleteExemption)
	}
}

// --- Tax classes ---

// ListTaxClasses returns the configured taxable categories
// @Summary      List tax classes
// @Tags         config
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/tax-classes [get]
func (h *ConfigHandler) ListTaxClasses(c *gin.Context) {
	params := pagination.Parse(c)

	classes, total, err := h.configService.ListTaxClasses(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"classes": classes,
		"total":   total,
		"page":    params.Page,
		"limit":   params.Limit,
	}))
}

// CreateTaxClass creates a new taxable category
// @Summary      Create tax class
// @Tags         config
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      service.CreateTaxClassRequest  true  "Tax class"
// @Success      201      {object}  response.Response{data=service.TaxClassResponse}
// @Router       /api/tax-classes [post]
func (h *ConfigHandler) CreateTaxClass(c *gin.Context) {
	var req service.CreateTaxClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	class, err := h.configService.CreateTaxClass(c.Request.Context(), req, callerID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, class))
}

// UpdateTaxClass edits a taxable category
// @Summary      Update tax class
// @Tags         config
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Tax class id"
// @Param        request  body      service.UpdateTaxClassRequest  true  "Tax class"
// @Success      200      {object}  response.Response{data=service.TaxClassResponse}
// @Router       /api/tax-classes/{id} [put]
func (h *ConfigHandler) UpdateTaxClass(c *gin.Context) {
	var req service.UpdateTaxClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	class, err := h.configService.UpdateTaxClass(c.Request.Context(), c.Param("id"), req, callerID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, class))
}

// DeleteTaxClass removes an unreferenced taxable category
// @Summary      Delete tax class
// @Tags         config
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Tax class id"
// @Success      200  {object}  response.Response
// @Router       /api/tax-classes/{id} [delete]
func (h *ConfigHandler) DeleteTaxClass(c *gin.Context) {
	if err := h.configService.DeleteTaxClass(c.Request.Context(), c.Param("id"), callerID(c)); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// --- Tax rates ---

// ListTaxRates returns the configured rate rows
// @Summary      List tax rates
// @Tags         config
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/tax-rates [get]
func (h *ConfigHandler) ListTaxRates(c *gin.Context) {
	params := pagination.Parse(c)

	rates, total, err := h.configService.ListTaxRates(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"rates": rates,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// CreateTaxRate creates a new scoped rate row
// @Summary      Create tax rate
// @Tags         config
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      service.CreateTaxRateRequest  true  "Tax rate"
// @Success      201      {object}  response.Response{data=service.TaxRateResponse}
// @Router       /api/tax-rates [post]
func (h *ConfigHandler) CreateTaxRate(c *gin.Context) {
	var req service.CreateTaxRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rate, err := h.configService.CreateTaxRate(c.Request.Context(), req, callerID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rate))
}

// UpdateTaxRate edits a scoped rate row
// @Summary      Update tax rate
// @Tags         config
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Tax rate id"
// @Param        request  body      service.UpdateTaxRateRequest  true  "Tax rate"
// @Success      200      {object}  response.Response{data=service.TaxRateResponse}
// @Router       /api/tax-rates/{id} [put]
func (h *ConfigHandler) UpdateTaxRate(c *gin.Context) {
	var req service.UpdateTaxRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rate, err := h.configService.UpdateTaxRate(c.Request.Context(), c.Param("id"), req, callerID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rate))
}

// DeleteTaxRate removes a rate row
// @Summary      Delete tax rate
// @Tags         config
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Tax rate id"
// @Success      200  {object}  response.Response
// @Router       /api/tax-rates/{id} [delete]
func (h *ConfigHandler) DeleteTaxRate(c *gin.Context) {
	if err := h.configService.DeleteTaxRate(c.Request.Context(), c.Param("id"), callerID(c)); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// --- OSS destinations ---

// ListOSSDestinations returns the enrolled destination countries
// @Summary      List OSS destinations
// @Tags         config
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/oss-destinations [get]
func (h *ConfigHandler) ListOSSDestinations(c *gin.Context) {
	params := pagination.Parse(c)

	dests, total, err := h.configService.ListOSSDestinations(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"destinations": dests,
		"total":        total,
		"page":         params.Page,
		"limit":        params.Limit,
	}))
}

// CreateOSSDestination enrolls a destination country
// @Summary      Create OSS destination
// @Tags         config
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      service.UpsertOSSDestinationRequest  true  "Destination"
// @Success      201      {object}  response.Response{data=service.OSSDestinationResponse}
// @Router       /api/oss-destinations [post]
func (h *ConfigHandler) CreateOSSDestination(c *gin.Context) {
	var req service.UpsertOSSDestinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	dest, err := h.configService.CreateOSSDestination(c.Request.Context(), req, callerID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, dest))
}

// UpdateOSSDestination edits an enrolled destination
// @Summary      Update OSS destination
// @Tags         config
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                               true  "Destination id"
// @Param        request  body      service.UpsertOSSDestinationRequest  true  "Destination"
// @Success      200      {object}  response.Response{data=service.OSSDestinationResponse}
// @Router       /api/oss-destinations/{id} [put]
func (h *ConfigHandler) UpdateOSSDestination(c *gin.Context) {
	var req service.UpsertOSSDestinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	dest, err := h.configService.UpdateOSSDestination(c.Request.Context(), c.Param("id"), req, callerID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, dest))
}

// DeleteOSSDestination removes an enrolled destination
// @Summary      Delete OSS destination
// @Tags         config
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Destination id"
// @Success      200  {object}  response.Response
// @Router       /api/oss-destinations/{id} [delete]
func (h *ConfigHandler) DeleteOSSDestination(c *gin.Context) {
	if err := h.configService.DeleteOSSDestination(c.Request.Context(), c.Param("id"), callerID(c)); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// --- Exemptions ---

// ListExemptions returns all exemption wording entries
// @Summary      List exemptions
// @Tags         config
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.ExemptionResponse}
// @Router       /api/exemptions [get]
func (h *ConfigHandler) ListExemptions(c *gin.Context) {
	exemptions, err := h.configService.ListExemptions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, exemptions))
}

// UpsertExemption creates or replaces the wording for a code
// @Summary      Upsert exemption
// @Tags         config
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      service.UpsertExemptionRequest  true  "Exemption wording"
// @Success      200      {object}  response.Response{data=service.ExemptionResponse}
// @Router       /api/exemptions [put]
func (h *ConfigHandler) UpsertExemption(c *gin.Context) {
	var req service.UpsertExemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	exemption, err := h.configService.UpsertExemption(c.Request.Context(), req, callerID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, exemption))
}

// DeleteExemption removes the wording for a code
// @Summary      Delete exemption
// @Tags         config
// @Security     BearerAuth
// @Produce      json
// @Param        code  path      string  true  "Exemption code"
// @Success      200   {object}  response.Response
// @Router       /api/exemptions/{code} [delete]
func (h *ConfigHandler) DeleteExemption(c *gin.Context) {
	if err := h.configService.DeleteExemption(c.Request.Context(), c.Param("code"), callerID(c)); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// callerID extracts the authenticated user id set by the JWT middleware.
func callerID(c *gin.Context) string {
	if id, ok := c.Get("userID"); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
