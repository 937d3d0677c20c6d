package handler

import (
	"errors"
	"net/http"

	"taxengine/internal/service"
	"taxengine/pkg/response"

	"github.com/gin-gonic/gin"
)

type TaxHandler struct {
	taxService service.TaxService
}

func NewTaxHandler(taxService service.TaxService) *TaxHandler {
	return &TaxHandler{taxService: taxService}
}

func (h *TaxHandler) RegisterRoutes(router *gin.RouterGroup) {
	tax := router.Group("/api/tax")
	{
		tax.POST("/determine", h.DetermineTax)
		tax.POST("/compute", h.ComputeAmounts)
		tax.POST("/compute-batch", h.ComputeAmountsBatch)
	}
}

// DetermineTax classifies a transaction and resolves its rate
// @Summary      Determine tax treatment
// @Description  Classifies destination/buyer into a tax zone and resolves the applicable rate and exemption wording
// @Tags         tax
// @Accept       json
// @Produce      json
// @Param        request  body      service.DetermineTaxRequest  true  "Transaction to classify"
// @Success      200      {object}  response.Response{data=service.TaxDecisionResponse}
// @Router       /api/tax/determine [post]
func (h *TaxHandler) DetermineTax(c *gin.Context) {
	var req service.DetermineTaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	decision, err := h.taxService.DetermineTax(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusForTaxError(err), response.Error(statusForTaxError(err), err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, decision))
}

// ComputeAmounts decomposes a gross amount using the resolved rate
// @Summary      Compute tax amounts
// @Description  Classifies the transaction and splits a tax-inclusive gross amount into net and tax
// @Tags         tax
// @Accept       json
// @Produce      json
// @Param        request  body      service.ComputeAmountsRequest  true  "Gross amount and transaction data"
// @Success      200      {object}  response.Response{data=service.AmountBreakdownResponse}
// @Router       /api/tax/compute [post]
func (h *TaxHandler) ComputeAmounts(c *gin.Context) {
	var req service.ComputeAmountsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	breakdown, err := h.taxService.ComputeAmounts(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusForTaxError(err), response.Error(statusForTaxError(err), err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, breakdown))
}

// ComputeAmountsBatch recalculates many line items in one call
// @Summary      Compute tax amounts in bulk
// @Description  Recalculates a list of line items with bounded verification concurrency
// @Tags         tax
// @Accept       json
// @Produce      json
// @Param        request  body      []service.ComputeAmountsRequest  true  "Line items"
// @Success      200      {object}  response.Response{data=[]service.AmountBreakdownResponse}
// @Router       /api/tax/compute-batch [post]
func (h *TaxHandler) ComputeAmountsBatch(c *gin.Context) {
	var reqs []service.ComputeAmountsRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	breakdowns, err := h.taxService.ComputeAmountsBatch(c.Request.Context(), reqs)
	if err != nil {
		c.JSON(statusForTaxError(err), response.Error(statusForTaxError(err), err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, breakdowns))
}

// statusForTaxError maps the one hard engine error to 422; everything else
// that surfaces here is a malformed request.
func statusForTaxError(err error) int {
	if errors.Is(err, service.ErrUnknownTaxClass) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}
