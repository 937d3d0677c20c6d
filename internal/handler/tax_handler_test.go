package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"taxengine/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTaxService struct {
	decision  service.TaxDecisionResponse
	breakdown service.AmountBreakdownResponse
	err       error
}

func (s *stubTaxService) DetermineTax(context.Context, service.DetermineTaxRequest) (service.TaxDecisionResponse, error) {
	return s.decision, s.err
}

func (s *stubTaxService) ComputeAmounts(context.Context, service.ComputeAmountsRequest) (service.AmountBreakdownResponse, error) {
	return s.breakdown, s.err
}

func (s *stubTaxService) ComputeAmountsBatch(_ context.Context, reqs []service.ComputeAmountsRequest) ([]service.AmountBreakdownResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]service.AmountBreakdownResponse, len(reqs))
	for i := range reqs {
		out[i] = s.breakdown
	}
	return out, nil
}

func newTaxRouter(svc service.TaxService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewTaxHandler(svc).RegisterRoutes(&router.RouterGroup)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestDetermineTaxEndpoint(t *testing.T) {
	svc := &stubTaxService{decision: service.TaxDecisionResponse{Zone: "domestic", Rate: "19.00"}}
	router := newTaxRouter(svc)

	rec := postJSON(t, router, "/api/tax/determine", service.DetermineTaxRequest{
		Country:    "DE",
		TaxClassID: "9e4b3c1a-0000-4000-8000-000000000000",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status string                      `json:"status"`
		Data   service.TaxDecisionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, "domestic", body.Data.Zone)
	assert.Equal(t, "19.00", body.Data.Rate)
}

func TestDetermineTaxEndpointRejectsBadPayload(t *testing.T) {
	router := newTaxRouter(&stubTaxService{})

	rec := postJSON(t, router, "/api/tax/determine", map[string]string{"country": "DEU"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetermineTaxEndpointUnknownClass(t *testing.T) {
	router := newTaxRouter(&stubTaxService{err: service.ErrUnknownTaxClass})

	rec := postJSON(t, router, "/api/tax/determine", service.DetermineTaxRequest{
		Country:    "DE",
		TaxClassID: "9e4b3c1a-0000-4000-8000-000000000000",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestComputeAmountsEndpoint(t *testing.T) {
	svc := &stubTaxService{breakdown: service.AmountBreakdownResponse{
		Net: "100.00", Tax: "19.00", Gross: "119.00", Rate: "19.00", Zone: "domestic",
	}}
	router := newTaxRouter(svc)

	rec := postJSON(t, router, "/api/tax/compute", service.ComputeAmountsRequest{
		Gross:      "119.00",
		Country:    "DE",
		TaxClassID: "9e4b3c1a-0000-4000-8000-000000000000",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data service.AmountBreakdownResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "100.00", body.Data.Net)
	assert.Equal(t, "19.00", body.Data.Tax)
}

func TestComputeAmountsBatchEndpoint(t *testing.T) {
	svc := &stubTaxService{breakdown: service.AmountBreakdownResponse{Zone: "export", Tax: "0.00"}}
	router := newTaxRouter(svc)

	rec := postJSON(t, router, "/api/tax/compute-batch", []service.ComputeAmountsRequest{
		{Gross: "10.00", Country: "US", TaxClassID: "9e4b3c1a-0000-4000-8000-000000000000"},
		{Gross: "20.00", Country: "US", TaxClassID: "9e4b3c1a-0000-4000-8000-000000000000"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []service.AmountBreakdownResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)
}
