package vies

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultEndpoint is the production VIES SOAP service of the EU Commission.
const DefaultEndpoint = "https://ec.europa.eu/taxation_customs/vies/services/checkVatService"

// DefaultTimeout bounds each outbound verification call.
const DefaultTimeout = 30 * time.Second

// CheckResult is the parsed answer of the verification authority for one
// country+number pair.
type CheckResult struct {
	Valid     bool
	Name      string
	Address   string
	RequestID string
}

// Checker confirms whether a registration number is currently valid. The
// concrete SOAP transport stays behind this interface so business code can be
// tested against a deterministic fake.
type Checker interface {
	CheckVAT(ctx context.Context, countryCode, vatNumber string) (CheckResult, error)
}

// Client talks to the VIES checkVat SOAP service.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient returns a Client for the given endpoint. Empty endpoint or zero
// timeout fall back to the production defaults.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

const checkVatRequestTemplate = `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:urn="urn:ec.europa.eu:taxud:vies:services:checkVat:types">
  <soapenv:Body>
    <urn:checkVat>
      <urn:countryCode>%s</urn:countryCode>
      <urn:vatNumber>%s</urn:vatNumber>
    </urn:checkVat>
  </soapenv:Body>
</soapenv:Envelope>`

type checkVatEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Fault    *soapFault        `xml:"Fault"`
		Response *checkVatResponse `xml:"checkVatResponse"`
	} `xml:"Body"`
}

type checkVatResponse struct {
	CountryCode string `xml:"countryCode"`
	VATNumber   string `xml:"vatNumber"`
	Valid       bool   `xml:"valid"`
	Name        string `xml:"name"`
	Address     string `xml:"address"`
	RequestID   string `xml:"requestIdentifier"`
}

type soapFault struct {
	Code   string `xml:"faultcode"`
	Reason string `xml:"faultstring"`
}

// CheckVAT sends one checkVat request and parses the structured response.
// Any transport, HTTP or parse problem is returned as an error; callers
// decide how much trust to place in a failed check.
func (c *Client) CheckVAT(ctx context.Context, countryCode, vatNumber string) (CheckResult, error) {
	body := fmt.Sprintf(checkVatRequestTemplate, countryCode, vatNumber)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBufferString(body))
	if err != nil {
		return CheckResult{}, fmt.Errorf("build checkVat request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CheckResult{}, fmt.Errorf("call verification service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return CheckResult{}, fmt.Errorf("read checkVat response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return CheckResult{}, fmt.Errorf("verification service returned status %d", resp.StatusCode)
	}

	var envelope checkVatEnvelope
	if err := xml.Unmarshal(raw, &envelope); err != nil {
		return CheckResult{}, fmt.Errorf("parse checkVat response: %w", err)
	}

	if envelope.Body.Fault != nil {
		return CheckResult{}, fmt.Errorf("verification service fault: %s (%s)", envelope.Body.Fault.Reason, envelope.Body.Fault.Code)
	}
	if envelope.Body.Response == nil {
		return CheckResult{}, fmt.Errorf("checkVat response missing body")
	}

	r := envelope.Body.Response
	return CheckResult{
		Valid:     r.Valid,
		Name:      cleanField(r.Name),
		Address:   cleanField(r.Address),
		RequestID: r.RequestID,
	}, nil
}

// cleanField normalizes the "---" placeholder VIES uses for withheld
// trader details.
func cleanField(s string) string {
	if s == "---" {
		return ""
	}
	return s
}
