package vies

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validResponseBody = `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <checkVatResponse xmlns="urn:ec.europa.eu:taxud:vies:services:checkVat:types">
      <countryCode>FR</countryCode>
      <vatNumber>12345678901</vatNumber>
      <requestDate>2026-08-28+02:00</requestDate>
      <valid>true</valid>
      <name>ACME SARL</name>
      <address>1 RUE DE LA PAIX, 75002 PARIS</address>
      <requestIdentifier>WAPIAAAAW</requestIdentifier>
    </checkVatResponse>
  </soap:Body>
</soap:Envelope>`

const withheldResponseBody = `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <checkVatResponse xmlns="urn:ec.europa.eu:taxud:vies:services:checkVat:types">
      <countryCode>DE</countryCode>
      <vatNumber>123456789</vatNumber>
      <valid>true</valid>
      <name>---</name>
      <address>---</address>
    </checkVatResponse>
  </soap:Body>
</soap:Envelope>`

const faultResponseBody = `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <soap:Fault>
      <faultcode>soap:Server</faultcode>
      <faultstring>MS_MAX_CONCURRENT_REQ</faultstring>
    </soap:Fault>
  </soap:Body>
</soap:Envelope>`

func newSOAPServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.Header.Get("Content-Type"), "text/xml")
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCheckVATValidResponse(t *testing.T) {
	server := newSOAPServer(t, http.StatusOK, validResponseBody)
	client := NewClient(server.URL, time.Second)

	result, err := client.CheckVAT(context.Background(), "FR", "12345678901")

	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, "ACME SARL", result.Name)
	assert.Equal(t, "1 RUE DE LA PAIX, 75002 PARIS", result.Address)
	assert.Equal(t, "WAPIAAAAW", result.RequestID)
}

func TestCheckVATWithheldDetailsCleaned(t *testing.T) {
	server := newSOAPServer(t, http.StatusOK, withheldResponseBody)
	client := NewClient(server.URL, time.Second)

	result, err := client.CheckVAT(context.Background(), "DE", "123456789")

	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Name, "the '---' placeholder must not leak into records")
	assert.Empty(t, result.Address)
}

func TestCheckVATSoapFault(t *testing.T) {
	server := newSOAPServer(t, http.StatusOK, faultResponseBody)
	client := NewClient(server.URL, time.Second)

	_, err := client.CheckVAT(context.Background(), "FR", "12345678901")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "MS_MAX_CONCURRENT_REQ")
}

func TestCheckVATNonOKStatus(t *testing.T) {
	server := newSOAPServer(t, http.StatusServiceUnavailable, "busy")
	client := NewClient(server.URL, time.Second)

	_, err := client.CheckVAT(context.Background(), "FR", "12345678901")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestCheckVATMalformedXML(t *testing.T) {
	server := newSOAPServer(t, http.StatusOK, "<not-xml")
	client := NewClient(server.URL, time.Second)

	_, err := client.CheckVAT(context.Background(), "FR", "12345678901")

	assert.Error(t, err)
}

func TestCheckVATUnreachableServer(t *testing.T) {
	server := newSOAPServer(t, http.StatusOK, validResponseBody)
	server.Close()
	client := NewClient(server.URL, time.Second)

	_, err := client.CheckVAT(context.Background(), "FR", "12345678901")

	assert.Error(t, err)
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient("", 0)

	assert.Equal(t, DefaultEndpoint, client.endpoint)
	assert.Equal(t, DefaultTimeout, client.httpClient.Timeout)
}
