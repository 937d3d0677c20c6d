package service

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultEUCountries is the static EU membership allow-list. It is data, not
// code: membership and VAT-area composition change by treaty, so deployments
// override it through configuration and review it independently of releases.
// "EL" is the VAT-number prefix Greece uses alongside its ISO code "GR".
var DefaultEUCountries = []string{
	"AT", "BE", "BG", "HR", "CY", "CZ", "DK", "EE", "FI", "FR",
	"DE", "GR", "EL", "HU", "IE", "IT", "LV", "LT", "LU", "MT",
	"NL", "PL", "PT", "RO", "SK", "SI", "ES", "SE",
}

// Statutory fallback wording used when no Exemption row is configured for a
// code. Classification must never lose its invoice wording to a missing row.
const (
	fallbackIntraCommunityText   = "Steuerfreie innergemeinschaftliche Lieferung gem. § 4 Nr. 1b UStG i.V.m. § 6a UStG. Steuerschuldnerschaft des Leistungsempfängers (Reverse Charge)."
	fallbackIntraCommunityTextEN = "VAT-exempt intra-Community supply. The recipient is liable for the VAT (reverse charge)."
	fallbackExportText           = "Steuerfreie Ausfuhrlieferung gem. § 4 Nr. 1a UStG i.V.m. § 6 UStG."
	fallbackExportTextEN         = "VAT-exempt export supply to a third country."
)

// Config carries the jurisdiction parameters of the engine. Everything here
// is deployment data; nothing is compiled into the classification logic.
type Config struct {
	HomeCountry        string          // seller's establishment country, e.g. "DE"
	DefaultRatePercent decimal.Decimal // fallback when no TaxRate row matches
	EUCountries        []string        // explicit allow-list, reviewed independently
	MinVATNumberLength int             // normalized numbers below this are rejected outright
	Language           string          // exemption wording language, "en" selects translations
	BatchConcurrency   int             // cap on parallel verifications in batch recalculation

	euSet map[string]struct{}
}

// WithDefaults fills unset fields with the reference deployment values.
func (c Config) WithDefaults() Config {
	if c.HomeCountry == "" {
		c.HomeCountry = "DE"
	}
	if c.DefaultRatePercent.IsZero() {
		c.DefaultRatePercent = decimal.NewFromInt(19)
	}
	if len(c.EUCountries) == 0 {
		c.EUCountries = DefaultEUCountries
	}
	if c.MinVATNumberLength <= 0 {
		c.MinVATNumberLength = 4
	}
	if c.BatchConcurrency <= 0 {
		c.BatchConcurrency = 8
	}
	c.euSet = make(map[string]struct{}, len(c.EUCountries))
	for _, country := range c.EUCountries {
		c.euSet[strings.ToUpper(country)] = struct{}{}
	}
	return c
}

// IsEU reports whether a country code is on the configured EU allow-list.
// The home country is classified as Domestic before this is ever consulted.
func (c Config) IsEU(country string) bool {
	_, ok := c.euSet[strings.ToUpper(country)]
	return ok
}

// IsHome reports whether the destination is the seller's own country.
func (c Config) IsHome(country string) bool {
	return strings.EqualFold(country, c.HomeCountry)
}
