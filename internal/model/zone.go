package model

// Zone is the classification outcome describing which tax regime applies to a
// transaction. It is computed per call and never persisted as an entity; the
// string codes below are only used to scope TaxRate rows.
type Zone int

const (
	ZoneDomestic Zone = iota
	ZoneEUWithRegistration
	ZoneEUSimplifiedScheme
	ZoneEUWithoutRegistration
	ZoneThirdCountryExport
)

// zoneCodes maps each zone to its stable storage/API code.
var zoneCodes = map[Zone]string{
	ZoneDomestic:              "domestic",
	ZoneEUWithRegistration:    "eu_registered",
	ZoneEUSimplifiedScheme:    "eu_oss",
	ZoneEUWithoutRegistration: "eu_unregistered",
	ZoneThirdCountryExport:    "export",
}

// Code returns the stable identifier used in TaxRate zone scopes and API
// responses.
func (z Zone) Code() string {
	if c, ok := zoneCodes[z]; ok {
		return c
	}
	return "unknown"
}

func (z Zone) String() string { return z.Code() }

// ZeroRated reports whether the zone short-circuits rate resolution to 0%.
func (z Zone) ZeroRated() bool {
	return z == ZoneEUWithRegistration || z == ZoneThirdCountryExport
}
