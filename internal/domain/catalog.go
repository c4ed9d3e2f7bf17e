package domain

import "fmt"

// ConversionKind selects one of the closed set of conversion rules a catalog
// row may carry.
type ConversionKind int

const (
	// ConvIdentity leaves the value unchanged.
	ConvIdentity ConversionKind = iota
	// ConvScale multiplies by Factor (unit rescale: mm→cm, mA→A, Mins→s).
	ConvScale
	// ConvAffine applies v*Factor + Offset.
	ConvAffine
)

// Conversion is a fixed linear transform from a raw instrument unit to the
// canonical output unit.
type Conversion struct {
	Kind   ConversionKind
	Factor float64
	Offset float64
}

// Identity returns the no-op conversion.
func Identity() Conversion { return Conversion{Kind: ConvIdentity} }

// Scale returns a pure rescale conversion.
func Scale(factor float64) Conversion {
	return Conversion{Kind: ConvScale, Factor: factor}
}

// Affine returns a scale-plus-offset conversion.
func Affine(factor, offset float64) Conversion {
	return Conversion{Kind: ConvAffine, Factor: factor, Offset: offset}
}

// Apply transforms a raw value into canonical units. Pure and total over any
// finite input.
func (c Conversion) Apply(v float64) float64 {
	switch c.Kind {
	case ConvScale:
		return v * c.Factor
	case ConvAffine:
		return v*c.Factor + c.Offset
	default:
		return v
	}
}

// FieldSpec is one catalog row describing a single instrument field.
type FieldSpec struct {
	// Code is the short instrument field code ("WS", "IW", ...). Codes are not
	// unique within a block.
	Code string
	// Unit is the raw unit string the instrument reports for this field. It
	// disambiguates repeated codes.
	Unit string
	// ID is the canonical identifier, unique across the catalog.
	ID string
	// Name is the output schema name, unique across the catalog.
	Name string
	// Conv converts raw instrument values into canonical units.
	Conv Conversion
}

// Catalog is the static table of known instrument fields. It is immutable
// after construction and safe for concurrent readers.
type Catalog struct {
	byCode map[string][]FieldSpec
	byID   map[string]FieldSpec
}

// NewCatalog builds a catalog from specs, enforcing the construction
// invariants: canonical identifiers and output names must each be unique.
// Violations are configuration bugs, reported at startup rather than silently
// resolved at runtime.
func NewCatalog(specs []FieldSpec) (*Catalog, error) {
	c := &Catalog{
		byCode: make(map[string][]FieldSpec),
		byID:   make(map[string]FieldSpec, len(specs)),
	}
	names := make(map[string]string, len(specs))

	for _, s := range specs {
		if s.Code == "" || s.ID == "" || s.Name == "" {
			return nil, fmt.Errorf("catalog: spec %+v has empty code, id, or name", s)
		}
		if prev, ok := c.byID[s.ID]; ok {
			return nil, fmt.Errorf("catalog: identifier %q used by codes %q and %q", s.ID, prev.Code, s.Code)
		}
		if prevID, ok := names[s.Name]; ok {
			return nil, fmt.Errorf("catalog: output name %q used by identifiers %q and %q", s.Name, prevID, s.ID)
		}
		c.byID[s.ID] = s
		names[s.Name] = s.ID
		c.byCode[s.Code] = append(c.byCode[s.Code], s)
	}
	return c, nil
}

// Resolve maps a (code, occurrence, unit) triple from a parsed block to a
// canonical identifier. Occurrence is the zero-based count of earlier
// positions in the same block carrying the same code.
//
// A code with a single catalog row resolves regardless of the unit token;
// station firmware pads unit strings inconsistently and a lone candidate is
// unambiguous anyway. Repeated codes resolve by exact unit match first, then
// by occurrence index. Unknown codes miss: firmware may emit fields the
// catalog does not know yet, and forward compatibility means ignoring them.
func (c *Catalog) Resolve(code string, occurrence int, unit string) (string, bool) {
	candidates := c.byCode[code]
	switch len(candidates) {
	case 0:
		return "", false
	case 1:
		return candidates[0].ID, true
	}
	for _, s := range candidates {
		if s.Unit == unit {
			return s.ID, true
		}
	}
	if occurrence >= 0 && occurrence < len(candidates) {
		return candidates[occurrence].ID, true
	}
	return "", false
}

// Spec returns the catalog row for a canonical identifier.
func (c *Catalog) Spec(id string) (FieldSpec, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// weatherMate3000Specs is the r1 response table for the Weather Mate 3000
// family. Raw units are as printed on the units line of the block; scale
// factors take minutes to seconds, millimetres to centimetres, and milliamps
// to amps.
var weatherMate3000Specs = []FieldSpec{
	{Code: "WS", Unit: "km/h", ID: "wind_speed", Name: "avg_wind_speed", Conv: Identity()},
	{Code: "WD", Unit: "Degs", ID: "wind_direction", Name: "avg_wind_direction", Conv: Identity()},
	{Code: "RH", Unit: "%", ID: "relative_humidity", Name: "outHumidity", Conv: Identity()},
	{Code: "AT", Unit: "DegC", ID: "air_temperature", Name: "outTemp", Conv: Identity()},
	{Code: "BP", Unit: "hPa", ID: "barometric_pressure", Name: "barometer", Conv: Identity()},
	{Code: "BV", Unit: "V", ID: "battery_voltage", Name: "batteryStatus1", Conv: Identity()},
	{Code: "LC", Unit: "mA", ID: "load_current", Name: "load_current", Conv: Scale(0.001)},
	{Code: "SV", Unit: "V", ID: "solar_voltage", Name: "solar_voltage", Conv: Identity()},
	{Code: "CC", Unit: "mA", ID: "charge_current", Name: "charge_current", Conv: Scale(0.001)},
	{Code: "PW", Unit: "km/h", ID: "peak_wind_gust", Name: "windGust", Conv: Identity()},
	{Code: "IW", Unit: "km/h", ID: "instantaneous_wind_speed", Name: "windSpeed", Conv: Identity()},
	{Code: "IW", Unit: "Degs", ID: "instantaneous_wind_direction", Name: "windDir", Conv: Identity()},
	{Code: "RS", Unit: "mm", ID: "rain_since_9am", Name: "rain_9am", Conv: Scale(0.1)},
	{Code: "Co", Unit: "Mins", ID: "communications", Name: "communications", Conv: Scale(60)},
}

// DefaultCatalog returns the Weather Mate 3000 r1 catalog. The table is
// compile-time data, so a validation failure is a programming error.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(weatherMate3000Specs)
	if err != nil {
		panic(err)
	}
	return c
}
