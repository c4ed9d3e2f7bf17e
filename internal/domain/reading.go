package domain

import "time"

// Reading maps canonical field identifiers (wind_speed, air_temperature, ...)
// to measured values. A nil Reading is the absent sentinel: no block was
// obtained. An empty non-nil Reading means a block arrived but no field in it
// was readable.
type Reading map[string]float64

// Observation maps output schema names (windSpeed, outTemp, ...) to values in
// canonical units. Same nil-vs-empty convention as Reading.
type Observation map[string]float64

// Record is one decoded station sample, the unit handed to the sink.
type Record struct {
	Station    string      `json:"station"`
	ObservedAt time.Time   `json:"observed_at"`
	Fields     Observation `json:"fields"`
}

// NewRecord stamps an observation with the station id and the current time.
func NewRecord(station string, fields Observation) Record {
	return Record{
		Station:    station,
		ObservedAt: clock.Now().UTC(),
		Fields:     fields,
	}
}
