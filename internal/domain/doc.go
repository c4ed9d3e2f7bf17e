// Package domain decodes Environdata Weather Mate 3000 telemetry blocks into
// normalized observations.
//
// # The r1 block
//
// The station answers an "r1" request with a five-line ASCII block:
//
//	r1
//	WS=   ,WD=   ,RH=   ,AT=   ,BP=   ,BV=   ,LC=   ,SV=   ,CC=   ,PW=   ,IW=   ,IW=   ,RS=   ,Co=
//	+000002.20,+000111.21,+000068.49,+000014.30,+001004.02,+000012.55,+000041.88,+000008.23,+000000.00,+000003.00,+000002.00,+000045.32,+000012.20,+000001.00
//	km/h  ,Degs  ,%     ,DegC  ,hPa   ,V     ,mA    ,V     ,mA    ,km/h  ,km/h  ,Degs  ,mm    ,Mins
//	>
//
// Line 1 echoes the request, line 2 lists field codes, line 3 the values,
// line 4 the units, and line 5 is the ">" terminator. The three comma-separated
// lists are positionally aligned: the Nth code owns the Nth value and the Nth
// unit.
//
// # Field codes
//
// Codes are short and not unique. "IW" appears twice per block: once as the
// instantaneous wind speed (km/h) and once as the instantaneous wind direction
// (Degs). The [Catalog] disambiguates repeated codes by unit string, falling
// back to the occurrence index when the unit token is unreadable.
//
// # Decoding stages
//
// Decoding runs in three stages, each of which passes absence through
// untouched:
//
//  1. Parse: block text → [Reading] keyed by canonical identifier. A value
//     token that fails numeric parsing drops only its own field; station
//     firmware occasionally garbles single fields mid-block and one bad value
//     must never invalidate its siblings.
//  2. Convert: instrument units → canonical units (Mins→s, mm→cm, mA→A).
//  3. Map: canonical identifiers → the output schema names downstream
//     consumers expect (windSpeed, outTemp, barometer, ...).
//
// A nil Reading means no data was obtained from the station; an empty non-nil
// Reading means a block arrived but nothing in it was readable. Callers that
// care about the difference (the poll pipeline does) must not conflate the two.
package domain
