package domain

import (
	"strconv"
	"strings"
)

// blockLines is the fixed shape of an r1 response: request echo, codes,
// values, units, terminator.
const blockLines = 5

// fieldSep separates entries on the codes, values, and units lines.
const fieldSep = ","

// ParseBlock decodes one raw r1 response block into a Reading keyed by
// canonical identifier.
//
// A nil or empty input, or a block with the wrong line count, yields nil (the
// absent sentinel). A structurally sound block in which nothing was readable
// yields an empty non-nil Reading.
//
// Parsing is per-position and corruption tolerant: a value token with embedded
// garbage drops only its own field, and the shortest of the three lists bounds
// iteration so a truncated line never indexes out of range.
func (c *Catalog) ParseBlock(raw []byte) Reading {
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	lines := strings.Split(strings.TrimRight(text, "\n\r \t"), "\n")
	if len(lines) != blockLines {
		return nil
	}

	codes := splitFields(lines[1])
	values := splitFields(lines[2])
	units := splitFields(lines[3])

	n := len(codes)
	if len(values) < n {
		n = len(values)
	}
	if len(units) < n {
		n = len(units)
	}

	reading := make(Reading)
	seen := make(map[string]int)
	for i := 0; i < n; i++ {
		code := strings.TrimSuffix(codes[i], "=")
		occurrence := seen[code]
		seen[code]++

		v, err := strconv.ParseFloat(values[i], 64)
		if err != nil {
			// Garbled token; drop this field, keep its siblings.
			continue
		}
		id, ok := c.Resolve(code, occurrence, units[i])
		if !ok {
			continue
		}
		reading[id] = v
	}
	return reading
}

// splitFields splits a block line on the field separator and trims each token.
func splitFields(line string) []string {
	parts := strings.Split(line, fieldSep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// Convert rescales every field of a Reading into canonical units using its
// catalog conversion rule. Keys are preserved 1:1. Identifiers without a
// catalog entry pass through unchanged. Absent input propagates as absent
// output.
func (c *Catalog) Convert(r Reading) Reading {
	if r == nil {
		return nil
	}
	out := make(Reading, len(r))
	for id, v := range r {
		if spec, ok := c.Spec(id); ok {
			out[id] = spec.Conv.Apply(v)
			continue
		}
		out[id] = v
	}
	return out
}

// MapFields re-keys a converted Reading by catalog output names, producing the
// Observation handed to downstream consumers. Absent input propagates as
// absent output.
func (c *Catalog) MapFields(r Reading) Observation {
	if r == nil {
		return nil
	}
	out := make(Observation, len(r))
	for id, v := range r {
		if spec, ok := c.Spec(id); ok {
			out[spec.Name] = v
			continue
		}
		out[id] = v
	}
	return out
}

// Decode runs the full three-stage decode for one raw block: parse into raw
// readings, convert to canonical units, then re-key to output names. Absence
// short-circuits through every stage, so no data in means no data out rather
// than an empty observation.
func (c *Catalog) Decode(raw []byte) Observation {
	return c.MapFields(c.Convert(c.ParseBlock(raw)))
}
