package models

import (
	"fmt"
	"math"
	"strings"

	"bitbucket.org/mmdatafocus/salesinsight_backend/utils"
)

// ColumnMapping assigns schema fields to source column headers.
type ColumnMapping map[Field]string

// InferColumnMapping guesses the best header for every schema field using
// fuzzy matching against the field's synonym list. Headers are compared
// lower-cased and trimmed. Fields whose best candidate does not clear the
// policy threshold are left out of the mapping.
//
// When any required field stays unmatched the partial mapping is returned
// together with ErrIncompleteMapping so callers can prefill a manual
// mapping form. Two fields picking the same header is legal here;
// collisions are rejected at confirmation time by Validate.
func InferColumnMapping(headers []string, policy utils.ThresholdPolicy) (ColumnMapping, error) {
	mapping := ColumnMapping{}
	for _, field := range AllFields() {
		best := ""
		bestScore := math.Inf(-1)
		for _, header := range headers {
			h := strings.ToLower(strings.TrimSpace(header))
			if h == "" {
				continue
			}
			for _, term := range synonymsFor(field) {
				if score := policy.Score(h, strings.ToLower(term)); score > bestScore {
					bestScore = score
					best = header
				}
			}
		}
		if best != "" && policy.Accept(bestScore) {
			mapping[field] = best
		}
	}
	if missing := mapping.MissingRequired(); len(missing) > 0 {
		return mapping, fmt.Errorf("%w: %s", ErrIncompleteMapping, joinFields(missing))
	}
	return mapping, nil
}

// MissingRequired lists the required fields the mapping does not cover.
func (m ColumnMapping) MissingRequired() []Field {
	var missing []Field
	for _, field := range RequiredFields() {
		if strings.TrimSpace(m[field]) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// Validate enforces the confirmation-time invariant: all required fields
// mapped, each to a distinct column.
func (m ColumnMapping) Validate() error {
	seen := map[string]Field{}
	for _, field := range RequiredFields() {
		column := strings.TrimSpace(m[field])
		if column == "" {
			return fmt.Errorf("%w: %s is not mapped", ErrInvalidMapping, field)
		}
		if prev, dup := seen[column]; dup {
			return fmt.Errorf("%w: %s and %s both map to %q", ErrInvalidMapping, prev, field, column)
		}
		seen[column] = field
	}
	return nil
}

// HasCost reports whether the optional cost column is mapped.
func (m ColumnMapping) HasCost() bool {
	return strings.TrimSpace(m[FieldCost]) != ""
}

// columnIndexes resolves the mapping's header names to positions in the
// batch header list.
func (m ColumnMapping) columnIndexes(headers []string) (map[Field]int, error) {
	position := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, ok := position[h]; !ok {
			position[h] = i
		}
	}
	indexes := make(map[Field]int, len(m))
	for field, column := range m {
		if strings.TrimSpace(column) == "" {
			continue
		}
		i, ok := position[column]
		if !ok {
			return nil, fmt.Errorf("%w: column %q not found in headers", ErrInvalidMapping, column)
		}
		indexes[field] = i
	}
	return indexes, nil
}

func joinFields(fields []Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
