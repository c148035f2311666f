package types

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// EntityType is the node label of an entity in the pandemic knowledge graph.
type EntityType string

const (
	EntityCountry           EntityType = "Country"
	EntityDisease           EntityType = "Disease"
	EntityOutbreak          EntityType = "Outbreak"
	EntityVaccinationRecord EntityType = "VaccinationRecord"
	EntityOrganization      EntityType = "Organization"
	EntityVaccine           EntityType = "Vaccine"
	EntityPandemicEvent     EntityType = "PandemicEvent"
)

// Well-known property keys written by the ETL and enrichment jobs. Entities
// may carry arbitrary extra keys beyond these; renderers fall back to
// insertion order for unknown keys.
const (
	PropDescription  = "description"
	PropAbstract     = "wikipediaAbstract"
	PropSymptoms     = "symptoms"
	PropTransmission = "transmissionMethods"
	PropPathogen     = "pathogen"
	PropTreatments   = "treatments"
	PropCategory     = "category"
	PropPopulation   = "population"
	PropContinent    = "continent"
	PropCapital      = "capital"
	PropYear         = "year"
	PropCases        = "cases"
	PropDeaths       = "deaths"
	PropVaccineName  = "vaccineName"
	PropCoverage     = "coverage"
	PropManufacturer = "manufacturer"
	PropHeadquarters = "headquarters"
	PropRole         = "role"
	PropStartDate    = "startDate"
	PropDeathToll    = "deathToll"
	PropLocation     = "location"
)

// Property is a single key/value pair on an entity. Properties keep their
// insertion order so rendered output is stable across calls.
type Property struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Direction of a graph relation relative to the owning entity.
type Direction string

const (
	DirectionOut Direction = "out"
	DirectionIn  Direction = "in"
)

// Relation is one edge of an entity, e.g. (covid19)-[OCCURRED_IN]->(USA).
type Relation struct {
	Predicate   string    `json:"predicate"`
	Direction   Direction `json:"direction"`
	TargetID    string    `json:"target_id"`
	TargetLabel string    `json:"target_label,omitempty"`
}

// Entity is a read-only snapshot of a knowledge graph node. The graph store
// owns persistence; the pipeline never mutates an Entity. Embedding is the
// cached vector computed by the external enrichment job and may be nil on
// unenriched deployments. Embedding dimensionality is constant across all
// entities of a deployment.
type Entity struct {
	ID         string      `json:"id"`
	Type       EntityType  `json:"type"`
	Label      string      `json:"label"`
	Properties []Property  `json:"properties,omitempty"`
	Relations  []Relation  `json:"relations,omitempty"`
	Embedding  []float64   `json:"embedding,omitempty"`
}

// EntityRef is a lightweight pointer to an entity, used for chat sources.
type EntityRef struct {
	ID    string     `json:"id"`
	Label string     `json:"label"`
	Type  EntityType `json:"type"`
}

// Ref returns a lightweight reference to the entity.
func (e *Entity) Ref() EntityRef {
	return EntityRef{ID: e.ID, Label: e.Label, Type: e.Type}
}

// Property returns the value for key and whether it is present.
func (e *Entity) Property(key string) (any, bool) {
	for _, p := range e.Properties {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// Description returns the best description-like property, preferring the
// curated description over the Wikipedia abstract.
func (e *Entity) Description() string {
	if v, ok := e.Property(PropDescription); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if v, ok := e.Property(PropAbstract); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Snippet renders a short result snippet: the description truncated at a
// word boundary, or a property digest when no description exists.
func (e *Entity) Snippet(maxLen int) string {
	if desc := e.Description(); desc != "" {
		return TruncateWords(desc, maxLen)
	}

	var parts []string
	for _, p := range e.Properties {
		if len(parts) >= 3 {
			break
		}
		if p.Value == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %v", p.Key, p.Value))
	}
	if len(parts) > 0 {
		return TruncateWords(strings.Join(parts, " | "), maxLen)
	}
	return fmt.Sprintf("%s from knowledge graph", e.Type)
}

// TruncateWords cuts s to at most maxLen bytes, breaking at the last word
// boundary before the limit when possible. The cut never splits a multi-byte
// rune.
func TruncateWords(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	end := maxLen
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	cut := s[:end]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
