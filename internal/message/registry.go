package message

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Family identifies a device family's message vocabulary.
type Family string

// Supported device families.
const (
	FamilyVacuum       Family = "vacuum"
	FamilyAirTreatment Family = "airtreatment"
)

// typePrefix returns the internal type-name prefix for a family.
func (f Family) typePrefix() string {
	switch f {
	case FamilyVacuum:
		return "Vacuum"
	case FamilyAirTreatment:
		return "Air"
	default:
		return ""
	}
}

// schemaDef pairs a wire type tag with its JSON Schema document.
type schemaDef struct {
	wireType string
	doc      string
}

// compiledSchema holds the two compiled variants of one message schema.
//
// The lenient variant enforces required fields and types (hard failure).
// The strict variant additionally forbids unexpected extra fields; a
// strict-only failure is a soft warning, the message is still used.
type compiledSchema struct {
	wireType string
	name     string
	lenient  *jsonschema.Schema
	strict   *jsonschema.Schema
}

// Registry holds the compiled message schemas for one device family.
type Registry struct {
	family Family
	byWire map[string]*compiledSchema
}

// NewRegistry compiles the schemas for a device family.
//
// Parameters:
//   - family: Device family to build the registry for
//
// Returns:
//   - *Registry: Registry with all family schemas compiled
//   - error: If the family is unknown or a schema fails to compile
func NewRegistry(family Family) (*Registry, error) {
	var defs []schemaDef
	switch family {
	case FamilyVacuum:
		defs = vacuumSchemas
	case FamilyAirTreatment:
		defs = airSchemas
	default:
		return nil, fmt.Errorf("unknown device family %q", family)
	}

	r := &Registry{
		family: family,
		byWire: make(map[string]*compiledSchema, len(defs)),
	}

	for _, def := range defs {
		cs, err := compileSchema(family.typePrefix(), def)
		if err != nil {
			return nil, fmt.Errorf("compiling schema for %s %s: %w", family, def.wireType, err)
		}
		r.byWire[def.wireType] = cs
	}

	return r, nil
}

// Lookup returns the compiled schema for a wire type tag.
//
// Returns:
//   - *compiledSchema: The schema, or nil with ErrUnknownType
//   - error: ErrUnknownType if no schema is registered for the tag
func (r *Registry) Lookup(wireType string) (*compiledSchema, error) {
	cs, ok := r.byWire[wireType]
	if !ok {
		return nil, fmt.Errorf("%w: %q for family %s", ErrUnknownType, wireType, r.family)
	}
	return cs, nil
}

// WireTypes returns all registered wire type tags (for diagnostics).
func (r *Registry) WireTypes() []string {
	out := make([]string, 0, len(r.byWire))
	for wt := range r.byWire {
		out = append(out, wt)
	}
	return out
}

// compileSchema compiles the lenient and strict variants of one schema.
func compileSchema(prefix string, def schemaDef) (*compiledSchema, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(def.doc), &doc); err != nil {
		return nil, fmt.Errorf("unmarshalling schema document: %w", err)
	}

	lenient, err := compile(def.wireType+".json", doc)
	if err != nil {
		return nil, err
	}

	// The strict variant rejects fields the schema does not declare.
	strictDoc := make(map[string]any, len(doc)+1)
	for k, v := range doc {
		strictDoc[k] = v
	}
	strictDoc["additionalProperties"] = false

	strict, err := compile(def.wireType+".strict.json", strictDoc)
	if err != nil {
		return nil, err
	}

	return &compiledSchema{
		wireType: def.wireType,
		name:     TypeName(prefix, def.wireType),
		lenient:  lenient,
		strict:   strict,
	}, nil
}

// compile compiles a single schema document.
func compile(name string, doc any) (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}
	s, err := c.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}
	return s, nil
}

// Schema documents are written against the normalized (camelCase) key
// convention, since validation runs after key normalization. Every
// message carries the "type" tag and may carry an ISO-8601 "time".

// vacuumSchemas covers the robot vacuum family's message vocabulary,
// including the command echoes heard on the command topic.
var vacuumSchemas = []schemaDef{
	{"HELLO", `{
		"type": "object",
		"required": ["type", "model", "serial"],
		"properties": {
			"type":    {"type": "string"},
			"time":    {"type": "string"},
			"model":   {"type": "string"},
			"serial":  {"type": "string"},
			"version": {"type": "string"}
		}
	}`},
	{"CURRENT-STATE", `{
		"type": "object",
		"required": ["type", "state"],
		"properties": {
			"type":                   {"type": "string"},
			"time":                   {"type": "string"},
			"state":                  {"type": "string"},
			"cleanId":                {"type": ["string", "null"]},
			"fullCleanType":          {"type": "string"},
			"currentVacuumPowerMode": {"type": "string"},
			"defaultVacuumPowerMode": {"type": "string"},
			"batteryChargeLevel":     {"type": "number"},
			"globalPosition":         {"type": "array", "items": {"type": "number"}},
			"faults":                 {"type": "object"}
		}
	}`},
	{"STATE-CHANGE", `{
		"type": "object",
		"required": ["type", "newState"],
		"properties": {
			"type":                   {"type": "string"},
			"time":                   {"type": "string"},
			"oldState":               {"type": "string"},
			"newState":               {"type": "string"},
			"cleanId":                {"type": ["string", "null"]},
			"fullCleanType":          {"type": "string"},
			"currentVacuumPowerMode": {"type": "string"},
			"defaultVacuumPowerMode": {"type": "string"},
			"batteryChargeLevel":     {"type": "number"},
			"globalPosition":         {"type": "array", "items": {"type": "number"}},
			"faults":                 {"type": "object"}
		}
	}`},
	{"GONE-AWAY", `{
		"type": "object",
		"required": ["type"],
		"properties": {
			"type":   {"type": "string"},
			"time":   {"type": "string"},
			"reason": {"type": "string"}
		}
	}`},
	{"GOODBYE", `{
		"type": "object",
		"required": ["type"],
		"properties": {
			"type":   {"type": "string"},
			"time":   {"type": "string"},
			"reason": {"type": "string"}
		}
	}`},
	{"REQUEST-CURRENT-STATE", `{
		"type": "object",
		"required": ["type"],
		"properties": {
			"type": {"type": "string"},
			"time": {"type": "string"}
		}
	}`},
	{"START", `{
		"type": "object",
		"required": ["type"],
		"properties": {
			"type":          {"type": "string"},
			"time":          {"type": "string"},
			"fullCleanType": {"type": "string"},
			"cleanId":       {"type": ["string", "null"]},
			"zones":         {"type": "array"}
		}
	}`},
	{"PAUSE", `{
		"type": "object",
		"required": ["type"],
		"properties": {
			"type": {"type": "string"},
			"time": {"type": "string"}
		}
	}`},
	{"RESUME", `{
		"type": "object",
		"required": ["type"],
		"properties": {
			"type": {"type": "string"},
			"time": {"type": "string"}
		}
	}`},
	{"ABORT", `{
		"type": "object",
		"required": ["type"],
		"properties": {
			"type": {"type": "string"},
			"time": {"type": "string"}
		}
	}`},
}

// airSchemas covers the air-treatment family. Only the message envelope
// is modelled here; fan and thermostat business logic lives outside the
// connectivity core.
var airSchemas = []schemaDef{
	{"HELLO", `{
		"type": "object",
		"required": ["type", "model", "serial"],
		"properties": {
			"type":    {"type": "string"},
			"time":    {"type": "string"},
			"model":   {"type": "string"},
			"serial":  {"type": "string"},
			"version": {"type": "string"}
		}
	}`},
	{"CURRENT-STATE", `{
		"type": "object",
		"required": ["type", "productState"],
		"properties": {
			"type":         {"type": "string"},
			"time":         {"type": "string"},
			"modeReason":   {"type": "string"},
			"stateReason":  {"type": "string"},
			"productState": {"type": "object"},
			"scheduler":    {"type": "object"},
			"rssi":         {"type": ["string", "number"]}
		}
	}`},
	{"STATE-CHANGE", `{
		"type": "object",
		"required": ["type", "productState"],
		"properties": {
			"type":         {"type": "string"},
			"time":         {"type": "string"},
			"modeReason":   {"type": "string"},
			"stateReason":  {"type": "string"},
			"productState": {"type": "object"},
			"scheduler":    {"type": "object"}
		}
	}`},
	{"ENVIRONMENTAL-CURRENT-SENSOR-DATA", `{
		"type": "object",
		"required": ["type", "data"],
		"properties": {
			"type": {"type": "string"},
			"time": {"type": "string"},
			"data": {"type": "object"}
		}
	}`},
	{"GONE-AWAY", `{
		"type": "object",
		"required": ["type"],
		"properties": {
			"type":   {"type": "string"},
			"time":   {"type": "string"},
			"reason": {"type": "string"}
		}
	}`},
	{"GOODBYE", `{
		"type": "object",
		"required": ["type"],
		"properties": {
			"type":   {"type": "string"},
			"time":   {"type": "string"},
			"reason": {"type": "string"}
		}
	}`},
	{"REQUEST-CURRENT-STATE", `{
		"type": "object",
		"required": ["type"],
		"properties": {
			"type": {"type": "string"},
			"time": {"type": "string"}
		}
	}`},
}
