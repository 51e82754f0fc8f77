// Package tools defines the registry the agent dispatches tool calls to and
// the meal tools built on a recipe index.
package tools

import (
	"context"
	"encoding/json"
)

// ParamType is the JSON type of a tool parameter.
type ParamType string

const (
	String  ParamType = "string"
	Number  ParamType = "number"
	Integer ParamType = "integer"
	Boolean ParamType = "boolean"
	Array   ParamType = "array"
	Object  ParamType = "object"
)

// Param describes one named tool argument.
type Param struct {
	Name        string
	Type        ParamType
	Required    bool
	Description string
	// Enum restricts string values.
	Enum []string
	// Items is the element type of an Array parameter.
	Items ParamType
}

// Schema is the part of a tool the model sees.
type Schema struct {
	Name        string
	Description string
	Params      []Param
}

// JSONSchema renders the parameters as a JSON Schema object.
func (s Schema) JSONSchema() map[string]interface{} {
	props := make(map[string]interface{}, len(s.Params))
	required := []string{}
	for _, p := range s.Params {
		prop := map[string]interface{}{
			"type":        string(p.Type),
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Type == Array && p.Items != "" {
			prop["items"] = map[string]interface{}{"type": string(p.Items)}
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func (s Schema) param(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Handler runs a tool with validated arguments.
type Handler func(ctx context.Context, args map[string]interface{}) (Result, error)

// Descriptor binds a schema to its handler.
type Descriptor struct {
	Schema  Schema
	Handler Handler
}

// Call is a tool invocation requested by the model.
type Call struct {
	ID        string
	Name      string
	Arguments map[string]interface{}
}

// Result is what a tool hands back to the conversation. Failures are results
// too: IsError is set and Rationale explains what went wrong.
type Result struct {
	Data      map[string]interface{}
	Rationale string
	IsError   bool
}

// Failure builds an error result.
func Failure(rationale string) Result {
	return Result{Rationale: rationale, IsError: true}
}

// Content renders the result as the text sent back to the model.
func (r Result) Content() string {
	out := map[string]interface{}{}
	if r.Data != nil {
		out["data"] = r.Data
	}
	if r.Rationale != "" {
		out["rationale"] = r.Rationale
	}
	if r.IsError {
		out["error"] = true
	}
	b, err := json.Marshal(out)
	if err != nil {
		return `{"error":true,"rationale":"result could not be encoded"}`
	}
	return string(b)
}
