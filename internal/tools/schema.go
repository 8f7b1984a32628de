package tools

import "github.com/4ug-aug/presentor/internal/llm"

// Schema describes a tool for JSON schema/tool-calling.
type Schema struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Parameters  []SchemaField `json:"parameters"`
	Sensitive   bool          `json:"sensitive,omitempty"`
}

// SchemaField describes a single parameter.
type SchemaField struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Required    bool     `json:"required"`
	Enum        []string `json:"enum,omitempty"`
}

// Schemas provides descriptors for available tools.
func (r *Registry) Schemas() []Schema {
	return []Schema{
		{
			Name:        "create_slide",
			Description: "Append a new slide to the presentation",
			Parameters: []SchemaField{
				{Name: "html", Type: "string", Description: "Full HTML content of the slide", Required: true},
				{Name: "notes", Type: "string", Description: "Speaker notes", Required: false},
			},
		},
		{
			Name:        "update_slide",
			Description: "Replace the content of an existing slide",
			Parameters: []SchemaField{
				{Name: "slide_index", Type: "integer", Description: "Zero-based slide index", Required: true},
				{Name: "html", Type: "string", Description: "Full HTML content of the slide", Required: true},
				{Name: "notes", Type: "string", Description: "Speaker notes; omit to keep existing notes", Required: false},
			},
		},
		{
			Name:        "delete_slide",
			Description: "Delete a slide from the presentation",
			Parameters: []SchemaField{
				{Name: "slide_index", Type: "integer", Description: "Zero-based slide index", Required: true},
			},
			Sensitive: true,
		},
		{
			Name:        "get_slide_info",
			Description: "Inspect a slide, or the whole presentation if no index is given",
			Parameters: []SchemaField{
				{Name: "slide_index", Type: "integer", Description: "Zero-based slide index", Required: false},
			},
		},
		{
			Name:        "list_available_images",
			Description: "List uploaded images that can be referenced from slide HTML",
			Parameters:  []SchemaField{},
		},
	}
}

// Definitions converts the catalog into the shape providers send on the wire.
func (r *Registry) Definitions() []llm.ToolDefinition {
	schemas := r.Schemas()
	defs := make([]llm.ToolDefinition, 0, len(schemas))
	for _, s := range schemas {
		props := make(map[string]any, len(s.Parameters))
		required := []string{}
		for _, f := range s.Parameters {
			prop := map[string]any{"type": f.Type}
			if f.Description != "" {
				prop["description"] = f.Description
			}
			if len(f.Enum) > 0 {
				prop["enum"] = f.Enum
			}
			props[f.Name] = prop
			if f.Required {
				required = append(required, f.Name)
			}
		}
		defs = append(defs, llm.ToolDefinition{
			Name:        s.Name,
			Description: s.Description,
			Parameters: map[string]any{
				"type":       "object",
				"properties": props,
				"required":   required,
			},
		})
	}
	return defs
}
