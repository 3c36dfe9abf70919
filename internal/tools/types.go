// Package tools defines the structured tool table exposed to clients: one tool
// per drawing operation plus process_command. Each tool carries a JSON Schema
// describing its arguments and knows how to decode those arguments into an
// intent. The same definitions are served over MCP and the HTTP API.
package tools

// ToolTypeFunction is the standard type for function-based tools.
const ToolTypeFunction = "function"

// Tool defines the schema for a callable operation as it is described to clients.
type Tool struct {
	// Type specifies the type of tool, which is always "function".
	Type string `json:"type"`
	// Function holds the detailed definition of the function.
	Function Function `json:"function"`
}

// Function defines the name, description, and parameters of a callable tool.
type Function struct {
	// Name is the tool name clients call, e.g. "draw_circle".
	Name string `json:"name"`
	// Description is a clear, concise explanation of what the tool does.
	// Conversational clients rely on it to decide when to use the tool.
	Description string `json:"description"`
	// Parameters defines the arguments the tool accepts, structured as a JSON Schema.
	Parameters JSONSchema `json:"parameters"`
}

// JSONSchema provides a structured, type-safe representation of the subset of
// JSON Schema used by the tool table.
type JSONSchema struct {
	// Type defines the data type for a schema node (e.g., "object", "number", "array").
	// For the top-level parameters object, this should always be "object".
	Type string `json:"type"`
	// Description explains what a specific parameter is for.
	Description string `json:"description,omitempty"`
	// Properties describes the parameters of an object, keyed by parameter name.
	Properties map[string]*JSONSchema `json:"properties,omitempty"`
	// Required is a list of parameter names that are mandatory for a call.
	Required []string `json:"required,omitempty"`
	// Items describes the elements of an array.
	Items    *JSONSchema `json:"items,omitempty"`
	MinItems *int        `json:"minItems,omitempty"`
	MaxItems *int        `json:"maxItems,omitempty"`
	Minimum  *float64    `json:"minimum,omitempty"`
	Maximum  *float64    `json:"maximum,omitempty"`
	// Default documents the value used when the parameter is omitted.
	Default any `json:"default,omitempty"`
}

// NewFunctionTool is a helper function that simplifies the creation of a new Tool.
// It reduces boilerplate and ensures the tool is created with the correct "function" type.
//
// Parameters:
//   - name: The name of the tool.
//   - description: A clear description of what the tool does.
//   - parameters: A JSONSchema struct defining the tool's arguments.
func NewFunctionTool(name, description string, parameters JSONSchema) Tool {
	return Tool{
		Type: ToolTypeFunction,
		Function: Function{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}

// Name returns the function name.
func (t Tool) Name() string {
	return t.Function.Name
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

// objectSchema builds a top-level parameters schema.
func objectSchema(required []string, props map[string]*JSONSchema) JSONSchema {
	return JSONSchema{Type: "object", Properties: props, Required: required}
}

// pointSchema describes an [x, y] or [x, y, z] coordinate array.
func pointSchema(description string) *JSONSchema {
	return &JSONSchema{
		Type:        "array",
		Description: description,
		Items:       &JSONSchema{Type: "number"},
		MinItems:    intPtr(2),
		MaxItems:    intPtr(3),
	}
}

// pointListSchema describes an array of coordinate arrays with at least min entries.
func pointListSchema(description string, min int) *JSONSchema {
	return &JSONSchema{
		Type:        "array",
		Description: description,
		Items:       pointSchema("Point coordinates [x, y]"),
		MinItems:    intPtr(min),
	}
}

func numberSchema(description string) *JSONSchema {
	return &JSONSchema{Type: "number", Description: description}
}

func positiveSchema(description string) *JSONSchema {
	return &JSONSchema{Type: "number", Description: description, Minimum: floatPtr(0)}
}

func stringSchema(description string) *JSONSchema {
	return &JSONSchema{Type: "string", Description: description}
}

// withStyle adds the optional layer, color and lineweight parameters.
func withStyle(props map[string]*JSONSchema) map[string]*JSONSchema {
	props["layer"] = stringSchema("Layer name (optional)")
	props["color"] = &JSONSchema{
		Type:        "integer",
		Description: "Color index (optional): 1 Red, 2 Yellow, 3 Green, 4 Cyan, 5 Blue, 6 Magenta, 7 White",
		Minimum:     floatPtr(0),
		Maximum:     floatPtr(255),
	}
	props["lineweight"] = &JSONSchema{
		Type:        "integer",
		Description: "Line weight in hundredths of mm (optional)",
	}
	return props
}
