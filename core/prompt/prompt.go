package prompt

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/fieldlens/fieldlens/core/model"
	"github.com/fieldlens/fieldlens/internal/jsonschema"
)

// CompiledPrompt is the output of compilation: the instruction text and the
// mode-specific block that together form the user prompt, plus the output
// constraints a capable provider can enforce on the wire.
type CompiledPrompt struct {
	// Instructions is the leading instruction text, including the output
	// contract the model must follow.
	Instructions string

	// ExamplesBlock renders the few-shot examples in request order. Empty
	// outside few-shot mode.
	ExamplesBlock string

	// SchemaBlock renders one directive per schema field. Empty outside
	// schema mode.
	SchemaBlock string

	// OutputSchema pins the response shape for providers with native
	// structured output. Nil when the shape is open-ended.
	OutputSchema *jsonschema.Schema

	// JSONMode asks providers with a JSON output switch to enable it.
	// Providers without one ignore it; the Instructions carry the same
	// contract in prose.
	JSONMode bool
}

const fewShotContract = `Return a JSON object with an "extractions" array. Each item must have:
- "extraction_class": string
- "extraction_text": exact quote from source
- "attributes": object`

const schemaPreamble = `You are a precision data extraction engine.
Your goal is to extract specific fields from the text below and return them in a valid JSON object.`

const schemaRules = `RULES:
- Return ONLY valid JSON.
- No markdown fences, no preamble, no commentary.
- If a field is missing or not found, use null.
- Ensure types match (e.g. if type is number, do not return a string).`

// Compile validates the request and produces the compiled prompt for it.
// Errors are invalid_request provider errors; Compile never performs I/O.
func Compile(request *model.ExtractionRequest) (*CompiledPrompt, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	switch request.Mode {
	case model.ModeFewShot:
		return compileFewShot(request), nil
	case model.ModeSchema:
		return compileSchema(request), nil
	default:
		return compileClinical(), nil
	}
}

func compileFewShot(request *model.ExtractionRequest) *CompiledPrompt {
	var instructions strings.Builder
	if request.Instruction != "" {
		instructions.WriteString(request.Instruction)
		instructions.WriteString("\n\n")
	}
	instructions.WriteString(fewShotContract)

	return &CompiledPrompt{
		Instructions:  instructions.String(),
		ExamplesBlock: renderExamples(request.Examples),
		JSONMode:      true,
	}
}

func compileSchema(request *model.ExtractionRequest) *CompiledPrompt {
	var instructions strings.Builder
	instructions.WriteString(schemaPreamble)
	if request.Instruction != "" {
		instructions.WriteString("\n\n")
		instructions.WriteString(request.Instruction)
	}

	return &CompiledPrompt{
		Instructions: instructions.String(),
		SchemaBlock:  renderSchemaFields(request.SchemaFields),
		OutputSchema: schemaFor(request.SchemaFields),
		JSONMode:     true,
	}
}

// renderExamples serializes each example as its source text plus a JSON
// rendering of its spans, preserving request order. Attribute keys are sorted
// so the rendering is deterministic.
func renderExamples(examples []model.Example) string {
	var block strings.Builder
	block.WriteString("Examples:\n")
	for i, example := range examples {
		fmt.Fprintf(&block, "\nExample %d:\nText: %s\nExtractions: %s\n",
			i+1, example.Text, renderSpans(example.Extractions))
	}
	return block.String()
}

func renderSpans(spans []model.ExtractionSpan) string {
	rendered := make([]map[string]any, 0, len(spans))
	for _, span := range spans {
		entry := map[string]any{
			"extraction_class": span.Class,
			"extraction_text":  span.Text,
			"attributes":       sortedAttributes(span.Attributes),
		}
		rendered = append(rendered, entry)
	}

	encoded, err := json.MarshalIndent(rendered, "", "  ")
	if err != nil {
		// Only unmarshalable values reach here and the span types carry none.
		return "[]"
	}
	return string(encoded)
}

// sortedAttributes returns an ordered key:value rendering source. Go maps
// marshal with sorted keys already, so this only normalizes nil to empty.
func sortedAttributes(attributes map[string]string) map[string]string {
	if attributes == nil {
		return map[string]string{}
	}
	return attributes
}

// renderSchemaFields emits one directive line per field in declaration order.
func renderSchemaFields(fields []model.SchemaField) string {
	var block strings.Builder
	block.WriteString("FIELDS TO EXTRACT:\n")
	for _, field := range fields {
		fieldType := model.NormalizeFieldType(string(field.Type))
		fmt.Fprintf(&block, "- %s (%s): %s\n", field.Name, fieldType, field.Description)
	}
	block.WriteString("\n")
	block.WriteString(schemaRules)
	return block.String()
}

// schemaFor builds a JSON Schema pinning the declared field names and types.
// Every field is listed as required; absence is expressed as an explicit null
// per the prompt contract, which is why properties stay loosely typed for
// array and object fields.
func schemaFor(fields []model.SchemaField) *jsonschema.Schema {
	properties := make(map[string]*jsonschema.Schema, len(fields))
	required := make([]string, 0, len(fields))
	for _, field := range fields {
		fieldType := model.NormalizeFieldType(string(field.Type))
		property := jsonschema.Of(string(fieldType), field.Description)
		if fieldType == model.FieldArray {
			property.Items = jsonschema.Of(string(model.FieldString), "")
		}
		properties[field.Name] = property
		required = append(required, field.Name)
	}
	sort.Strings(required)
	return jsonschema.Object(properties, required)
}

// UserPrompt assembles the full prompt for one source text: instructions,
// then the mode block, then the text to process and a final JSON reminder.
func (p *CompiledPrompt) UserPrompt(sourceText string) string {
	var out strings.Builder
	out.WriteString(p.Instructions)

	if p.ExamplesBlock != "" {
		out.WriteString("\n\n")
		out.WriteString(p.ExamplesBlock)
	}
	if p.SchemaBlock != "" {
		out.WriteString("\n\n")
		out.WriteString(p.SchemaBlock)
	}

	out.WriteString("\n\nTEXT TO PROCESS:\n")
	out.WriteString(sourceText)
	out.WriteString("\n\nReturn ONLY valid JSON, no markdown fences.")
	return out.String()
}
