package model

import (
	"fmt"
	"strings"

	"github.com/fieldlens/fieldlens/providers/ai"
)

// Mode selects how the extraction is specified: by labeled examples or by a
// declared field schema.
type Mode string

const (
	ModeFewShot Mode = "few_shot"
	ModeSchema  Mode = "schema"

	// ModeClinical runs the built-in clinical EMR cleaning prompt. It needs
	// neither examples nor schema fields; the output contract is fixed.
	ModeClinical Mode = "clinical"
)

// Vendor identifies one of the supported LLM providers.
type Vendor string

const (
	VendorGemini    Vendor = "gemini"
	VendorOpenAI    Vendor = "openai"
	VendorAnthropic Vendor = "anthropic"
	VendorGLM       Vendor = "glm"
)

// Vendors lists the supported providers in catalogue order.
func Vendors() []Vendor {
	return []Vendor{VendorGemini, VendorOpenAI, VendorAnthropic, VendorGLM}
}

// FieldType is the declared type of a schema field.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldArray   FieldType = "array"
	FieldObject  FieldType = "object"
)

// NormalizeFieldType maps an arbitrary type string onto a known FieldType,
// defaulting to string for anything unrecognized.
func NormalizeFieldType(raw string) FieldType {
	switch FieldType(strings.ToLower(strings.TrimSpace(raw))) {
	case FieldNumber:
		return FieldNumber
	case FieldBoolean:
		return FieldBoolean
	case FieldArray:
		return FieldArray
	case FieldObject:
		return FieldObject
	default:
		return FieldString
	}
}

// ExtractionSpan is one labeled extraction inside a few-shot example:
// a class name, the exact text it covers, and optional attributes.
// Overlapping or duplicate spans within one example are allowed.
type ExtractionSpan struct {
	Class      string            `json:"extraction_class" yaml:"extraction_class"`
	Text       string            `json:"extraction_text" yaml:"extraction_text"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Example is a demonstration source text paired with the extractions the
// model should imitate.
type Example struct {
	Text        string           `json:"text" yaml:"text"`
	Extractions []ExtractionSpan `json:"extractions" yaml:"extractions"`
}

// SchemaField is a named, typed slot the model must fill from the input text.
type SchemaField struct {
	ID          int       `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Type        FieldType `json:"type" yaml:"type"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
}

// ExtractionRequest is the provider-agnostic specification of one extraction.
// Exactly one of Examples or SchemaFields is populated, matching Mode.
// Credential is an opaque secret and must never be logged or persisted.
type ExtractionRequest struct {
	SourceText   string        `json:"text" yaml:"text"`
	Mode         Mode          `json:"mode" yaml:"mode"`
	Instruction  string        `json:"instruction,omitempty" yaml:"instruction,omitempty"`
	Examples     []Example     `json:"examples,omitempty" yaml:"examples,omitempty"`
	SchemaFields []SchemaField `json:"schema_fields,omitempty" yaml:"schema_fields,omitempty"`
	ModelID      string        `json:"model_id" yaml:"model_id"`
	Provider     Vendor        `json:"provider" yaml:"provider"`
	Credential   string        `json:"-" yaml:"-"`
}

// Validate checks the structural invariants of the request. Violations are
// reported as invalid_request provider errors so they surface through the
// same taxonomy as adapter failures.
func (r *ExtractionRequest) Validate() error {
	if strings.TrimSpace(r.SourceText) == "" {
		return ai.InvalidRequestError("source text must not be empty")
	}

	switch r.Provider {
	case VendorGemini, VendorOpenAI, VendorAnthropic, VendorGLM:
	default:
		return ai.InvalidRequestError(fmt.Sprintf("unsupported provider %q", r.Provider))
	}

	if r.ModelID == "" {
		return ai.InvalidRequestError("model id must not be empty")
	}

	switch r.Mode {
	case ModeFewShot:
		if len(r.Examples) == 0 {
			return ai.InvalidRequestError("few-shot mode requires at least one example")
		}
		if len(r.SchemaFields) > 0 {
			return ai.InvalidRequestError("few-shot mode must not carry schema fields")
		}
		for i, example := range r.Examples {
			for _, span := range example.Extractions {
				if !strings.Contains(example.Text, span.Text) {
					return ai.InvalidRequestError(fmt.Sprintf(
						"example %d: extraction text %q is not a substring of the example text", i+1, span.Text))
				}
			}
		}
	case ModeSchema:
		if len(r.SchemaFields) == 0 {
			return ai.InvalidRequestError("schema mode requires at least one field")
		}
		if len(r.Examples) > 0 {
			return ai.InvalidRequestError("schema mode must not carry examples")
		}
		for i, field := range r.SchemaFields {
			if strings.TrimSpace(field.Name) == "" {
				return ai.InvalidRequestError(fmt.Sprintf("schema field %d has an empty name", i+1))
			}
		}
	case ModeClinical:
		if len(r.Examples) > 0 || len(r.SchemaFields) > 0 {
			return ai.InvalidRequestError("clinical mode takes no examples or schema fields")
		}
	default:
		return ai.InvalidRequestError(fmt.Sprintf("unknown extraction mode %q", r.Mode))
	}

	return nil
}
