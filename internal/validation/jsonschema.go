package validation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/flowkit-io/flowkit/pkg/schema"
)

// workflowSchemaJSON is the JSON Schema for Workflow validation. Embedded as
// a constant to avoid filesystem dependencies. It covers the structural
// checks: required name and steps, non-empty run per step, and non-negative
// timeout/retries/retry_delay.
const workflowSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://flowkit.io/schemas/workflow.json",
  "type": "object",
  "required": ["name", "steps"],
  "properties": {
    "name": {
      "type": "string",
      "minLength": 1
    },
    "description": { "type": "string" },
    "version": { "type": "string" },
    "author": { "type": "string" },
    "triggers": {
      "type": "object",
      "properties": {
        "schedule": { "type": "string" },
        "manual": { "type": "boolean" },
        "event": { "type": "string" }
      },
      "additionalProperties": false
    },
    "env": {
      "type": "object",
      "additionalProperties": { "type": "string" }
    },
    "steps": {
      "type": "array",
      "minItems": 1,
      "items": { "$ref": "#/$defs/step" }
    },
    "on_error": {
      "type": "array",
      "items": { "$ref": "#/$defs/error_handler" }
    }
  },
  "additionalProperties": false,
  "$defs": {
    "step": {
      "type": "object",
      "required": ["run"],
      "properties": {
        "name": { "type": "string" },
        "run": {
          "type": "string",
          "minLength": 1
        },
        "shell": { "type": "string" },
        "output": { "type": "string" },
        "when": { "type": "string" },
        "timeout": {
          "type": "integer",
          "minimum": 0
        },
        "continue_on_error": { "type": "boolean" },
        "retries": {
          "type": "integer",
          "minimum": 0
        },
        "retry_delay": {
          "type": "integer",
          "minimum": 0
        }
      },
      "additionalProperties": false
    },
    "error_handler": {
      "type": "object",
      "properties": {
        "notify": { "type": "string" },
        "run": { "type": "string" }
      },
      "anyOf": [
        { "required": ["notify"] },
        { "required": ["run"] }
      ],
      "additionalProperties": false
    }
  }
}`

var (
	workflowSchemaOnce sync.Once
	workflowSchema     *jsonschema.Schema
	workflowSchemaErr  error
)

// compiledWorkflowSchema compiles the embedded workflow schema once.
func compiledWorkflowSchema() (*jsonschema.Schema, error) {
	workflowSchemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(workflowSchemaJSON))
		if err != nil {
			workflowSchemaErr = fmt.Errorf("unmarshal workflow schema: %w", err)
			return
		}
		if err := c.AddResource("https://flowkit.io/schemas/workflow.json", doc); err != nil {
			workflowSchemaErr = fmt.Errorf("add workflow schema resource: %w", err)
			return
		}
		workflowSchema, workflowSchemaErr = c.Compile("https://flowkit.io/schemas/workflow.json")
	})
	return workflowSchema, workflowSchemaErr
}

// validateStructural validates the workflow against the embedded JSON
// Schema, converting every leaf violation into a ValidationResult error.
// Violations are sorted by instance location so repeated validation of the
// same workflow yields identical results.
func validateStructural(wf *schema.Workflow) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	compiled, err := compiledWorkflowSchema()
	if err != nil {
		result.AddError("/", schema.ErrCodeValidation, err.Error())
		return result
	}

	doc, err := toJSONValue(wf)
	if err != nil {
		result.AddError("/", schema.ErrCodeValidation, "failed to serialize workflow: "+err.Error())
		return result
	}

	if err := compiled.Validate(doc); err != nil {
		verr, ok := err.(*jsonschema.ValidationError)
		if !ok {
			result.AddError("/", schema.ErrCodeValidation, err.Error())
			return result
		}
		violations := collectViolations(verr)
		sort.Slice(violations, func(i, j int) bool {
			if violations[i].path != violations[j].path {
				return violations[i].path < violations[j].path
			}
			return violations[i].message < violations[j].message
		})
		for _, v := range violations {
			result.AddError(v.path, schema.ErrCodeValidation, v.message)
		}
	}
	return result
}

type violation struct {
	path    string
	message string
}

// collectViolations walks a ValidationError tree and collects leaf messages
// with their instance locations.
func collectViolations(verr *jsonschema.ValidationError) []violation {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []violation{{path: loc, message: verr.Error()}}
	}
	var out []violation
	for _, cause := range verr.Causes {
		out = append(out, collectViolations(cause)...)
	}
	return out
}

// toJSONValue round-trips a Go value through JSON encoding so numbers become
// json.Number, which the jsonschema library requires.
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
}
