// Package validation inspects parsed workflows for structural and semantic
// problems. It is a two-stage, accumulating pipeline:
//
//  1. Structural (JSON Schema Draft 2020-12): required fields, field types,
//     non-empty steps and run, non-negative numeric ranges.
//  2. Semantic: guard expression syntax, duplicate step names, unreachable
//     error handlers, advisory cron schedule syntax.
//
// Validation never executes anything, never mutates the workflow, and is
// idempotent: validating the same workflow twice yields identical results.
package validation

import "github.com/flowkit-io/flowkit/pkg/schema"

// Validate runs both stages and returns the aggregated result. Stages
// accumulate rather than short-circuit, so one call reports every problem
// at once.
func Validate(wf *schema.Workflow) *schema.ValidationResult {
	if wf == nil {
		r := &schema.ValidationResult{}
		r.AddError("/", schema.ErrCodeValidation, "workflow is nil")
		return r
	}

	result := validateStructural(wf)
	result.Merge(validateSemantic(wf))
	return result
}
