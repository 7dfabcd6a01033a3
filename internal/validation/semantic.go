package validation

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/flowkit-io/flowkit/internal/expressions"
	"github.com/flowkit-io/flowkit/pkg/schema"
)

// cronParser accepts the standard 5-field schedule expressions used in
// triggers.schedule.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// validateSemantic performs the checks JSON Schema cannot express: guard
// expression syntax, duplicate step names, handlers that can never fire, and
// the advisory schedule expression.
func validateSemantic(wf *schema.Workflow) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	seen := make(map[string]int, len(wf.Steps))
	anyFallible := false
	for i := range wf.Steps {
		step := &wf.Steps[i]
		path := fmt.Sprintf("/steps/%d", i)

		if step.When != "" {
			if err := expressions.CheckCondition(step.When); err != nil {
				result.AddError(path+"/when", schema.ErrCodeCondition,
					fmt.Sprintf("step %q: %v", step.Label(i), err))
			}
		}

		if step.Name != "" {
			if first, dup := seen[step.Name]; dup {
				result.AddWarning(path+"/name", schema.ErrCodeValidation,
					fmt.Sprintf("duplicate step name %q (first used by step %d); steps remain addressable by index", step.Name, first+1))
			} else {
				seen[step.Name] = i
			}
		}

		if !step.ContinueOnError {
			anyFallible = true
		}
	}

	if !anyFallible {
		for i := range wf.OnError {
			if wf.OnError[i].Run != "" {
				result.AddWarning(fmt.Sprintf("/on_error/%d/run", i), schema.ErrCodeValidation,
					"on_error.run is configured but every step tolerates failure; the handler can never fire")
				break
			}
		}
	}

	if wf.Triggers != nil && wf.Triggers.Schedule != "" {
		if _, err := cronParser.Parse(wf.Triggers.Schedule); err != nil {
			result.AddWarning("/triggers/schedule", schema.ErrCodeValidation,
				fmt.Sprintf("schedule %q is not a valid cron expression: %v", wf.Triggers.Schedule, err))
		}
	}

	return result
}
