package scenario

import (
	"fmt"
	"strings"
)

// knownActions is the closed set of step actions the runner dispatches.
var knownActions = map[string]bool{
	"http_get":    true,
	"http_post":   true,
	"http_put":    true,
	"http_patch":  true,
	"http_delete": true,

	"ui_navigate":     true,
	"ui_click":        true,
	"ui_fill":         true,
	"ui_wait_visible": true,
	"ui_text":         true,
	"ui_screenshot":   true,

	"data_read_json":  true,
	"data_read_yaml":  true,
	"data_read_csv":   true,
	"data_read_file":  true,
	"data_write_json": true,
	"data_write_file": true,
	"data_json_value": true,

	"sleep": true,
}

// KnownActions returns the supported action names, for help output.
func KnownActions() []string {
	names := make([]string, 0, len(knownActions))
	for name := range knownActions {
		names = append(names, name)
	}
	return names
}

// Validate checks the structural requirements of a scenario definition.
func Validate(sc Scenario) error {
	var problems []string

	if sc.Name == "" {
		problems = append(problems, "name is required")
	}
	switch sc.Kind {
	case KindAPI, KindUI, KindData:
	case "":
		problems = append(problems, "kind is required (api, ui or data)")
	default:
		problems = append(problems, fmt.Sprintf("unknown kind %q", sc.Kind))
	}
	if len(sc.Steps) == 0 {
		problems = append(problems, "at least one step is required")
	}

	for i, step := range sc.Steps {
		if err := validateStep(step); err != nil {
			problems = append(problems, fmt.Sprintf("step %d: %v", i+1, err))
		}
	}
	for i, step := range sc.Cleanup {
		if err := validateStep(step); err != nil {
			problems = append(problems, fmt.Sprintf("cleanup step %d: %v", i+1, err))
		}
	}

	if sc.Retries < 0 {
		problems = append(problems, "retries must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

func validateStep(step Step) error {
	if step.Action == "" {
		return fmt.Errorf("action is required")
	}
	if !knownActions[step.Action] {
		return fmt.Errorf("unknown action %q", step.Action)
	}
	return nil
}
