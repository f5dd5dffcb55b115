// Package scenario defines the YAML test-scenario format and its loader.
// A scenario is an ordered list of steps executed by the runner against
// the API client, the browser client or the data store.
package scenario

import "time"

// Kind categorizes a scenario by the surface it exercises.
type Kind string

const (
	// KindAPI marks API request scenarios.
	KindAPI Kind = "api"
	// KindUI marks browser-driven scenarios.
	KindUI Kind = "ui"
	// KindData marks pure data-store scenarios (fixture preparation).
	KindData Kind = "data"
)

// Scenario is a single test definition loaded from YAML.
type Scenario struct {
	// Name is the unique identifier for the scenario.
	Name string `yaml:"name"`
	// Kind is the scenario category (api, ui, data).
	Kind Kind `yaml:"kind"`
	// Suite groups related scenarios in reports.
	Suite string `yaml:"suite,omitempty"`
	// Description is the human-readable purpose of the scenario.
	Description string `yaml:"description,omitempty"`
	// Tags provide additional filtering dimensions.
	Tags []string `yaml:"tags,omitempty"`
	// Timeout bounds the whole scenario; zero means the suite default.
	Timeout time.Duration `yaml:"timeout,omitempty"`
	// Retries re-runs a failed scenario this many extra times.
	Retries int `yaml:"retries,omitempty"`
	// Steps are executed in order; the first failure stops the scenario.
	Steps []Step `yaml:"steps"`
	// Cleanup steps always run, pass or fail.
	Cleanup []Step `yaml:"cleanup,omitempty"`
}

// Step is one action within a scenario.
type Step struct {
	// Name describes the step in reports.
	Name string `yaml:"name,omitempty"`
	// Action selects the operation (http_get, ui_click, data_read_json, ...).
	Action string `yaml:"action"`
	// Args parameterize the action. String values may carry ${NAME}
	// placeholders resolved against stored step results and configuration.
	Args map[string]interface{} `yaml:"args,omitempty"`
	// Store names a variable under which the step result is kept for
	// later steps.
	Store string `yaml:"store,omitempty"`
	// Expect asserts on the step result.
	Expect *Expectation `yaml:"expect,omitempty"`
}

// Expectation describes the assertions applied to a step result.
type Expectation struct {
	// Status asserts the HTTP status code (API actions).
	Status int `yaml:"status,omitempty"`
	// Contains asserts a substring of the textual result.
	Contains string `yaml:"contains,omitempty"`
	// Equals asserts deep equality with the result.
	Equals interface{} `yaml:"equals,omitempty"`
	// JSONPath asserts a dotted-key value inside a structured result,
	// e.g. {"user.name": "alice"}.
	JSONPath map[string]interface{} `yaml:"json_path,omitempty"`
}

// Filter selects a subset of loaded scenarios.
type Filter struct {
	Kind  Kind
	Suite string
	Name  string
	Tags  []string
}
