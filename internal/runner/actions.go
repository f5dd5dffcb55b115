package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"testrig/internal/apiclient"
	"testrig/internal/datastore"
	"testrig/internal/scenario"
)

// executor runs the steps of one scenario. It owns the per-scenario run
// context and, for UI scenarios, the browser driver.
type executor struct {
	api   *apiclient.Client
	store *datastore.Store
	ui    UIDriver
	rc    *runContext
}

func (e *executor) runStep(ctx context.Context, step scenario.Step) (interface{}, error) {
	switch {
	case strings.HasPrefix(step.Action, "http_"):
		return e.runHTTP(ctx, step)
	case strings.HasPrefix(step.Action, "ui_"):
		return e.runUI(ctx, step)
	case strings.HasPrefix(step.Action, "data_"):
		return e.runData(step)
	case step.Action == "sleep":
		return nil, e.runSleep(ctx, step)
	default:
		return nil, fmt.Errorf("unknown action %q", step.Action)
	}
}

func (e *executor) runHTTP(ctx context.Context, step scenario.Step) (interface{}, error) {
	if e.api == nil {
		return nil, fmt.Errorf("action %q: no API client configured", step.Action)
	}
	endpoint, err := e.rc.resolveStringArg(step.Args, "endpoint")
	if err != nil {
		return nil, err
	}
	headers, err := e.stringMapArg(step.Args, "headers")
	if err != nil {
		return nil, err
	}
	body, err := e.bodyArg(step.Args)
	if err != nil {
		return nil, err
	}

	var resp *apiclient.Response
	switch step.Action {
	case "http_get":
		params, perr := e.paramsArg(step.Args)
		if perr != nil {
			return nil, perr
		}
		resp, err = e.api.Get(ctx, endpoint, params, headers)
	case "http_post":
		resp, err = e.api.Post(ctx, endpoint, body, headers)
	case "http_put":
		resp, err = e.api.Put(ctx, endpoint, body, headers)
	case "http_patch":
		resp, err = e.api.Patch(ctx, endpoint, body, headers)
	case "http_delete":
		resp, err = e.api.Delete(ctx, endpoint, headers)
	default:
		return nil, fmt.Errorf("unknown action %q", step.Action)
	}
	if err != nil {
		return nil, err
	}
	return responseOutput(resp), nil
}

// responseOutput shapes an HTTP response so expectations and later steps
// can address it: status, body (parsed JSON when possible) and headers.
func responseOutput(resp *apiclient.Response) map[string]interface{} {
	out := map[string]interface{}{
		"status": resp.StatusCode,
	}
	var parsed interface{}
	if err := json.Unmarshal(resp.Body, &parsed); err == nil {
		out["body"] = parsed
	} else {
		out["body"] = string(resp.Body)
	}
	headers := make(map[string]interface{}, len(resp.Headers))
	for k := range resp.Headers {
		headers[k] = resp.Headers.Get(k)
	}
	out["headers"] = headers
	return out
}

func (e *executor) runUI(ctx context.Context, step scenario.Step) (interface{}, error) {
	if e.ui == nil {
		return nil, fmt.Errorf("action %q: no browser session", step.Action)
	}
	switch step.Action {
	case "ui_navigate":
		u, err := e.rc.resolveStringArg(step.Args, "url")
		if err != nil {
			return nil, err
		}
		return nil, e.ui.Navigate(ctx, u)
	case "ui_click":
		sel, err := e.rc.resolveStringArg(step.Args, "selector")
		if err != nil {
			return nil, err
		}
		return nil, e.ui.Click(ctx, sel)
	case "ui_fill":
		sel, err := e.rc.resolveStringArg(step.Args, "selector")
		if err != nil {
			return nil, err
		}
		text, err := e.rc.resolveStringArg(step.Args, "text")
		if err != nil {
			return nil, err
		}
		return nil, e.ui.Fill(ctx, sel, text)
	case "ui_wait_visible":
		sel, err := e.rc.resolveStringArg(step.Args, "selector")
		if err != nil {
			return nil, err
		}
		return nil, e.ui.WaitVisible(ctx, sel)
	case "ui_text":
		sel, err := e.rc.resolveStringArg(step.Args, "selector")
		if err != nil {
			return nil, err
		}
		text, err := e.ui.Text(ctx, sel)
		if err != nil {
			return nil, err
		}
		return text, nil
	case "ui_screenshot":
		name, err := e.rc.resolveStringArg(step.Args, "name")
		if err != nil {
			return nil, err
		}
		path, err := e.ui.Screenshot(ctx, name, false)
		if err != nil {
			return nil, err
		}
		return path, nil
	default:
		return nil, fmt.Errorf("unknown action %q", step.Action)
	}
}

func (e *executor) runData(step scenario.Step) (interface{}, error) {
	if e.store == nil {
		return nil, fmt.Errorf("action %q: no data store configured", step.Action)
	}
	path, err := e.rc.resolveStringArg(step.Args, "path")
	if err != nil {
		return nil, err
	}
	parts := splitDataPath(path)

	switch step.Action {
	case "data_read_file":
		content, err := e.store.ReadFile(parts...)
		if err != nil {
			return nil, err
		}
		return content, nil
	case "data_read_json":
		return e.store.ReadJSON(parts...)
	case "data_read_yaml":
		return e.store.ReadYAML(parts...)
	case "data_read_csv":
		rows, err := e.store.ReadCSV(parts...)
		if err != nil {
			return nil, err
		}
		out := make([]interface{}, len(rows))
		for i, row := range rows {
			m := make(map[string]interface{}, len(row))
			for k, v := range row {
				m[k] = v
			}
			out[i] = m
		}
		return out, nil
	case "data_json_value":
		key, err := e.rc.resolveStringArg(step.Args, "key")
		if err != nil {
			return nil, err
		}
		return e.store.JSONValue(key, parts...)
	case "data_write_file":
		content, err := e.rc.resolveStringArg(step.Args, "content")
		if err != nil {
			return nil, err
		}
		return nil, e.store.WriteFile(content, parts...)
	case "data_write_json":
		raw, ok := step.Args["value"]
		if !ok {
			return nil, fmt.Errorf("missing required argument %q", "value")
		}
		value, err := e.rc.resolve(raw)
		if err != nil {
			return nil, err
		}
		return nil, e.store.WriteJSON(value, parts...)
	default:
		return nil, fmt.Errorf("unknown action %q", step.Action)
	}
}

func (e *executor) runSleep(ctx context.Context, step scenario.Step) error {
	raw, err := e.rc.resolveStringArg(step.Args, "duration")
	if err != nil {
		return err
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// splitDataPath turns a scenario path like "responses/login.json" into
// data-store parts.
func splitDataPath(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

func (e *executor) stringMapArg(args map[string]interface{}, key string) (map[string]string, error) {
	raw, ok := args[key]
	if !ok {
		return nil, nil
	}
	resolved, err := e.rc.resolve(raw)
	if err != nil {
		return nil, err
	}
	m, ok := resolved.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("argument %q must be a mapping", key)
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprintf("%v", v)
	}
	return out, nil
}

func (e *executor) paramsArg(args map[string]interface{}) (url.Values, error) {
	m, err := e.stringMapArg(args, "params")
	if err != nil || m == nil {
		return nil, err
	}
	values := url.Values{}
	for k, v := range m {
		values.Set(k, v)
	}
	return values, nil
}

// bodyArg returns the request body: either the inline "body" argument or
// the JSON document named by "body_file", read through the data store so
// placeholders inside the file resolve too.
func (e *executor) bodyArg(args map[string]interface{}) (interface{}, error) {
	if raw, ok := args["body"]; ok {
		return e.rc.resolve(raw)
	}
	if e.store != nil {
		path, ok, err := e.rc.optionalStringArg(args, "body_file")
		if err != nil {
			return nil, err
		}
		if ok {
			return e.store.ReadJSON(splitDataPath(path)...)
		}
	}
	return nil, nil
}

// checkExpect applies a step's expectations to its output.
func checkExpect(expect *scenario.Expectation, output interface{}) error {
	if expect == nil {
		return nil
	}
	if expect.Status != 0 {
		m, ok := output.(map[string]interface{})
		if !ok {
			return fmt.Errorf("expected status %d but the step produced no response", expect.Status)
		}
		status, _ := m["status"].(int)
		if status != expect.Status {
			return fmt.Errorf("expected status %d, got %d", expect.Status, status)
		}
	}
	if expect.Contains != "" {
		text := outputText(output)
		if !strings.Contains(text, expect.Contains) {
			return fmt.Errorf("expected output to contain %q", expect.Contains)
		}
	}
	if expect.Equals != nil {
		if !looseEqual(expect.Equals, output) {
			return fmt.Errorf("expected output to equal %v, got %v", expect.Equals, output)
		}
	}
	for path, want := range expect.JSONPath {
		got, err := descend(jsonBody(output), strings.Split(path, "."), path)
		if err != nil {
			return err
		}
		if !looseEqual(want, got) {
			return fmt.Errorf("expected %q to equal %v, got %v", path, want, got)
		}
	}
	return nil
}

// jsonBody targets json assertions at the response body for HTTP outputs
// and at the output itself otherwise.
func jsonBody(output interface{}) interface{} {
	if m, ok := output.(map[string]interface{}); ok {
		if body, ok := m["body"]; ok {
			return body
		}
	}
	return output
}

func outputText(output interface{}) string {
	switch v := jsonBody(output).(type) {
	case string:
		return v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}

// looseEqual compares across the numeric and map types that YAML and JSON
// decoding produce by normalizing both sides through JSON.
func looseEqual(a, b interface{}) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	aj, errA := json.Marshal(a)
	bj, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(aj) == string(bj)
}
