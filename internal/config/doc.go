// Package config provides the harness configuration: base URLs, data and
// report paths, browser settings, timeouts and retry policies.
//
// Configuration is resolved in precedence order:
//
//  1. Environment variables with the TESTRIG_ prefix
//     (TESTRIG_BROWSER_HEADLESS overrides browser.headless)
//  2. An optional YAML config file (testrig.yaml in the working directory,
//     or the path given with --config)
//  3. Built-in defaults
//
// The provider also backs ${NAME} placeholder resolution in test data: a
// placeholder name is first matched against configuration keys (dot or
// underscore form) and then against the raw process environment.
package config
