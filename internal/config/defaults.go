package config

import (
	"time"

	"github.com/spf13/viper"
)

// Configuration keys used across the harness.
const (
	KeyBaseURL   = "base.url"
	KeyAuthToken = "auth.token"

	KeyDataRoot = "data.root"

	KeyLogLevel = "log.level"

	KeyAPITimeout      = "api.timeout"
	KeyAPIRetryCount   = "api.retry.count"
	KeyAPIRetryWaitMin = "api.retry.wait.min"
	KeyAPIRetryWaitMax = "api.retry.wait.max"

	KeyBrowserType        = "browser.type"
	KeyBrowserHeadless    = "browser.headless"
	KeyBrowserNavTimeout  = "browser.navigation.timeout"
	KeyBrowserElemTimeout = "browser.element.timeout"
	KeyBrowserRetryCount  = "browser.retry.count"
	KeyBrowserRetryDelay  = "browser.retry.delay"

	KeyScreenshotPath        = "screenshot.path"
	KeyScreenshotFullPage    = "screenshot.fullpage"
	KeyScreenshotOnFailure   = "screenshot.on.failure"
	KeyScreenshotFailedOnly  = "screenshot.failed.only"
	KeyScreenshotTimestamped = "screenshot.timestamped"

	KeyReportPath       = "report.path"
	KeyAllureResultsDir = "report.allure.results"
	KeyHTMLReportPath   = "report.html.path"
)

// setDefaults mirrors the settings every harness run needs even without a
// config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyBaseURL, "http://localhost:8000")

	v.SetDefault(KeyDataRoot, "data")

	v.SetDefault(KeyLogLevel, "info")

	v.SetDefault(KeyAPITimeout, 30*time.Second)
	v.SetDefault(KeyAPIRetryCount, 3)
	v.SetDefault(KeyAPIRetryWaitMin, time.Second)
	v.SetDefault(KeyAPIRetryWaitMax, 8*time.Second)

	v.SetDefault(KeyBrowserType, "chromium")
	v.SetDefault(KeyBrowserHeadless, true)
	v.SetDefault(KeyBrowserNavTimeout, 60*time.Second)
	v.SetDefault(KeyBrowserElemTimeout, 30*time.Second)
	v.SetDefault(KeyBrowserRetryCount, 3)
	v.SetDefault(KeyBrowserRetryDelay, time.Second)

	v.SetDefault(KeyScreenshotPath, "screenshots")
	v.SetDefault(KeyScreenshotFullPage, true)
	v.SetDefault(KeyScreenshotOnFailure, true)
	v.SetDefault(KeyScreenshotFailedOnly, true)
	v.SetDefault(KeyScreenshotTimestamped, true)

	v.SetDefault(KeyReportPath, "reports")
	v.SetDefault(KeyAllureResultsDir, "allure-results")
	v.SetDefault(KeyHTMLReportPath, "reports/report.html")
}
