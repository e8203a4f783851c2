package buildinfo

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/sharpbridge/errors"
)

// Report is the outcome of a successful comparison.
type Report struct {
	Native  BuildInfo
	Managed BuildInfo
	// ConfigurationMismatch is set when only the configuration differs.
	// It is logged as a warning and never fails validation.
	ConfigurationMismatch bool
}

// Validate compares the managed side's build info with Native.
func Validate(managed BuildInfo) (Report, error) {
	return Compare(Native(), managed)
}

// Compare checks managed against native. An editor flag or platform
// mismatch returns a fatal_config error the caller must not continue past.
func Compare(native, managed BuildInfo) (Report, error) {
	log := Logger()
	log.Info("managed build info",
		zap.Stringer("platform", managed.Platform),
		zap.Stringer("configuration", managed.Configuration),
		zap.Bool("editor", managed.WithEditor))

	report := Report{Native: native, Managed: managed}

	if native.WithEditor != managed.WithEditor {
		return report, errors.FatalConfig("WITH_EDITOR",
			strconv.FormatBool(native.WithEditor), strconv.FormatBool(managed.WithEditor))
	}
	if native.Platform != managed.Platform {
		return report, errors.FatalConfig("Platform", native.Platform.String(), managed.Platform.String())
	}
	if native.Configuration != managed.Configuration {
		report.ConfigurationMismatch = true
		log.Warn("build configuration mismatch",
			zap.Stringer("native", native.Configuration),
			zap.Stringer("managed", managed.Configuration))
	}
	return report, nil
}
