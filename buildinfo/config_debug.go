//go:build sharpdebug && !shipping

package buildinfo

const nativeConfiguration = ConfigurationDebug
