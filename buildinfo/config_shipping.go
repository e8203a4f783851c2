//go:build shipping

package buildinfo

const nativeConfiguration = ConfigurationShipping
