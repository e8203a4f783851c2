// Package buildinfo guards against loading managed assemblies built for an
// incompatible native configuration.
//
// The managed side reports its platform, configuration and editor flag once
// at startup. Platform and editor mismatches are fatal because struct layout
// and feature flags on both sides were generated under different
// assumptions. A configuration mismatch only logs a warning.
//
// The native values are compiled in: the platform follows GOOS, the
// configuration follows the sharpdebug and shipping build tags (Development
// otherwise) and the editor flag follows the editor tag.
package buildinfo
