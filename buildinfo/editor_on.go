//go:build editor

package buildinfo

const withEditor = true
