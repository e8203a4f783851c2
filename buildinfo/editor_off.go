//go:build !editor

package buildinfo

const withEditor = false
