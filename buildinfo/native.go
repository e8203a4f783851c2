package buildinfo

import "runtime"

// Native returns the build info compiled into this binary. The
// configuration comes from the sharpdebug and shipping build tags, the
// editor flag from the editor tag.
func Native() BuildInfo {
	return BuildInfo{
		Platform:      PlatformFor(runtime.GOOS),
		Configuration: nativeConfiguration,
		WithEditor:    withEditor,
	}
}
