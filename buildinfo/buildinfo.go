package buildinfo

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/wippyai/sharpbridge/errors"
)

// Platform is the target platform a binary was compiled for.
type Platform int32

const (
	PlatformUnknown Platform = -1
	PlatformWindows Platform = 0
	PlatformMac     Platform = 1
	PlatformLinux   Platform = 2
	PlatformIOS     Platform = 3
	PlatformAndroid Platform = 4
)

var platformNames = map[Platform]string{
	PlatformWindows: "Windows",
	PlatformMac:     "Mac",
	PlatformLinux:   "Linux",
	PlatformIOS:     "IOS",
	PlatformAndroid: "Android",
}

func (p Platform) String() string {
	if s, ok := platformNames[p]; ok {
		return s
	}
	return "Unknown"
}

// ParsePlatform parses a platform name, case-insensitively.
func ParsePlatform(s string) (Platform, error) {
	for p, name := range platformNames {
		if strings.EqualFold(s, name) {
			return p, nil
		}
	}
	return PlatformUnknown, errors.InvalidEnum(errors.PhaseValidate, []string{"Platform"}, s, "platform")
}

// PlatformFor maps a GOOS value onto a Platform.
func PlatformFor(goos string) Platform {
	switch goos {
	case "windows":
		return PlatformWindows
	case "darwin":
		return PlatformMac
	case "linux":
		return PlatformLinux
	case "ios":
		return PlatformIOS
	case "android":
		return PlatformAndroid
	default:
		return PlatformUnknown
	}
}

// Configuration is the build configuration.
type Configuration int32

const (
	ConfigurationDebug Configuration = iota
	ConfigurationDebugGame
	ConfigurationDevelopment
	ConfigurationTest
	ConfigurationShipping
)

var configurationNames = [...]string{
	ConfigurationDebug:       "Debug",
	ConfigurationDebugGame:   "DebugGame",
	ConfigurationDevelopment: "Development",
	ConfigurationTest:        "Test",
	ConfigurationShipping:    "Shipping",
}

func (c Configuration) String() string {
	if c >= 0 && int(c) < len(configurationNames) {
		return configurationNames[c]
	}
	return "Unknown"
}

// ParseConfiguration parses a configuration name, case-insensitively.
func ParseConfiguration(s string) (Configuration, error) {
	for i, name := range configurationNames {
		if strings.EqualFold(s, name) {
			return Configuration(i), nil
		}
	}
	return 0, errors.InvalidEnum(errors.PhaseValidate, []string{"Configuration"}, s, "configuration")
}

// RecordSize is the size of the build-info record passed across the
// boundary: platform int32, configuration int32, editor flag padded to 4.
const RecordSize = 12

// BuildInfo is the tuple baked into a compiled binary.
type BuildInfo struct {
	Platform      Platform      `json:"platform" yaml:"platform"`
	Configuration Configuration `json:"configuration" yaml:"configuration"`
	WithEditor    bool          `json:"with_editor" yaml:"with_editor"`
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("Platform = %s, Configuration = %s, Editor = %t", b.Platform, b.Configuration, b.WithEditor)
}

// MarshalBinary encodes the little-endian boundary record.
func (b BuildInfo) MarshalBinary() ([]byte, error) {
	buf := make([]byte, RecordSize)
	b.Put(buf)
	return buf, nil
}

// Put writes the record into buf, which must hold RecordSize bytes.
func (b BuildInfo) Put(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:], uint32(b.Platform))
	binary.LittleEndian.PutUint32(buf[4:], uint32(b.Configuration))
	var editor uint32
	if b.WithEditor {
		editor = 1
	}
	binary.LittleEndian.PutUint32(buf[8:], editor)
}

// UnmarshalBinary decodes the little-endian boundary record.
func (b *BuildInfo) UnmarshalBinary(data []byte) error {
	if len(data) < RecordSize {
		return errors.New(errors.PhaseValidate, errors.KindOutOfBounds).
			Detail("build info record is %d bytes, need %d", len(data), RecordSize).
			Build()
	}
	b.Platform = Platform(int32(binary.LittleEndian.Uint32(data[0:])))
	b.Configuration = Configuration(int32(binary.LittleEndian.Uint32(data[4:])))
	b.WithEditor = data[8] != 0
	return nil
}
