// Package logbridge routes managed-side log output onto zap.
package logbridge

import (
	"unicode/utf16"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/encoding/charmap"
)

// Level is the managed side's severity. Values are negative and
// non-contiguous by convention.
type Level int32

const (
	LevelVerbose     Level = -10
	LevelInformation Level = -9
	LevelWarning     Level = -8
	LevelError       Level = -7
	// LevelTotal is reserved and never emitted.
	LevelTotal Level = -5
)

func (l Level) String() string {
	switch l {
	case LevelVerbose:
		return "Verbose"
	case LevelInformation:
		return "Information"
	case LevelWarning:
		return "Warning"
	case LevelError:
		return "Error"
	case LevelTotal:
		return "Total"
	default:
		return "Unknown"
	}
}

// ZapLevel returns the native channel for l. Anything unmapped goes to Info.
func (l Level) ZapLevel() zapcore.Level {
	switch l {
	case LevelVerbose:
		return zapcore.DebugLevel
	case LevelWarning:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Bridge writes managed log lines to a named zap logger.
type Bridge struct {
	log *zap.Logger
}

// New creates a bridge writing through a child logger named "managed".
// A nil logger yields a no-op bridge.
func New(l *zap.Logger) *Bridge {
	if l == nil {
		l = zap.NewNop()
	}
	return &Bridge{log: l.Named("managed")}
}

// LogMessage writes text verbatim at the channel mapped from level.
func (b *Bridge) LogMessage(level Level, text string) {
	if ce := b.log.Check(level.ZapLevel(), text); ce != nil {
		ce.Write()
	}
}

// LogBytes writes a narrow-character message received across the
// boundary. A nil message is the null pointer case and is ignored.
func (b *Bridge) LogBytes(level Level, msg []byte) {
	if msg == nil {
		return
	}
	b.LogMessage(level, DecodeNarrow(msg))
}

// LogWide writes a UTF-16LE message received across the boundary. A nil
// message is ignored.
func (b *Bridge) LogWide(level Level, msg []byte) {
	if msg == nil {
		return
	}
	b.LogMessage(level, DecodeWide(msg))
}

// DecodeNarrow converts narrow-character text to a Go string. Valid UTF-8
// passes through; anything else is read as Windows-1252.
func DecodeNarrow(msg []byte) string {
	if utf8.Valid(msg) {
		return string(msg)
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(msg)
	if err != nil {
		return string(msg)
	}
	return string(out)
}

// DecodeWide converts UTF-16LE text to a Go string. A trailing odd byte is
// dropped.
func DecodeWide(msg []byte) string {
	units := make([]uint16, len(msg)/2)
	for i := range units {
		units[i] = uint16(msg[2*i]) | uint16(msg[2*i+1])<<8
	}
	return string(utf16.Decode(units))
}
