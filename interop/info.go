package interop

import (
	"encoding/binary"

	"github.com/wippyai/sharpbridge/errors"
)

// FunctionsInfoSize is the size of the bootstrap record on 64-bit targets.
const FunctionsInfoSize = 32

// FunctionsInfo is the bootstrap bundle the managed side receives before it
// can resolve anything by name.
type FunctionsInfo struct {
	Size     uint32
	Instance uint64
	// Resolver is the address of GetUnrealInteropFunctionPointer.
	Resolver Address
	// Logger is the address of the managed log sink.
	Logger Address
}

// NewFunctionsInfo fills Size.
func NewFunctionsInfo(instance uint64, resolver, logger Address) FunctionsInfo {
	return FunctionsInfo{
		Size:     FunctionsInfoSize,
		Instance: instance,
		Resolver: resolver,
		Logger:   logger,
	}
}

// MarshalBinary encodes the record little-endian: size, 4 bytes padding,
// then instance, resolver and logger as 64-bit words.
func (fi FunctionsInfo) MarshalBinary() ([]byte, error) {
	buf := make([]byte, FunctionsInfoSize)
	fi.Put(buf)
	return buf, nil
}

// Put writes the record into buf, which must hold FunctionsInfoSize bytes.
func (fi FunctionsInfo) Put(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:], fi.Size)
	binary.LittleEndian.PutUint32(buf[4:], 0)
	binary.LittleEndian.PutUint64(buf[8:], fi.Instance)
	binary.LittleEndian.PutUint64(buf[16:], uint64(fi.Resolver))
	binary.LittleEndian.PutUint64(buf[24:], uint64(fi.Logger))
}

func (fi *FunctionsInfo) UnmarshalBinary(data []byte) error {
	if len(data) < FunctionsInfoSize {
		return errors.OutOfBounds(errors.PhaseBind, []string{"FunctionsInfo"}, len(data), FunctionsInfoSize)
	}
	fi.Size = binary.LittleEndian.Uint32(data[0:])
	fi.Instance = binary.LittleEndian.Uint64(data[8:])
	fi.Resolver = Address(binary.LittleEndian.Uint64(data[16:]))
	fi.Logger = Address(binary.LittleEndian.Uint64(data[24:]))
	return nil
}
