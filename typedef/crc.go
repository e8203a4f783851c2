package typedef

import (
	"encoding/binary"
	"hash"
	"hash/crc64"
)

var crcTable = crc64.MakeTable(crc64.ECMA)

// shapeHash feeds a canonical, length-delimited encoding of a reflected
// shape into CRC-64/ECMA.
type shapeHash struct {
	h   hash.Hash64
	buf [8]byte
}

func newShapeHash(kind Kind, path string) *shapeHash {
	s := &shapeHash{h: crc64.New(crcTable)}
	s.int(int64(kind))
	s.str(path)
	return s
}

func (s *shapeHash) str(v string) {
	s.int(int64(len(v)))
	s.h.Write([]byte(v))
}

func (s *shapeHash) int(v int64) {
	binary.LittleEndian.PutUint64(s.buf[:], uint64(v))
	s.h.Write(s.buf[:])
}

func (s *shapeHash) props(props []Property) {
	s.int(int64(len(props)))
	for _, p := range props {
		s.str(p.Name)
		s.str(p.TypeName)
		s.int(int64(p.Flags))
		s.int(int64(p.Offset))
		s.int(int64(p.Size))
	}
}

func (s *shapeHash) sum() int64 {
	return int64(s.h.Sum64())
}

func enumCRC(path string, fields []EnumField) int64 {
	s := newShapeHash(KindEnum, path)
	s.int(int64(len(fields)))
	for _, f := range fields {
		s.str(f.Name)
		s.int(f.Value)
	}
	return s.sum()
}

func structCRC(path string, size int, props []Property) int64 {
	s := newShapeHash(KindStruct, path)
	s.int(int64(size))
	s.props(props)
	return s.sum()
}

func classCRC(path, superPath string, c *Class) int64 {
	s := newShapeHash(KindClass, path)
	s.str(superPath)
	s.int(int64(c.Flags))
	s.props(c.Properties)
	s.int(int64(len(c.Functions)))
	for _, f := range c.Functions {
		s.str(f.Name)
		s.int(int64(f.Flags))
		s.props(f.Params)
		s.str(f.ReturnType)
	}
	return s.sum()
}
