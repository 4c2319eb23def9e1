package hidparse

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/neuroplastio/hidpreparse/pkg/usbhid/hiddesc"
)

// preparsedMagic tags the blob format so GetCollectionDescription can
// reject a buffer that was not produced by ParseDescriptor (spec.md 3.2).
const preparsedMagic = 0x48494450 // "HIDP"

const preparsedVersion = 1

// valueCapsSize is the fixed on-wire size of one ValueCaps entry. It must
// stay in sync with the field list in caps.go; writeCaps checks every
// packed entry against it.
const valueCapsSize = 1 + 1 + /* ReportID, ReportKind */
	2 + 1 + 1 + 2 + /* StartByte, StartBit, BitSize, ReportCount */
	2 + 2 + 2 + 2 + 2 + /* UsagePage, UsageMin, UsageMax, DataIndexMin, DataIndexMax */
	4 + 4 + 4 + 4 + 1 + 4 + /* Logical/Physical min/max, UnitExponent, Units */
	1 + 1 + 1 + 1 + /* Designator/String min/max */
	2 + 2 + 2 + /* LinkCollection, LinkUsagePage, LinkUsage */
	4 + 2 /* BitField, Flags */

// preparsedHeader is the fixed-size prologue of a PreparsedData blob.
// Every *CapsStart/*CapsEnd pair is a byte offset into the blob, so the
// four capability arrays can be located without re-walking the header
// (spec.md 3.2's "caps_start/caps_end boundaries" invariant).
type preparsedHeader struct {
	Magic   uint32
	Version uint16
	_       uint16 // reserved, written as zero

	// UsagePage/Usage identify the device's top-level (first-opened)
	// collection, read straight off preparsed->usage_page/preparsed->usage
	// in the reference parser (main.c:619-624).
	UsagePage uint16
	Usage     uint16

	// *ReportByteLength is the largest report this report kind lays out
	// across every report ID it touched (main.c's
	// input/output/feature_report_byte_length fields).
	InputReportByteLength   uint16
	OutputReportByteLength  uint16
	FeatureReportByteLength uint16

	NumInput, NumOutput, NumFeature, NumCollection uint32

	InputCapsStart, InputCapsEnd           uint32
	OutputCapsStart, OutputCapsEnd         uint32
	FeatureCapsStart, FeatureCapsEnd       uint32
	CollectionCapsStart, CollectionCapsEnd uint32
}

const preparsedHeaderSize = 4 + 2 + 2 + 2 + 2 + 2 + 2 + 2 + 4*4 + 4*8

// PreparsedData is the opaque, position-independent, copy-by-value blob
// described in spec.md 3.2: a header plus four concatenated capability
// arrays (input, output, feature, collection). It carries no pointers, so
// a caller is free to persist it, memory-map it, or hand it to another
// process that links the same version of this package.
type PreparsedData struct {
	raw      []byte
	warnings []error
}

// Bytes returns the blob's underlying storage. Callers must not mutate it.
func (p *PreparsedData) Bytes() []byte { return p.raw }

// Warnings returns the non-fatal conditions observed while building this
// PreparsedData (spec.md 7's StackUnderflow/UnfinishedNesting), in the
// order they occurred. It is empty for data produced by FromBytes, since
// the wire format does not carry them.
func (p *PreparsedData) Warnings() []error { return p.warnings }

// FromBytes wraps a blob previously produced by PreparsedData.Bytes,
// validating its header before returning it. Use this to rehydrate a
// PreparsedData retrieved from a cache or other storage without
// re-parsing the original descriptor.
func FromBytes(raw []byte) (*PreparsedData, error) {
	if _, err := readHeader(raw); err != nil {
		return nil, err
	}
	return &PreparsedData{raw: raw}, nil
}

type preparsedBuilder struct {
	alloc Allocator
}

func newPreparsedBuilder(alloc Allocator) *preparsedBuilder {
	return &preparsedBuilder{alloc: alloc}
}

func (b *preparsedBuilder) build(s *ParserState) (*PreparsedData, error) {
	input := s.layout.input
	output := s.layout.output
	feature := s.layout.feature
	collections := s.collections

	total := preparsedHeaderSize + valueCapsSize*(len(input)+len(output)+len(feature)+len(collections))

	buf, err := b.alloc.Alloc(total)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAllocFailure, err)
	}
	if len(buf) != total {
		return nil, fmt.Errorf("%w: allocator returned %d bytes, wanted %d", ErrAllocFailure, len(buf), total)
	}

	offset := preparsedHeaderSize
	inputStart := offset
	offset, err = writeCaps(buf, offset, input)
	if err != nil {
		return nil, err
	}
	inputEnd := offset

	outputStart := offset
	offset, err = writeCaps(buf, offset, output)
	if err != nil {
		return nil, err
	}
	outputEnd := offset

	featureStart := offset
	offset, err = writeCaps(buf, offset, feature)
	if err != nil {
		return nil, err
	}
	featureEnd := offset

	collectionStart := offset
	offset, err = writeCaps(buf, offset, collections)
	if err != nil {
		return nil, err
	}
	collectionEnd := offset

	var usagePage, usage uint16
	if len(collections) > 0 {
		usagePage = collections[0].UsagePage
		usage = collections[0].UsageMin
	}

	header := preparsedHeader{
		Magic:   preparsedMagic,
		Version: preparsedVersion,

		UsagePage: usagePage,
		Usage:     usage,

		InputReportByteLength:   s.layout.reportByteLength(ReportKindInput),
		OutputReportByteLength:  s.layout.reportByteLength(ReportKindOutput),
		FeatureReportByteLength: s.layout.reportByteLength(ReportKindFeature),

		NumInput:      uint32(len(input)),
		NumOutput:     uint32(len(output)),
		NumFeature:    uint32(len(feature)),
		NumCollection: uint32(len(collections)),

		InputCapsStart: uint32(inputStart), InputCapsEnd: uint32(inputEnd),
		OutputCapsStart: uint32(outputStart), OutputCapsEnd: uint32(outputEnd),
		FeatureCapsStart: uint32(featureStart), FeatureCapsEnd: uint32(featureEnd),
		CollectionCapsStart: uint32(collectionStart), CollectionCapsEnd: uint32(collectionEnd),
	}
	headerBuf := &bytes.Buffer{}
	if err := binary.Write(headerBuf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAllocFailure, err)
	}
	copy(buf[:preparsedHeaderSize], headerBuf.Bytes())

	return &PreparsedData{raw: buf, warnings: s.warnings}, nil
}

func writeCaps(buf []byte, offset int, caps []ValueCaps) (int, error) {
	var scratch bytes.Buffer
	for _, c := range caps {
		scratch.Reset()
		if err := binary.Write(&scratch, binary.LittleEndian, toWireCaps(c)); err != nil {
			return offset, fmt.Errorf("%w: %v", ErrAllocFailure, err)
		}
		if scratch.Len() != valueCapsSize {
			return offset, fmt.Errorf("%w: packed value caps is %d bytes, wanted %d", ErrAllocFailure, scratch.Len(), valueCapsSize)
		}
		copy(buf[offset:offset+valueCapsSize], scratch.Bytes())
		offset += valueCapsSize
	}
	return offset, nil
}

// wireCaps is the exact on-disk layout of a ValueCaps entry: all fixed
// width, no padding ambiguity, safe for encoding/binary.
type wireCaps struct {
	ReportID   uint8
	ReportKind uint8

	StartByte   uint16
	StartBit    uint8
	BitSize     uint8
	ReportCount uint16

	UsagePage    uint16
	UsageMin     uint16
	UsageMax     uint16
	DataIndexMin uint16
	DataIndexMax uint16

	LogicalMin   int32
	LogicalMax   int32
	PhysicalMin  int32
	PhysicalMax  int32
	UnitExponent int8
	Units        uint32

	DesignatorMin uint8
	DesignatorMax uint8
	StringMin     uint8
	StringMax     uint8

	LinkCollection uint16
	LinkUsagePage  uint16
	LinkUsage      uint16

	BitField uint32
	Flags    uint16
}

func toWireCaps(c ValueCaps) wireCaps {
	return wireCaps{
		ReportID: c.ReportID, ReportKind: uint8(c.ReportKind),
		StartByte: c.StartByte, StartBit: c.StartBit, BitSize: c.BitSize, ReportCount: c.ReportCount,
		UsagePage: c.UsagePage, UsageMin: c.UsageMin, UsageMax: c.UsageMax,
		DataIndexMin: c.DataIndexMin, DataIndexMax: c.DataIndexMax,
		LogicalMin: c.LogicalMin, LogicalMax: c.LogicalMax,
		PhysicalMin: c.PhysicalMin, PhysicalMax: c.PhysicalMax,
		UnitExponent: c.UnitExponent, Units: c.Units,
		DesignatorMin: c.DesignatorMin, DesignatorMax: c.DesignatorMax,
		StringMin: c.StringMin, StringMax: c.StringMax,
		LinkCollection: c.LinkCollection, LinkUsagePage: c.LinkUsagePage, LinkUsage: c.LinkUsage,
		BitField: uint32(c.BitField), Flags: uint16(c.Flags),
	}
}

func fromWireCaps(w wireCaps) ValueCaps {
	return ValueCaps{
		ReportID: w.ReportID, ReportKind: ReportKind(w.ReportKind),
		StartByte: w.StartByte, StartBit: w.StartBit, BitSize: w.BitSize, ReportCount: w.ReportCount,
		UsagePage: w.UsagePage, UsageMin: w.UsageMin, UsageMax: w.UsageMax,
		DataIndexMin: w.DataIndexMin, DataIndexMax: w.DataIndexMax,
		LogicalMin: w.LogicalMin, LogicalMax: w.LogicalMax,
		PhysicalMin: w.PhysicalMin, PhysicalMax: w.PhysicalMax,
		UnitExponent: w.UnitExponent, Units: w.Units,
		DesignatorMin: w.DesignatorMin, DesignatorMax: w.DesignatorMax,
		StringMin: w.StringMin, StringMax: w.StringMax,
		LinkCollection: w.LinkCollection, LinkUsagePage: w.LinkUsagePage, LinkUsage: w.LinkUsage,
		BitField: hiddesc.DataFlags(w.BitField), Flags: CapFlags(w.Flags),
	}
}
