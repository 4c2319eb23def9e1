package hidparse

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
)

// ReportLength describes the wire size of one report ID's worth of a
// given report kind, including the leading report-ID byte, which is
// reserved for every report ID, the default ID 0 included (spec.md 6.4).
type ReportLength struct {
	ReportID uint8
	Bytes    int

	// CollectionNumber identifies the top-level collection this report
	// belongs to, mirroring HIDP_COLLECTION_DESC.CollectionNumber. This
	// package only tracks a single top-level collection per device, so
	// every report carries the same number as DeviceDescription's own
	// CollectionNumber.
	CollectionNumber uint16
}

// DeviceDescription is the summary CollectionDescriber produces from a
// PreparsedData blob: the device's top-level collection identity, how
// many collections it declares (nested ones included), how many caps of
// each report kind it has, and the per-report-ID byte lengths
// of each report kind, without requiring the caller to walk the
// capability arrays themselves (spec.md 4.7, 6.4).
type DeviceDescription struct {
	// UsagePage/Usage identify the device's top-level collection (spec.md
	// 6.4's "usage_page=1, usage=2" assertion for a mouse).
	UsagePage uint16
	Usage     uint16
	// CollectionNumber is always 1 for the single top-level collection
	// this package tracks, matching the 1-based numbering
	// HIDP_COLLECTION_DESC uses; 0 if the descriptor opened none.
	CollectionNumber uint16
	// PreparsedDataLength is the byte length of the underlying
	// PreparsedData blob, mirroring HIDP_COLLECTION_DESC.PreparsedDataLength.
	PreparsedDataLength int

	NumInputCaps, NumOutputCaps, NumFeatureCaps, NumCollectionCaps int

	InputReportLengths   []ReportLength
	OutputReportLengths  []ReportLength
	FeatureReportLengths []ReportLength
}

// GetCollectionDescription inspects a PreparsedData blob produced by
// ParseDescriptor and summarizes it without re-parsing the original
// descriptor bytes (spec.md 6.1, 6.4).
func GetCollectionDescription(p *PreparsedData) (*DeviceDescription, error) {
	header, err := readHeader(p.raw)
	if err != nil {
		return nil, err
	}

	input, err := readCaps(p.raw, header.InputCapsStart, header.InputCapsEnd, int(header.NumInput))
	if err != nil {
		return nil, err
	}
	output, err := readCaps(p.raw, header.OutputCapsStart, header.OutputCapsEnd, int(header.NumOutput))
	if err != nil {
		return nil, err
	}
	feature, err := readCaps(p.raw, header.FeatureCapsStart, header.FeatureCapsEnd, int(header.NumFeature))
	if err != nil {
		return nil, err
	}

	var collectionNumber uint16
	if header.NumCollection > 0 {
		collectionNumber = 1
	}

	return &DeviceDescription{
		UsagePage:           header.UsagePage,
		Usage:               header.Usage,
		CollectionNumber:    collectionNumber,
		PreparsedDataLength: len(p.raw),

		NumInputCaps:      int(header.NumInput),
		NumOutputCaps:     int(header.NumOutput),
		NumFeatureCaps:    int(header.NumFeature),
		NumCollectionCaps: int(header.NumCollection),

		InputReportLengths:   reportLengths(input, collectionNumber),
		OutputReportLengths:  reportLengths(output, collectionNumber),
		FeatureReportLengths: reportLengths(feature, collectionNumber),
	}, nil
}

// ValueCapsByKind returns a copy of one of the four capability arrays
// packed into a PreparsedData blob, for callers that need the raw records
// rather than the GetCollectionDescription summary.
func ValueCapsByKind(p *PreparsedData, kind ReportKind) ([]ValueCaps, error) {
	header, err := readHeader(p.raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case ReportKindInput:
		return readCaps(p.raw, header.InputCapsStart, header.InputCapsEnd, int(header.NumInput))
	case ReportKindOutput:
		return readCaps(p.raw, header.OutputCapsStart, header.OutputCapsEnd, int(header.NumOutput))
	case ReportKindFeature:
		return readCaps(p.raw, header.FeatureCapsStart, header.FeatureCapsEnd, int(header.NumFeature))
	case ReportKindCollection:
		return readCaps(p.raw, header.CollectionCapsStart, header.CollectionCapsEnd, int(header.NumCollection))
	default:
		return nil, fmt.Errorf("%w: unknown report kind %d", ErrInvalidBlob, kind)
	}
}

func readHeader(raw []byte) (preparsedHeader, error) {
	if len(raw) < preparsedHeaderSize {
		return preparsedHeader{}, fmt.Errorf("%w: blob shorter than header", ErrInvalidBlob)
	}
	var h preparsedHeader
	if err := binary.Read(bytes.NewReader(raw[:preparsedHeaderSize]), binary.LittleEndian, &h); err != nil {
		return preparsedHeader{}, fmt.Errorf("%w: %v", ErrInvalidBlob, err)
	}
	if h.Magic != preparsedMagic {
		return preparsedHeader{}, fmt.Errorf("%w: bad magic %#x", ErrInvalidBlob, h.Magic)
	}
	if h.Version != preparsedVersion {
		return preparsedHeader{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidBlob, h.Version)
	}
	return h, nil
}

func readCaps(raw []byte, start, end uint32, count int) ([]ValueCaps, error) {
	if start > end || int(end) > len(raw) {
		return nil, fmt.Errorf("%w: caps array bounds out of range", ErrInvalidBlob)
	}
	want := count * valueCapsSize
	if int(end-start) != want {
		return nil, fmt.Errorf("%w: caps array is %d bytes, expected %d", ErrInvalidBlob, end-start, want)
	}
	out := make([]ValueCaps, 0, count)
	r := bytes.NewReader(raw[start:end])
	for i := 0; i < count; i++ {
		var w wireCaps
		if err := binary.Read(r, binary.LittleEndian, &w); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBlob, err)
		}
		out = append(out, fromWireCaps(w))
	}
	return out, nil
}

// reportLengths computes each report ID's byte length directly from its
// caps' StartByte/StartBit/BitSize/ReportCount, which already account for
// the leading report-ID byte: the layout engine reserves it in every
// (report kind, report ID) bit cursor before laying out a single field
// (spec.md 4.5 step 1), so no further adjustment belongs here.
func reportLengths(caps []ValueCaps, collectionNumber uint16) []ReportLength {
	byID := map[uint8]int{}
	for _, c := range caps {
		endBit := int(c.StartByte)*8 + int(c.StartBit) + int(c.BitSize)*int(c.ReportCount)
		endByte := (endBit + 7) / 8
		if endByte > byID[c.ReportID] {
			byID[c.ReportID] = endByte
		}
	}
	lengths := make([]ReportLength, 0, len(byID))
	for id, n := range byID {
		lengths = append(lengths, ReportLength{ReportID: id, Bytes: n, CollectionNumber: collectionNumber})
	}
	sort.Slice(lengths, func(i, j int) bool { return lengths[i].ReportID < lengths[j].ReportID })
	return lengths
}
