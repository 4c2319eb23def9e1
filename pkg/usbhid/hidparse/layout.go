package hidparse

import "github.com/neuroplastio/hidpreparse/pkg/usbhid/hiddesc"

// LayoutEngine assigns bit positions and data indices to Main items as
// they are encountered, and accumulates the resulting ValueCaps into the
// three per-kind capability arrays (spec.md 4.5, 4.6).
//
// A Main item emits one ValueCaps record per declared usage slot (spec.md
// 4.5 steps 7-8): a plain Usage Minimum/Maximum range collapses to a
// single slot, but an item that lists several discrete Usage tags emits
// one record per tag, in reverse declaration order.
type LayoutEngine struct {
	// bitCursor tracks, per (report kind, report ID), the bit position
	// one past the last field laid out for that pair. It starts
	// unreserved (0) and is initialized to 8 the first time that report
	// kind touches that report ID, reserving byte 0 for the report ID
	// prefix (spec.md 4.5 step 1) -- unconditionally, even for the
	// default report ID 0.
	bitCursor map[layoutKey]uint32
	dataIndex map[ReportKind]uint16

	input   []ValueCaps
	output  []ValueCaps
	feature []ValueCaps
}

type layoutKey struct {
	kind     ReportKind
	reportID uint8
}

func newLayoutEngine() *LayoutEngine {
	return &LayoutEngine{
		bitCursor: map[layoutKey]uint32{},
		dataIndex: map[ReportKind]uint16{},
	}
}

// addMainItem lays out one Input, Output, or Feature item using the
// parser's current global/local state, appends the resulting ValueCaps
// records to the matching array, and clears the local item state as the
// HID spec requires after every Main item.
func (le *LayoutEngine) addMainItem(kind ReportKind, s *ParserState, flags hiddesc.DataFlags) error {
	if !s.insideCollection() {
		return ErrNoCollection
	}

	g := s.global
	l := s.local

	reportCount := g.reportCount
	reportSize := g.reportSize

	usagesSize := uint32(len(l.usages))
	if usagesSize == 0 {
		usagesSize = 1
	}

	key := layoutKey{kind: kind, reportID: g.reportID}
	cursor := le.bitCursor[key]
	if cursor == 0 {
		cursor = 8
	}
	cursor += reportSize * reportCount
	le.bitCursor[key] = cursor

	if reportCount == 0 {
		s.local.reset()
		return nil
	}

	isArray := flags.IsArray()
	link, linkUsagePage, linkUsage := s.currentCollectionLink()

	startBit := cursor
	fieldCount := reportCount
	if isArray {
		startBit -= reportSize * reportCount
	} else {
		// The first emitted slot absorbs every field beyond one per
		// usage; every later slot gets exactly one field (spec.md 4.5
		// step 7). A descriptor declaring more usages than fields is
		// malformed input; the arithmetic below proceeds best-effort,
		// matching the reference parser.
		fieldCount = reportCount - (usagesSize - 1)
	}

	records := make([]ValueCaps, 0, usagesSize)

	for i := usagesSize; i > 0; {
		i--
		if !isArray {
			startBit -= reportSize * fieldCount
		}

		var slot usageSlot
		if i < uint32(len(l.usages)) {
			slot = l.usages[i]
		}

		dataIndexMin := le.dataIndex[kind]
		dataIndexMax := dataIndexMin
		if slot.max != 0 || slot.min != 0 {
			dataIndexMax = dataIndexMin + (slot.max - slot.min)
			le.dataIndex[kind] = dataIndexMax + 1
		}

		entry := ValueCaps{
			ReportID:   g.reportID,
			ReportKind: kind,

			StartByte:   uint16(startBit / 8),
			StartBit:    uint8(startBit % 8),
			BitSize:     uint8(reportSize),
			ReportCount: uint16(fieldCount),

			UsagePage:    slot.page,
			UsageMin:     slot.min,
			UsageMax:     slot.max,
			DataIndexMin: dataIndexMin,
			DataIndexMax: dataIndexMax,

			LogicalMin:   g.logicalMinimum,
			LogicalMax:   g.logicalMaximum,
			PhysicalMin:  g.physicalMinimum,
			PhysicalMax:  g.physicalMaximum,
			UnitExponent: g.unitExponent,
			Units:        g.units,

			DesignatorMin: l.designatorMinimum,
			DesignatorMax: l.designatorMaximum,
			StringMin:     l.stringMinimum,
			StringMax:     l.stringMaximum,

			LinkCollection: link,
			LinkUsagePage:  linkUsagePage,
			LinkUsage:      linkUsage,

			BitField: flags,
		}
		if !l.haveDesignatorRange && l.designatorIndex != 0 {
			entry.DesignatorMin, entry.DesignatorMax = l.designatorIndex, l.designatorIndex
		}
		if !l.haveStringRange && l.stringIndex != 0 {
			entry.StringMin, entry.StringMax = l.stringIndex, l.stringIndex
		}
		entry.deriveFlags()
		if isArray && i != 0 {
			entry.Flags |= FlagArrayHasMore
		}

		records = append(records, entry)
		if !isArray {
			fieldCount = 1
		}
	}

	switch kind {
	case ReportKindInput:
		le.input = append(le.input, records...)
	case ReportKindOutput:
		le.output = append(le.output, records...)
	case ReportKindFeature:
		le.feature = append(le.feature, records...)
	}

	s.local.reset()
	return nil
}

// reportByteLength returns the byte length of the largest report this
// report kind lays out across every report ID it touched, matching
// main.c:619-624's *_report_byte_length fields on the preparsed data.
func (le *LayoutEngine) reportByteLength(kind ReportKind) uint16 {
	var maxBits uint32
	for key, cursor := range le.bitCursor {
		if key.kind == kind && cursor > maxBits {
			maxBits = cursor
		}
	}
	return uint16((maxBits + 7) / 8)
}
