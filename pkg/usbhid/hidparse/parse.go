package hidparse

import (
	"fmt"

	"github.com/neuroplastio/hidpreparse/pkg/usbhid/hiddesc"
)

// ParseOption configures a single call to ParseDescriptor.
type ParseOption func(*parseOptions)

type parseOptions struct {
	limits    Limits
	allocator Allocator
}

// WithLimits overrides the default resource limits (spec.md 5, 7).
func WithLimits(l Limits) ParseOption {
	return func(o *parseOptions) { o.limits = l }
}

// WithAllocator supplies the Allocator used to obtain memory for the
// returned PreparsedData blob (spec.md 5, 6.1). The default allocator
// simply allocates Go byte slices.
func WithAllocator(a Allocator) ParseOption {
	return func(o *parseOptions) { o.allocator = a }
}

// ParseDescriptor decodes a raw HID report descriptor and builds its
// preparsed data: the per-report bit layout of every Input, Output, and
// Feature item, plus the collection tree, packed into a single
// position-independent blob (spec.md 1, 6.1).
func ParseDescriptor(data []byte, opts ...ParseOption) (*PreparsedData, error) {
	options := parseOptions{limits: defaultLimits, allocator: defaultAllocator{}}
	for _, opt := range opts {
		opt(&options)
	}

	state := newParserState(options.limits)
	reader := NewItemReader(data)

	for {
		item, ok, err := reader.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if err := dispatch(state, item); err != nil {
			return nil, err
		}
	}

	// A non-empty stack at EOF is warning-only (spec.md 7): it adds
	// ErrUnfinishedNesting to state.warnings (after any ErrStackUnderflow
	// entries from unmatched Pop/End Collection items), and the preparsed
	// data is still built.
	if !state.balanced() {
		state.warnings = append(state.warnings, ErrUnfinishedNesting)
	}

	builder := newPreparsedBuilder(options.allocator)
	return builder.build(state)
}

func dispatch(s *ParserState, item Item) error {
	switch item.Type {
	case ItemTypeMain:
		return dispatchMain(s, item)
	case ItemTypeGlobal:
		return dispatchGlobal(s, item)
	case ItemTypeLocal:
		return dispatchLocal(s, item)
	default:
		return fmt.Errorf("%w: reserved item type %d", ErrReservedItemType, item.Type)
	}
}

func dispatchMain(s *ParserState, item Item) error {
	switch item.Tag {
	case TagMainInput:
		return s.layout.addMainItem(ReportKindInput, s, hiddesc.DataFlags(item.Raw))
	case TagMainOutput:
		return s.layout.addMainItem(ReportKindOutput, s, hiddesc.DataFlags(item.Raw))
	case TagMainFeature:
		return s.layout.addMainItem(ReportKindFeature, s, hiddesc.DataFlags(item.Raw))
	case TagMainCollection:
		return s.openCollectionItem(uint8(item.Raw))
	case TagMainEndCollection:
		s.closeCollectionItem()
		return nil
	default:
		return fmt.Errorf("%w: main tag %d", ErrUnknownTag, item.Tag)
	}
}

func dispatchGlobal(s *ParserState, item Item) error {
	g := &s.global
	switch item.Tag {
	case TagGlobalUsagePage:
		g.usagePage = uint16(item.Raw)
	case TagGlobalLogicalMinimum:
		g.logicalMinimum = item.Signed
	case TagGlobalLogicalMaximum:
		g.logicalMaximum = item.Signed
	case TagGlobalPhysicalMinimum:
		g.physicalMinimum = item.Signed
	case TagGlobalPhysicalMaximum:
		g.physicalMaximum = item.Signed
	case TagGlobalUnitExponent:
		g.unitExponent = int8(item.Signed)
	case TagGlobalUnit:
		g.units = item.Raw
	case TagGlobalReportSize:
		g.reportSize = item.Raw
	case TagGlobalReportID:
		g.reportID = uint8(item.Raw)
		s.reportIDsSeen[g.reportID] = true
	case TagGlobalReportCount:
		g.reportCount = item.Raw
	case TagGlobalPush:
		return s.pushGlobal()
	case TagGlobalPop:
		s.popGlobal()
	default:
		return fmt.Errorf("%w: global tag %d", ErrUnknownTag, item.Tag)
	}
	return nil
}

func dispatchLocal(s *ParserState, item Item) error {
	l := &s.local
	switch item.Tag {
	case TagLocalUsage:
		if len(l.usages) >= s.limits.MaxUsagesPerItem {
			return ErrUsageOverflow
		}
		// A 4-byte USAGE payload packs a usage-page override into its
		// upper 16 bits; 0 means inherit the current global page
		// (spec.md 4.3).
		page := uint16(item.Raw >> 16)
		if page == 0 {
			page = s.global.usagePage
		}
		l.addUsage(page, uint16(item.Raw))
	case TagLocalUsageMinimum:
		page := uint16(item.Raw >> 16)
		if page == 0 {
			page = s.global.usagePage
		}
		l.setUsageMinimum(page, uint16(item.Raw))
	case TagLocalUsageMaximum:
		page := uint16(item.Raw >> 16)
		if page == 0 {
			page = s.global.usagePage
		}
		l.setUsageMaximum(page, uint16(item.Raw))
	case TagLocalDesignatorIndex:
		l.designatorIndex = uint8(item.Raw)
	case TagLocalDesignatorMinimum:
		l.designatorMinimum = uint8(item.Raw)
		l.haveDesignatorRange = true
	case TagLocalDesignatorMaximum:
		l.designatorMaximum = uint8(item.Raw)
		l.haveDesignatorRange = true
	case TagLocalStringIndex:
		l.stringIndex = uint8(item.Raw)
	case TagLocalStringMinimum:
		l.stringMinimum = uint8(item.Raw)
		l.haveStringRange = true
	case TagLocalStringMaximum:
		l.stringMaximum = uint8(item.Raw)
		l.haveStringRange = true
	case TagLocalDelimiter:
		// Delimiter sets are not implemented (spec.md 4.3): the reference
		// parser's parse_descriptor bails out via "goto done" the moment
		// it sees this tag (main.c:580-582), leaving the preparsed data
		// unbuilt. Mirror that by aborting the parse outright rather than
		// treating it as a no-op.
		return ErrDelimiterUnsupported
	default:
		return fmt.Errorf("%w: local tag %d", ErrUnknownTag, item.Tag)
	}
	return nil
}
