package hidparse

import "github.com/neuroplastio/hidpreparse/pkg/usbhid/hiddesc"

// CapFlags holds the parser-derived boolean properties of a ValueCaps
// entry (spec.md 3.1). They are computed once, at parse time, rather than
// re-derived by every caller.
type CapFlags uint16

const (
	FlagIsRange CapFlags = 1 << iota
	FlagIsDesignatorRange
	FlagIsStringRange
	FlagIsAbsolute
	FlagIsConstant
	FlagIsButton
	FlagArrayHasMore
)

func (f CapFlags) IsRange() bool           { return f&FlagIsRange != 0 }
func (f CapFlags) IsDesignatorRange() bool { return f&FlagIsDesignatorRange != 0 }
func (f CapFlags) IsStringRange() bool     { return f&FlagIsStringRange != 0 }
func (f CapFlags) IsAbsolute() bool        { return f&FlagIsAbsolute != 0 }
func (f CapFlags) IsConstant() bool        { return f&FlagIsConstant != 0 }
func (f CapFlags) IsButton() bool          { return f&FlagIsButton != 0 }
func (f CapFlags) ArrayHasMore() bool      { return f&FlagArrayHasMore != 0 }

// ReportKind distinguishes the three Main item kinds a ValueCaps entry can
// describe, plus the synthetic Collection kind used for the collection
// array (spec.md 4.4, 4.7).
type ReportKind uint8

const (
	ReportKindInput ReportKind = iota
	ReportKindOutput
	ReportKindFeature
	ReportKindCollection
)

// ValueCaps is the fixed-width, pointer-free capability record described
// in spec.md 3.1. Every field is a plain scalar so a ValueCaps can be
// copied by value and packed directly into a PreparsedData blob with
// encoding/binary.
type ValueCaps struct {
	ReportID   uint8
	ReportKind ReportKind

	// Bit position within the report, counting the leading report ID byte:
	// the first field of every report starts at bit 8 (spec.md 4.5).
	StartByte   uint16
	StartBit    uint8
	BitSize     uint8
	ReportCount uint16

	UsagePage    uint16
	UsageMin     uint16
	UsageMax     uint16
	DataIndexMin uint16
	DataIndexMax uint16

	LogicalMin  int32
	LogicalMax  int32
	PhysicalMin int32
	PhysicalMax int32
	UnitExponent int8
	Units        uint32

	DesignatorMin uint8
	DesignatorMax uint8
	StringMin     uint8
	StringMax     uint8

	// LinkCollection indexes into the collection array (spec.md 3.1);
	// LinkUsagePage/LinkUsage mirror the owning collection's identity so
	// a ValueCaps can be inspected without walking the collection array.
	LinkCollection uint16
	LinkUsagePage  uint16
	LinkUsage      uint16

	BitField hiddesc.DataFlags
	Flags    CapFlags
}

func (c *ValueCaps) deriveFlags() {
	var f CapFlags
	if c.UsageMin != c.UsageMax || c.DataIndexMin != c.DataIndexMax {
		f |= FlagIsRange
	}
	if c.DesignatorMin != c.DesignatorMax {
		f |= FlagIsDesignatorRange
	}
	if c.StringMin != c.StringMax {
		f |= FlagIsStringRange
	}
	if !c.BitField.IsRelative() {
		f |= FlagIsAbsolute
	}
	if c.BitField.IsConstant() {
		f |= FlagIsConstant
	}
	if c.ReportKind != ReportKindCollection && (c.BitSize == 1 || c.BitField.IsArray()) {
		f |= FlagIsButton
	}
	c.Flags = f
}
