package hidparse

import "encoding/binary"

// ItemType is the two-bit type field of a short item's prefix byte.
type ItemType uint8

const (
	ItemTypeMain ItemType = iota
	ItemTypeGlobal
	ItemTypeLocal
	ItemTypeReserved
)

// Item is one decoded short item: a tag, its type, the number of payload
// bytes, and the payload read two ways (unsigned little-endian, and
// sign-extended per spec.md 4.1).
type Item struct {
	Tag    uint8
	Type   ItemType
	Size   int
	Raw    uint32
	Signed int32
}

// ItemReader pulls one short item at a time out of a raw report descriptor
// byte slice. Long items (prefix 0xFE) are recognized, per spec.md 9, only
// well enough to be rejected.
type ItemReader struct {
	data []byte
	pos  int
}

func NewItemReader(data []byte) *ItemReader {
	return &ItemReader{data: data}
}

var itemSizes = [4]int{0, 1, 2, 4}

// Next decodes the item starting at the reader's current position. It
// returns ok=false with a nil error once the input is exhausted.
func (r *ItemReader) Next() (item Item, ok bool, err error) {
	if r.pos >= len(r.data) {
		return Item{}, false, nil
	}
	prefix := r.data[r.pos]
	if prefix == TagLongItemPrefix {
		return Item{}, false, ErrReservedItemType
	}
	size := itemSizes[prefix&0x03]
	itemType := ItemType((prefix >> 2) & 0x03)
	tag := prefix >> 4

	start := r.pos + 1
	end := start + size
	if end > len(r.data) {
		return Item{}, false, ErrDescriptorTruncated
	}

	payload := r.data[start:end]
	raw := leToUint32(payload)
	signed := signExtend(payload)

	r.pos = end
	return Item{
		Tag:    tag,
		Type:   itemType,
		Size:   size,
		Raw:    raw,
		Signed: signed,
	}, true, nil
}

func leToUint32(b []byte) uint32 {
	switch len(b) {
	case 0:
		return 0
	case 1:
		return uint32(b[0])
	case 2:
		return uint32(binary.LittleEndian.Uint16(b))
	case 4:
		return binary.LittleEndian.Uint32(b)
	default:
		return 0
	}
}

func signExtend(b []byte) int32 {
	switch len(b) {
	case 0:
		return 0
	case 1:
		return int32(int8(b[0]))
	case 2:
		return int32(int16(binary.LittleEndian.Uint16(b)))
	case 4:
		return int32(binary.LittleEndian.Uint32(b))
	default:
		return 0
	}
}

// TagLongItemPrefix is the reserved long-item marker (spec.md 4.1, 9).
const TagLongItemPrefix = 0xFE

// Main item tags (ItemType == ItemTypeMain).
const (
	TagMainInput         = 8
	TagMainOutput        = 9
	TagMainCollection    = 10
	TagMainFeature       = 11
	TagMainEndCollection = 12
)

// Global item tags (ItemType == ItemTypeGlobal).
const (
	TagGlobalUsagePage       = 0
	TagGlobalLogicalMinimum  = 1
	TagGlobalLogicalMaximum  = 2
	TagGlobalPhysicalMinimum = 3
	TagGlobalPhysicalMaximum = 4
	TagGlobalUnitExponent    = 5
	TagGlobalUnit            = 6
	TagGlobalReportSize      = 7
	TagGlobalReportID        = 8
	TagGlobalReportCount     = 9
	TagGlobalPush            = 10
	TagGlobalPop             = 11
)

// Local item tags (ItemType == ItemTypeLocal).
const (
	TagLocalUsage             = 0
	TagLocalUsageMinimum      = 1
	TagLocalUsageMaximum      = 2
	TagLocalDesignatorIndex   = 3
	TagLocalDesignatorMinimum = 4
	TagLocalDesignatorMaximum = 5
	TagLocalStringIndex       = 7
	TagLocalStringMinimum     = 8
	TagLocalStringMaximum     = 9
	TagLocalDelimiter         = 10
)
