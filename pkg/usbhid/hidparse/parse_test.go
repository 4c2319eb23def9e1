package hidparse

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var errAllocBoom = errors.New("boom")

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
	require.NoError(t, err)
	return b
}

// S1: a plain two-axis, three-button mouse (spec.md 8.2).
const mouseDescriptorHex = `
05 01 09 02 A1 01 09 01 A1 00 05 09 19 01 29 03
15 00 25 01 95 03 75 01 81 02 95 01 75 05 81 03
05 01 09 30 09 31 15 81 25 7F 75 08 95 02 81 06
C0 C0
`

// S2: the standard USB boot-protocol keyboard descriptor.
const bootKeyboardDescriptorHex = `
05 01 09 06 A1 01 05 07 19 E0 29 E7 15 00 25 01
75 01 95 08 81 02 95 01 75 08 81 01 95 05 75 01
05 08 19 01 29 05 91 02 95 01 75 03 91 01 95 06
75 08 15 00 25 65 05 07 19 00 29 65 81 00 C0
`

// S3: two report IDs sharing a single collection, one input field each.
const multiReportIDHex = `
05 01 09 02 A1 01 85 01 09 30 15 00 26 FF 00 75
08 95 01 81 02 85 02 09 31 15 00 26 FF 00 75 08
95 01 81 02 C0
`

func TestParseMouse(t *testing.T) {
	data, err := ParseDescriptor(mustHex(t, mouseDescriptorHex))
	require.NoError(t, err)

	desc, err := GetCollectionDescription(data)
	require.NoError(t, err)
	require.Equal(t, 2, desc.NumCollectionCaps)
	require.Equal(t, uint16(1), desc.UsagePage)
	require.Equal(t, uint16(2), desc.Usage)
	require.Equal(t, uint16(1), desc.CollectionNumber)
	require.Equal(t, len(data.Bytes()), desc.PreparsedDataLength)
	require.Len(t, desc.InputReportLengths, 1)
	// 1 reserved report-ID byte + 3 buttons/5 padding bits (1 byte) + X/Y
	// (2 bytes) = 4 bytes total.
	require.Equal(t, 4, desc.InputReportLengths[0].Bytes)
	require.Equal(t, uint16(1), desc.InputReportLengths[0].CollectionNumber)

	input, err := ValueCapsByKind(data, ReportKindInput)
	require.NoError(t, err)
	// X and Y are declared as two individual Usage tags rather than a
	// Usage Minimum/Maximum range, so each gets its own record, emitted
	// in reverse declaration order (Y before X).
	require.Len(t, input, 4)

	buttons := input[0]
	require.True(t, buttons.Flags.IsButton())
	require.Equal(t, uint16(3), buttons.ReportCount)
	require.Equal(t, uint16(1), buttons.UsageMin)
	require.Equal(t, uint16(3), buttons.UsageMax)

	padding := input[1]
	require.True(t, padding.Flags.IsConstant())
	require.Equal(t, uint8(5), padding.BitSize)

	y := input[2]
	require.False(t, y.Flags.IsButton())
	require.Equal(t, uint16(1), y.ReportCount)
	require.Equal(t, uint16(0x31), y.UsageMin)
	require.Equal(t, uint16(0x31), y.UsageMax)

	x := input[3]
	require.False(t, x.Flags.IsButton())
	require.Equal(t, uint16(1), x.ReportCount)
	require.Equal(t, uint16(0x30), x.UsageMin)
	require.Equal(t, uint16(0x30), x.UsageMax)
}

// TestParseUsageList exercises a Main item declaring several individual
// Usage tags rather than a Usage Minimum/Maximum range: it must emit one
// ValueCaps record per usage slot, in reverse declaration order, with the
// first emitted slot absorbing every field beyond one per usage.
const usageListDescriptorHex = `
05 01 09 02 A1 01 05 09 09 01 09 02 09 03 15 00
25 01 75 01 95 05 81 02 C0
`

func TestParseUsageList(t *testing.T) {
	data, err := ParseDescriptor(mustHex(t, usageListDescriptorHex))
	require.NoError(t, err)

	input, err := ValueCapsByKind(data, ReportKindInput)
	require.NoError(t, err)
	require.Len(t, input, 3)

	first := input[0]
	require.Equal(t, uint16(3), first.ReportCount)
	require.Equal(t, uint16(3), first.UsageMin)
	require.Equal(t, uint16(3), first.UsageMax)

	second := input[1]
	require.Equal(t, uint16(1), second.ReportCount)
	require.Equal(t, uint16(2), second.UsageMin)
	require.Equal(t, uint16(2), second.UsageMax)

	third := input[2]
	require.Equal(t, uint16(1), third.ReportCount)
	require.Equal(t, uint16(1), third.UsageMin)
	require.Equal(t, uint16(1), third.UsageMax)

	// Data indices are assigned in emission order and stay contiguous
	// since every slot here has a non-zero usage.
	require.Equal(t, uint16(0), first.DataIndexMin)
	require.Equal(t, uint16(0), first.DataIndexMax)
	require.Equal(t, uint16(1), second.DataIndexMin)
	require.Equal(t, uint16(2), third.DataIndexMin)
}

func TestParseBootKeyboard(t *testing.T) {
	data, err := ParseDescriptor(mustHex(t, bootKeyboardDescriptorHex))
	require.NoError(t, err)

	desc, err := GetCollectionDescription(data)
	require.NoError(t, err)
	require.Len(t, desc.InputReportLengths, 1)
	// 1 reserved report-ID byte + modifier byte + reserved byte + 6
	// keycode bytes = 9 bytes.
	require.Equal(t, 9, desc.InputReportLengths[0].Bytes)
	require.Len(t, desc.OutputReportLengths, 1)
	// 1 reserved report-ID byte + LED bits/padding (1 byte) = 2 bytes.
	require.Equal(t, 2, desc.OutputReportLengths[0].Bytes)

	input, err := ValueCapsByKind(data, ReportKindInput)
	require.NoError(t, err)

	var sawArray bool
	for _, c := range input {
		if c.BitSize == 8 && c.ReportCount == 6 {
			sawArray = true
			require.False(t, c.Flags.IsConstant())
		}
	}
	require.True(t, sawArray, "expected the 6-byte keycode array entry")
}

func TestParseReportIDs(t *testing.T) {
	data, err := ParseDescriptor(mustHex(t, multiReportIDHex))
	require.NoError(t, err)

	desc, err := GetCollectionDescription(data)
	require.NoError(t, err)
	require.Len(t, desc.InputReportLengths, 2)
	for _, rl := range desc.InputReportLengths {
		// 1 report ID byte + 1 data byte.
		require.Equal(t, 2, rl.Bytes)
	}
}

func TestParsePushPop(t *testing.T) {
	// USAGE_PAGE(1) COLLECTION(Application) PUSH LOGICAL_MINIMUM(-1) POP
	// USAGE(1) ... the popped
	// logical minimum must not leak into the item after POP.
	raw := mustHex(t, `
05 01 A1 01 A4 15 FF B4 09 01 25 01 75 01 95 01
81 02 C0
`)
	data, err := ParseDescriptor(raw)
	require.NoError(t, err)

	input, err := ValueCapsByKind(data, ReportKindInput)
	require.NoError(t, err)
	require.Len(t, input, 1)
	require.Equal(t, int32(0), input[0].LogicalMin)
}

func TestParseTruncated(t *testing.T) {
	// REPORT_SIZE (0x75) announces a 1-byte payload that never arrives.
	_, err := ParseDescriptor([]byte{0x75})
	require.ErrorIs(t, err, ErrDescriptorTruncated)
}

func TestParseUnknownTag(t *testing.T) {
	_, err := ParseDescriptor([]byte{0xFE, 0x00, 0x00})
	require.ErrorIs(t, err, ErrReservedItemType)
}

func TestParseDelimiterAborts(t *testing.T) {
	// USAGE_PAGE(1) COLLECTION(Application) DELIMITER(Open) ... the
	// reference parser bails out the moment it sees a Delimiter item
	// rather than opening an alternate usage set.
	_, err := ParseDescriptor(mustHex(t, "05 01 A1 01 A9 01"))
	require.ErrorIs(t, err, ErrDelimiterUnsupported)
}

func TestParseUnfinishedNesting(t *testing.T) {
	// COLLECTION(Application) with no matching END_COLLECTION: warning,
	// not fatal (spec.md 7) — output is still produced.
	data, err := ParseDescriptor(mustHex(t, "05 01 09 02 A1 01"))
	require.NoError(t, err)
	require.ErrorIs(t, errors.Join(data.Warnings()...), ErrUnfinishedNesting)
}

func TestParseStackUnderflow(t *testing.T) {
	// POP with no matching PUSH: warning, not fatal (spec.md 7).
	data, err := ParseDescriptor(mustHex(t, "B4"))
	require.NoError(t, err)
	require.ErrorIs(t, errors.Join(data.Warnings()...), ErrStackUnderflow)
}

func TestParseEndCollectionUnderflow(t *testing.T) {
	// END_COLLECTION with no matching COLLECTION: also warning-only,
	// grouped with Pop underflow by spec.md 7's error table.
	data, err := ParseDescriptor(mustHex(t, "C0"))
	require.NoError(t, err)
	require.ErrorIs(t, errors.Join(data.Warnings()...), ErrStackUnderflow)
}

func TestDataIndexContiguity(t *testing.T) {
	data, err := ParseDescriptor(mustHex(t, mouseDescriptorHex))
	require.NoError(t, err)

	input, err := ValueCapsByKind(data, ReportKindInput)
	require.NoError(t, err)

	// A field with no usage (the padding bits between the buttons and the
	// axes) doesn't consume a data index slot: it reports whatever index
	// the next real field will use, and only a field with a usage
	// advances the cursor.
	wantNext := uint16(0)
	for _, c := range input {
		require.Equal(t, wantNext, c.DataIndexMin)
		require.Equal(t, wantNext+(c.UsageMax-c.UsageMin), c.DataIndexMax)
		if c.UsageMin != 0 || c.UsageMax != 0 {
			wantNext = c.DataIndexMax + 1
		}
	}
}

func TestBitLengthConservation(t *testing.T) {
	for _, raw := range []string{mouseDescriptorHex, bootKeyboardDescriptorHex} {
		data, err := ParseDescriptor(mustHex(t, raw))
		require.NoError(t, err)

		for _, kind := range []ReportKind{ReportKindInput, ReportKindOutput} {
			caps, err := ValueCapsByKind(data, kind)
			require.NoError(t, err)

			byID := map[uint8]int{}
			for _, c := range caps {
				byID[c.ReportID] += int(c.BitSize) * int(c.ReportCount)
			}
			for id, bits := range byID {
				require.Zero(t, bits%8, "report id %d has a non-byte-aligned bit length", id)
			}
		}
	}
}

func TestAllocatorFailurePropagates(t *testing.T) {
	failing := AllocatorFunc(func(size int) ([]byte, error) {
		return nil, errAllocBoom
	})
	_, err := ParseDescriptor(mustHex(t, mouseDescriptorHex), WithAllocator(failing))
	require.ErrorIs(t, err, ErrAllocFailure)
}
