package hiddesc

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// mustHex decodes a whitespace-separated hex dump, as used throughout the
// report descriptor examples in the HID usage tables.
func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
	require.NoError(t, err)
	return b
}

const mouseDescriptorHex = `
05 01 09 02 A1 01 09 01 A1 00 05 09 19 01 29 03
15 00 25 01 95 03 75 01 81 02 95 01 75 05 81 03
C0 C0
`

const bootKeyboardDescriptorHex = `
05 01 09 06 A1 01 05 07 19 E0 29 E7 15 00 25 01
75 01 95 08 81 02 95 01 75 08 81 01 95 05 75 01
05 08 19 01 29 05 91 02 95 01 75 03 91 01 95 06
75 08 15 00 25 65 05 07 19 00 29 65 81 00 C0
`

func TestDecodeMouse(t *testing.T) {
	desc, err := NewDescriptorDecoder(bytes.NewReader(mustHex(t, mouseDescriptorHex))).Decode()
	require.NoError(t, err)
	require.Len(t, desc.Collections, 1)

	app := desc.Collections[0]
	require.Equal(t, CollectionTypeApplication, app.Type)
	require.Equal(t, uint16(1), app.UsagePage)
	require.Equal(t, uint16(2), app.UsageID)
	require.Len(t, app.Items, 1)
	require.NotNil(t, app.Items[0].Collection)

	phys := app.Items[0].Collection
	require.Equal(t, CollectionTypePhysical, phys.Type)
	require.Len(t, phys.Items, 2)
	require.NotNil(t, phys.Items[0].DataItem)
	require.Equal(t, uint32(3), phys.Items[0].DataItem.ReportCount)
	require.True(t, phys.Items[0].DataItem.Flags.IsVariable())
	require.Equal(t, uint32(1), phys.Items[1].DataItem.ReportCount)
	require.True(t, phys.Items[1].DataItem.Flags.IsConstant())
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	for name, raw := range map[string]string{
		"mouse":        mouseDescriptorHex,
		"boot-keyboard": bootKeyboardDescriptorHex,
	} {
		t.Run(name, func(t *testing.T) {
			original := mustHex(t, raw)
			desc, err := NewDescriptorDecoder(bytes.NewReader(original)).Decode()
			require.NoError(t, err)

			buf := &bytes.Buffer{}
			require.NoError(t, NewDescriptorEncoder(buf, &desc).Encode())

			reDecoded, err := NewDescriptorDecoder(bytes.NewReader(buf.Bytes())).Decode()
			require.NoError(t, err)
			require.Equal(t, desc, reDecoded)
		})
	}
}

func TestDecodeTruncated(t *testing.T) {
	// REPORT_SIZE (0x75) with a declared 1-byte payload and nothing after it.
	_, err := NewDescriptorDecoder(bytes.NewReader([]byte{0x75})).Decode()
	require.Error(t, err)
}

func TestDecodeUnknownTag(t *testing.T) {
	// 0xFE is the reserved long-item prefix; this decoder only speaks short items.
	_, err := NewDescriptorDecoder(bytes.NewReader([]byte{0xFE, 0x00, 0x00})).Decode()
	require.Error(t, err)
}
