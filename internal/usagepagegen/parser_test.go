package usagepagegen

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePageFrontmatterAndTable(t *testing.T) {
	source := []byte(`---
page: 9
name: Button
---

| Usage | Name     | Type |
| ----- | -------- | ---- |
| 0x01  | Button 1 | Sel  |
| 0x02  | Button 2 | Sel  |
`)

	p := NewPageParser()
	page, err := p.Parse(source)
	require.NoError(t, err)
	require.EqualValues(t, 9, page.ID)
	require.Equal(t, "Button", page.Name)
	require.Len(t, page.Usages, 2)
	require.EqualValues(t, 1, page.Usages[0].ID)
	require.Equal(t, "Button 1", page.Usages[0].Name)
	require.Equal(t, "Sel", page.Usages[0].Type)
}

func TestParseEmbeddedDataFiles(t *testing.T) {
	entries, err := FS.ReadDir("data")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	p := NewPageParser()
	for _, e := range entries {
		source, err := FS.ReadFile("data/" + e.Name())
		require.NoError(t, err)
		page, err := p.Parse(source)
		require.NoError(t, err, e.Name())
		require.NotZero(t, page.ID, e.Name())
		require.NotEmpty(t, page.Usages, e.Name())
	}
}

func TestGenerateProducesValidIdentifiers(t *testing.T) {
	page := &Page{
		ID:   9,
		Name: "Button",
		Usages: []Usage{
			{ID: 1, Name: "Button 1"},
			{ID: 2, Name: "Button 2"},
		},
	}
	out, err := Generate([]*Page{page})
	require.NoError(t, err)
	require.Contains(t, string(out), "const PageButton = 0x0009")
	require.Contains(t, string(out), "const UsageButton1 = 0x0001")
	require.Contains(t, string(out), `pageNames[PageButton] = "Button"`)
}
