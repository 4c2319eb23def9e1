package hiddesc

import (
	"encoding/binary"
	"io"
)

// Encoder is decoder.go's inverse: it walks a ReportDescriptor tree and
// writes the minimal sequence of short items that reproduces it, skipping
// any global/local item whose value already matches what the previous
// item left in place.
type Encoder struct {
	desc   *ReportDescriptor
	w      io.Writer
	global *globalState
	local  *localState
}

func NewDescriptorEncoder(w io.Writer, desc *ReportDescriptor) *Encoder {
	return &Encoder{
		desc:   desc,
		w:      w,
		global: &globalState{},
		local:  &localState{},
	}
}

func (e *Encoder) Encode() error {
	for _, collection := range e.desc.Collections {
		if err := e.encodeCollection(collection); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeCollection(collection Collection) error {
	if err := e.encodeUsagePage(collection.UsagePage); err != nil {
		return err
	}
	if err := e.encodeUsageID(collection.UsageID); err != nil {
		return err
	}
	if err := e.encodeTag8(TagCollection, uint8(collection.Type)); err != nil {
		return err
	}
	e.local = &localState{}
	for _, item := range collection.Items {
		if err := e.encodeMainItem(item); err != nil {
			return err
		}
	}
	if err := e.encodeTag(TagEndCollection); err != nil {
		return err
	}
	e.local = &localState{}
	return nil
}

// encodeMainItem writes one Input/Output/Feature/Collection item, only
// emitting the global/local tags whose value changed since the last item
// this encoder wrote.
func (e *Encoder) encodeMainItem(item MainItem) error {
	if item.Collection != nil {
		return e.encodeCollection(*item.Collection)
	}
	d := item.DataItem
	if d == nil {
		return nil
	}

	if err := e.encodeUsagePage(d.UsagePage); err != nil {
		return err
	}
	if err := e.encodeUsages(d.UsageIDs); err != nil {
		return err
	}
	if err := e.encodeUsageRange(d.UsageMinimum, d.UsageMaximum); err != nil {
		return err
	}
	if err := e.encodeDesignatorIndex(d.DesignatorIndex); err != nil {
		return err
	}
	if err := e.encodeDesignatorRange(d.DesignatorMinimum, d.DesignatorMaximum); err != nil {
		return err
	}
	if err := e.encodeLogicalRange(d.LogicalMinimum, d.LogicalMaximum); err != nil {
		return err
	}
	if err := e.encodePhysicalRange(d.PhysicalMinimum, d.PhysicalMaximum); err != nil {
		return err
	}
	if err := e.encodeUnitExponent(d.UnitExponent); err != nil {
		return err
	}
	if err := e.encodeUnit(d.Unit); err != nil {
		return err
	}
	if err := e.encodeReportID(d.ReportID); err != nil {
		return err
	}
	if err := e.encodeReportCount(d.ReportCount); err != nil {
		return err
	}
	if err := e.encodeReportSize(d.ReportSize); err != nil {
		return err
	}

	switch item.Type {
	case MainItemTypeInput:
		if err := e.encodeTag32(TagInput, uint32(d.Flags)); err != nil {
			return err
		}
	case MainItemTypeOutput:
		if err := e.encodeTag32(TagOutput, uint32(d.Flags)); err != nil {
			return err
		}
	case MainItemTypeFeature:
		if err := e.encodeTag32(TagFeature, uint32(d.Flags)); err != nil {
			return err
		}
	}
	e.local = &localState{}
	return nil
}

func (e *Encoder) encodeUsageRange(min, max uint16) error {
	if min == e.local.usageMinimum && max == e.local.usageMaximum {
		return nil
	}
	if err := e.encodeTag16(TagUsageMinimum, min); err != nil {
		return err
	}
	if err := e.encodeTag16(TagUsageMaximum, max); err != nil {
		return err
	}
	e.local.usageMinimum, e.local.usageMaximum = min, max
	return nil
}

func (e *Encoder) encodeDesignatorIndex(index uint8) error {
	if index == e.local.designatorIndex {
		return nil
	}
	if err := e.encodeTag8(TagDesignatorIndex, index); err != nil {
		return err
	}
	e.local.designatorIndex = index
	return nil
}

func (e *Encoder) encodeDesignatorRange(min, max uint8) error {
	if min == e.local.designatorMinimum && max == e.local.designatorMaximum {
		return nil
	}
	if err := e.encodeTag8(TagDesignatorMinimum, min); err != nil {
		return err
	}
	if err := e.encodeTag8(TagDesignatorMaximum, max); err != nil {
		return err
	}
	e.local.designatorMinimum, e.local.designatorMaximum = min, max
	return nil
}

func (e *Encoder) encodeLogicalRange(min, max int32) error {
	if min == e.global.logicalMinimum && max == e.global.logicalMaximum {
		return nil
	}
	if err := e.encodeTagi32(TagLogicalMinimum, min); err != nil {
		return err
	}
	if err := e.encodeTagi32(TagLogicalMaximum, max); err != nil {
		return err
	}
	e.global.logicalMinimum, e.global.logicalMaximum = min, max
	return nil
}

func (e *Encoder) encodePhysicalRange(min, max int32) error {
	if min == e.global.physicalMinimum && max == e.global.physicalMaximum {
		return nil
	}
	if err := e.encodeTagi32(TagPhysicalMinimum, min); err != nil {
		return err
	}
	if err := e.encodeTagi32(TagPhysicalMaximum, max); err != nil {
		return err
	}
	e.global.physicalMinimum, e.global.physicalMaximum = min, max
	return nil
}

func (e *Encoder) encodeUnitExponent(exponent uint32) error {
	if exponent == e.global.unitExponent {
		return nil
	}
	if err := e.encodeTag32(TagUnitExponent, exponent); err != nil {
		return err
	}
	e.global.unitExponent = exponent
	return nil
}

func (e *Encoder) encodeUnit(unit uint32) error {
	if unit == e.global.unit {
		return nil
	}
	if err := e.encodeTag32(TagUnit, unit); err != nil {
		return err
	}
	e.global.unit = unit
	return nil
}

func (e *Encoder) encodeReportID(id uint8) error {
	if id == e.global.reportID {
		return nil
	}
	if err := e.encodeTag8(TagReportID, id); err != nil {
		return err
	}
	e.global.reportID = id
	return nil
}

func (e *Encoder) encodeReportCount(count uint32) error {
	if count == e.global.reportCount {
		return nil
	}
	if err := e.encodeTag32(TagReportCount, count); err != nil {
		return err
	}
	e.global.reportCount = count
	return nil
}

func (e *Encoder) encodeReportSize(size uint32) error {
	if size == e.global.reportSize {
		return nil
	}
	if err := e.encodeTag32(TagReportSize, size); err != nil {
		return err
	}
	e.global.reportSize = size
	return nil
}

func (e *Encoder) encodeUsagePage(usagePage uint16) error {
	if usagePage == e.global.usagePage {
		return nil
	}
	if err := e.encodeTag16(TagUsagePage, usagePage); err != nil {
		return err
	}
	e.global.usagePage = usagePage
	return nil
}

func (e *Encoder) encodeUsages(usageIDs []uint16) error {
	for _, usageID := range usageIDs {
		if err := e.encodeUsageID(usageID); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeUsageID(usageID uint16) error {
	if usageID == 0 {
		return nil
	}
	if len(e.local.usage) > 0 && e.local.usage[len(e.local.usage)-1] == usageID {
		return nil
	}
	if err := e.encodeTag16(TagUsage, usageID); err != nil {
		return err
	}
	e.local.usage = []uint16{usageID}
	return nil
}

func (e *Encoder) encodeTag(tag Tag) error {
	_, err := e.w.Write([]byte{byte(tag.WithItemSize(TagItemSize0))})
	return err
}

func (e *Encoder) encodeTag8(tag Tag, value uint8) error {
	_, err := e.w.Write([]byte{byte(tag.WithItemSize(TagItemSize8)), value})
	return err
}

func (e *Encoder) encodeTag16(tag Tag, value uint16) error {
	// check if value fits into one byte
	if value < 0x100 {
		return e.encodeTag8(tag, uint8(value))
	}
	_, err := e.w.Write([]byte{byte(tag.WithItemSize(TagItemSize16)), byte(value), byte(value >> 8)})
	return err
}

func (e *Encoder) encodeTagi32(tag Tag, value int32) error {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, uint32(value))
	size := TagItemSize32
	pad := byte(0)
	if value < 0 {
		pad = 0xff
	}
	switch {
	case data[1] == pad && data[2] == pad && data[3] == pad:
		size = TagItemSize8
		data = data[:1]
	case data[2] == pad && data[3] == pad:
		size = TagItemSize16
		data = data[:2]
	}
	data = append([]byte{byte(tag.WithItemSize(size))}, data...)
	_, err := e.w.Write(data)
	return err
}

func (e *Encoder) encodeTag32(tag Tag, value uint32) error {
	// check if value fits into one byte
	if value < 0x100 {
		return e.encodeTag8(tag, uint8(value))
	}
	// check if value fits into two bytes
	if value < 0x10000 {
		return e.encodeTag16(tag, uint16(value))
	}
	_, err := e.w.Write([]byte{byte(tag.WithItemSize(TagItemSize32)), byte(value), byte(value >> 8), byte(value >> 16), byte(value >> 24)})
	return err
}
