package hidparse

import "github.com/neuroplastio/hidpreparse/pkg/usbhid/hiddesc"

// Limits bounds the resource usage of a single parse, per spec.md 5 and 7.
// The zero value selects the package defaults.
type Limits struct {
	MaxGlobalStackDepth int
	MaxUsagesPerItem    int
	MaxCollectionDepth  int
}

var defaultLimits = Limits{
	MaxGlobalStackDepth: 16,
	// MaxUsagesPerItem mirrors main.c's hardcoded 256-element
	// usages_page/usages_min/usages_max arrays: a 257th usage on one Main
	// item overflows the reference parser, not just this one.
	MaxUsagesPerItem:   256,
	MaxCollectionDepth: 64,
}

func (l Limits) withDefaults() Limits {
	if l.MaxGlobalStackDepth <= 0 {
		l.MaxGlobalStackDepth = defaultLimits.MaxGlobalStackDepth
	}
	if l.MaxUsagesPerItem <= 0 {
		l.MaxUsagesPerItem = defaultLimits.MaxUsagesPerItem
	}
	if l.MaxCollectionDepth <= 0 {
		l.MaxCollectionDepth = defaultLimits.MaxCollectionDepth
	}
	return l
}

// globalState mirrors the HID global item table (spec.md 4.2). It is
// copied by value onto the push stack and restored by Pop.
type globalState struct {
	usagePage       uint16
	logicalMinimum  int32
	logicalMaximum  int32
	physicalMinimum int32
	physicalMaximum int32
	unitExponent    int8
	units           uint32
	reportID        uint8
	reportCount     uint32
	reportSize      uint32
}

// usageSlot is one entry of the parallel usages_page/usages_min/usages_max
// arrays the HID spec's local item table maintains (spec.md 4.3): a Usage
// item appends a slot with page==min==max, while Usage Minimum/Maximum
// always write through slot 0, collapsing any prior Usage list.
type usageSlot struct {
	page uint16
	min  uint16
	max  uint16
}

// localState mirrors the HID local item table (spec.md 4.3). It is
// cleared after every Main item, never pushed or popped.
type localState struct {
	usages  []usageSlot
	isRange bool // mirrors HID_VALUE_CAPS_IS_RANGE: slot 0 holds a Usage Minimum/Maximum pair

	designatorIndex     uint8
	designatorMinimum   uint8
	designatorMaximum   uint8
	haveDesignatorRange bool

	stringIndex     uint8
	stringMinimum   uint8
	stringMaximum   uint8
	haveStringRange bool
}

func (l *localState) reset() {
	*l = localState{}
}

// addUsage appends a discrete Usage slot. If the local state currently
// holds a Usage Minimum/Maximum range, that range is discarded first: a
// plain Usage item always starts (or continues) a list, never a range.
func (l *localState) addUsage(page, id uint16) {
	if l.isRange {
		l.usages = l.usages[:0]
	}
	l.usages = append(l.usages, usageSlot{page: page, min: id, max: id})
	l.isRange = false
}

// setUsageMinimum writes slot 0's min field, as Usage Minimum does. Only
// the first Minimum/Maximum of the pair clears the other half of the
// slot; if Maximum already arrived this scope, its value is kept.
func (l *localState) setUsageMinimum(page, id uint16) {
	if !l.isRange || len(l.usages) == 0 {
		l.usages = []usageSlot{{}}
	}
	l.usages[0].page = page
	l.usages[0].min = id
	l.isRange = true
}

func (l *localState) setUsageMaximum(page, id uint16) {
	if !l.isRange || len(l.usages) == 0 {
		l.usages = []usageSlot{{}}
	}
	l.usages[0].page = page
	l.usages[0].max = id
	l.isRange = true
}

// openCollection tracks one entry on the nesting stack together with the
// index of its already-emitted ValueCaps entry in the collection array, so
// End Collection only needs to patch nothing further: children already
// recorded the parent's index via LinkCollection at the time they were
// emitted.
type openCollection struct {
	index     uint16
	usagePage uint16
	usageID   uint16
}

// ParserState drives the HID report descriptor state machine: the running
// global/local item tables, the push/pop stack, and the collection
// nesting stack (spec.md 4). Main items are handed to a LayoutEngine as
// they complete.
type ParserState struct {
	limits Limits

	global globalState
	local  localState

	globalStack []globalState

	collectionStack []openCollection
	collections     []ValueCaps

	layout *LayoutEngine

	reportIDsSeen map[uint8]bool

	warnings []error
}

func newParserState(limits Limits) *ParserState {
	return &ParserState{
		limits:        limits.withDefaults(),
		layout:        newLayoutEngine(),
		reportIDsSeen: map[uint8]bool{},
	}
}

func (s *ParserState) pushGlobal() error {
	if len(s.globalStack) >= s.limits.MaxGlobalStackDepth {
		return ErrStackOverflow
	}
	s.globalStack = append(s.globalStack, s.global)
	return nil
}

// popGlobal restores the global item table from the top of the push
// stack. An empty stack is a warning, not a fatal error (spec.md 7):
// the Pop is treated as a no-op and recorded in s.warnings.
func (s *ParserState) popGlobal() {
	if len(s.globalStack) == 0 {
		s.warnings = append(s.warnings, ErrStackUnderflow)
		return
	}
	s.global = s.globalStack[len(s.globalStack)-1]
	s.globalStack = s.globalStack[:len(s.globalStack)-1]
}

// openCollectionItem pushes a new collection frame and records its
// ValueCaps entry in the collection array. usagePage/usageID come from the
// local state exactly as a Main item would read them.
func (s *ParserState) openCollectionItem(collectionType uint8) error {
	if len(s.collectionStack) >= s.limits.MaxCollectionDepth {
		return ErrStackOverflow
	}
	usageMin, usageMax := uint16(0), uint16(0)
	if len(s.local.usages) > 0 {
		usageMin = s.local.usages[0].min
		usageMax = s.local.usages[0].max
	}

	// The new collection's own entry links to its parent's 0-based index
	// (main.c:286-292's link_collection = NumberLinkCollectionNodes, set
	// before the counter increments); the outermost collection has no
	// parent and self-links to 0.
	parentIndex := uint16(0)
	parentUsagePage, parentUsage := uint16(0), uint16(0)
	if len(s.collectionStack) > 0 {
		top := s.collectionStack[len(s.collectionStack)-1]
		parentIndex = top.index
		parentUsagePage = top.usagePage
		parentUsage = top.usageID
	}

	entry := ValueCaps{
		ReportKind:     ReportKindCollection,
		UsagePage:      s.global.usagePage,
		UsageMin:       usageMin,
		UsageMax:       usageMax,
		LinkCollection: parentIndex,
		LinkUsagePage:  parentUsagePage,
		LinkUsage:      parentUsage,
		BitField:       hiddesc.DataFlags(collectionType),
	}
	entry.deriveFlags()
	index := uint16(len(s.collections))
	s.collections = append(s.collections, entry)

	s.collectionStack = append(s.collectionStack, openCollection{
		index:     index,
		usagePage: s.global.usagePage,
		usageID:   usageMin,
	})
	s.local.reset()
	return nil
}

// closeCollectionItem pops the collection nesting stack. An End Collection
// with no matching Collection is a warning, not a fatal error (spec.md 7
// groups it with Pop underflow), so it is recorded and otherwise ignored.
func (s *ParserState) closeCollectionItem() {
	if len(s.collectionStack) == 0 {
		s.warnings = append(s.warnings, ErrStackUnderflow)
		return
	}
	s.collectionStack = s.collectionStack[:len(s.collectionStack)-1]
	s.local.reset()
}

// currentCollectionLink returns the 0-based link used by ValueCaps entries
// emitted while this collection is open, and that collection's own
// usage identity (spec.md 3.1's LinkCollection/LinkUsagePage/LinkUsage).
// The index is the enclosing collection's own position in the collection
// array; the outermost collection is index 0.
func (s *ParserState) currentCollectionLink() (link, usagePage, usage uint16) {
	if len(s.collectionStack) == 0 {
		return 0, 0, 0
	}
	top := s.collectionStack[len(s.collectionStack)-1]
	return top.index, top.usagePage, top.usageID
}

// insideCollection reports whether a Collection is currently open. A Main
// item outside any collection is ErrNoCollection (spec.md 4.5).
func (s *ParserState) insideCollection() bool {
	return len(s.collectionStack) > 0
}

// balanced reports whether every opened Collection was closed and every
// pushed global state was popped by EOF. An unbalanced state is not fatal
// (spec.md 7's UnfinishedNesting is warning-only): the caller records a
// warning and still builds the preparsed data.
func (s *ParserState) balanced() bool {
	return len(s.collectionStack) == 0 && len(s.globalStack) == 0
}
