// Package hidusage names the well-known HID usage pages for display
// purposes. It is never consulted by pkg/usbhid/hidparse: usage page and
// usage IDs flow through the parser as plain numbers, and this table only
// exists to make a CLI report readable.
package hidusage

// PageName returns the USB HID Usage Tables name for a usage page, or ""
// if the page is vendor-defined or not in this table.
func PageName(page uint16) string {
	return pageNames[page]
}

// UsageName returns the name of a specific usage within a known page, or
// "" if either the page or the usage is not in this table.
func UsageName(page, usage uint16) string {
	return usageNames[pageUsage{page, usage}]
}

var pageNames = map[uint16]string{
	0x01: "Generic Desktop",
	0x02: "Simulation Controls",
	0x03: "VR Controls",
	0x04: "Sport Controls",
	0x05: "Game Controls",
	0x06: "Generic Device Controls",
	0x07: "Keyboard/Keypad",
	0x08: "LED",
	0x09: "Button",
	0x0A: "Ordinal",
	0x0B: "Telephony",
	0x0C: "Consumer",
	0x0D: "Digitizer",
	0x0F: "PID Page",
	0x14: "Alphanumeric Display",
	0x40: "Medical Instrument",
	0x80: "Monitor",
	0x81: "Monitor Enumerated",
	0x82: "VESA Virtual Controls",
	0x84: "Power Device",
	0x85: "Battery System",
}

type pageUsage struct {
	page, usage uint16
}

var usageNames = map[pageUsage]string{
	{0x01, 0x01}: "Pointer",
	{0x01, 0x02}: "Mouse",
	{0x01, 0x04}: "Joystick",
	{0x01, 0x05}: "Game Pad",
	{0x01, 0x06}: "Keyboard",
	{0x01, 0x07}: "Keypad",
	{0x01, 0x30}: "X",
	{0x01, 0x31}: "Y",
	{0x01, 0x32}: "Z",
	{0x01, 0x38}: "Wheel",
	{0x01, 0x80}: "System Control",
	{0x01, 0x81}: "System Power Down",
	{0x01, 0x82}: "System Sleep",
	{0x01, 0x83}: "System Wake Up",
	{0x07, 0x04}: "A",
	{0x07, 0x05}: "B",
	{0x07, 0x06}: "C",
	{0x07, 0x28}: "Return",
	{0x07, 0x29}: "Escape",
	{0x07, 0x2A}: "Backspace",
	{0x07, 0x2C}: "Spacebar",
	{0x07, 0xE0}: "LeftControl",
	{0x07, 0xE1}: "LeftShift",
	{0x0C, 0xB5}: "Scan Next Track",
	{0x0C, 0xB6}: "Scan Previous Track",
	{0x0C, 0xCD}: "Play/Pause",
	{0x0C, 0xE2}: "Mute",
	{0x0C, 0xE9}: "Volume Increment",
	{0x0C, 0xEA}: "Volume Decrement",
}
