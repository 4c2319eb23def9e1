// Package usagepagegen builds the hidusage name tables from the USB HID
// Usage Tables, expressed here as markdown documents (one per usage
// page) with a YAML frontmatter header for the page's own ID and name.
// This is offline tooling: cmd/usagepagegen runs it to regenerate
// pkg/usbhid/hidusage's committed table; nothing at runtime imports it.
package usagepagegen

import "embed"

//go:embed data/*.md
var FS embed.FS
