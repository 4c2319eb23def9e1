// Command usagepagegen regenerates pkg/usbhid/hidusage's name tables from
// the markdown usage-page documents in internal/usagepagegen/data.
//
//	go run ./cmd/usagepagegen > pkg/usbhid/hidusage/pages_gen.go
package main

import (
	"fmt"
	"os"

	"github.com/neuroplastio/hidpreparse/internal/usagepagegen"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	entries, err := usagepagegen.FS.ReadDir("data")
	if err != nil {
		return err
	}

	parser := usagepagegen.NewPageParser()
	pages := make([]*usagepagegen.Page, 0, len(entries))
	for _, e := range entries {
		source, err := usagepagegen.FS.ReadFile("data/" + e.Name())
		if err != nil {
			return err
		}
		page, err := parser.Parse(source)
		if err != nil {
			return fmt.Errorf("%s: %w", e.Name(), err)
		}
		pages = append(pages, page)
	}

	out, err := usagepagegen.Generate(pages)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}
