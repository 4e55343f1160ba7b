package cli

import (
	"context"
	"fmt"

	"github.com/runnerr0/omnibar/internal/suggest"
)

// Execute implements the go-flags Commander interface for TitleCommand.
func (c *TitleCommand) Execute(args []string) error {
	if c.URL == "" {
		return fmt.Errorf("--url is required for title command")
	}

	rt, err := loadRuntime(c.globals)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.tryStore()
	engine := rt.newEngine(context.Background())
	defer engine.Close()

	return c.executeWithEngine(engine)
}

// executeWithEngine looks up the title against a provided engine (for testing).
func (c *TitleCommand) executeWithEngine(engine *suggest.Engine) error {
	title := engine.TitleFor(c.URL)

	if c.globals != nil && c.globals.JSON {
		return printJSON(jsonEntry{URL: c.URL, Title: title})
	}

	if title == nil {
		fmt.Printf("No title for %s\n", c.URL)
		return nil
	}
	fmt.Println(*title)
	return nil
}
