package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/runnerr0/omnibar/internal/suggest"
)

// Execute implements the go-flags Commander interface for SuggestCommand.
func (c *SuggestCommand) Execute(args []string) error {
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

// executeWithEngine runs the query against a provided engine (for testing).
func (c *SuggestCommand) executeWithEngine(engine *suggest.Engine) error {
	text := strings.Join(c.Args.Text, " ")
	results := engine.Query(text)
	total := len(results)
	if c.Limit > 0 && len(results) > c.Limit {
		results = results[:c.Limit]
	}

	if c.globals != nil && c.globals.JSON {
		return c.printJSON(text, total, results)
	}
	return c.printHuman(text, total, results)
}

func (c *SuggestCommand) printHuman(text string, total int, results []suggest.Entry) error {
	if len(results) == 0 {
		fmt.Printf("No suggestions for %q\n", text)
		return nil
	}

	for _, e := range results {
		if e.Title != nil && *e.Title != "" {
			fmt.Printf("%s  (%s)\n", e.URL, *e.Title)
		} else {
			fmt.Println(e.URL)
		}
	}
	if total > len(results) {
		fmt.Printf("... %d more\n", total-len(results))
	}
	return nil
}

type jsonEntry struct {
	URL   string  `json:"url"`
	Title *string `json:"title"`
}

type jsonSuggestOutput struct {
	Query   string      `json:"query"`
	Count   int         `json:"count"`
	Total   int         `json:"total"`
	Results []jsonEntry `json:"results"`
}

func (c *SuggestCommand) printJSON(text string, total int, results []suggest.Entry) error {
	out := jsonSuggestOutput{
		Query:   text,
		Count:   len(results),
		Total:   total,
		Results: make([]jsonEntry, len(results)),
	}
	for i, e := range results {
		out.Results[i] = jsonEntry{URL: e.URL, Title: e.Title}
	}
	return printJSON(out)
}
