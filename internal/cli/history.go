package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/runnerr0/omnibar/internal/storage"
)

// Execute implements the go-flags Commander interface for HistoryCommand.
func (c *HistoryCommand) Execute(args []string) error {
	rt, err := loadRuntime(c.globals)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.requireStore(); err != nil {
		return err
	}
	return c.executeWithStore(rt.store)
}

// executeWithStore lists history from a provided store (for testing).
func (c *HistoryCommand) executeWithStore(store storage.Store) error {
	if c.Delete != "" {
		return c.deleteVisit(store)
	}
	if c.Limit < 0 || c.Offset < 0 {
		return fmt.Errorf("--limit and --offset must be non-negative")
	}

	records, err := store.RecentHistory(context.Background(), c.Limit, c.Offset)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return c.printJSON(records)
	}
	return c.printHuman(records)
}

func (c *HistoryCommand) printHuman(records []storage.HistoryRecord) error {
	if len(records) == 0 {
		fmt.Println("No history recorded")
		return nil
	}

	for i, r := range records {
		title := r.PageTitle
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%d. %s\n", i+1+c.Offset, title)
		fmt.Printf("   %s\n", r.PageURL)
		fmt.Printf("   %s\n", r.VisitDate.Local().Format("2006-01-02 15:04"))
		if i < len(records)-1 {
			fmt.Println()
		}
	}
	return nil
}

type jsonVisit struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Domain    string `json:"domain"`
	VisitDate string `json:"visit_date"`
}

type jsonHistoryOutput struct {
	Count   int         `json:"count"`
	Results []jsonVisit `json:"results"`
}

func (c *HistoryCommand) printJSON(records []storage.HistoryRecord) error {
	out := jsonHistoryOutput{
		Count:   len(records),
		Results: make([]jsonVisit, len(records)),
	}
	for i, r := range records {
		out.Results[i] = jsonVisit{
			ID:        r.ID,
			URL:       r.PageURL,
			Title:     r.PageTitle,
			Domain:    r.Domain,
			VisitDate: r.VisitDate.UTC().Format(time.RFC3339),
		}
	}
	return printJSON(out)
}

// deleteVisit removes one visit by ID.
func (c *HistoryCommand) deleteVisit(store storage.Store) error {
	ctx := context.Background()

	rec, err := store.GetVisit(ctx, c.Delete)
	if err != nil {
		return err
	}
	if err := store.DeleteVisit(ctx, c.Delete); err != nil {
		return err
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]interface{}{
			"deleted": true,
			"id":      rec.ID,
			"url":     rec.PageURL,
		})
	}
	fmt.Printf("Deleted visit %s (%s)\n", rec.ID, rec.PageURL)
	return nil
}
