package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/runnerr0/omnibar/internal/history"
)

// Execute implements the go-flags Commander interface for VisitCommand.
func (c *VisitCommand) Execute(args []string) error {
	if c.URL == "" {
		return fmt.Errorf("--url is required for visit command")
	}

	rt, err := loadRuntime(c.globals)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.requireStore(); err != nil {
		return err
	}

	return c.executeWithRecorder(rt.newRecorder())
}

// executeWithRecorder records the visit through a provided recorder (for testing).
func (c *VisitCommand) executeWithRecorder(rec *history.Recorder) error {
	record, err := rec.RecordVisit(context.Background(), c.URL, c.Title)
	if errors.Is(err, history.ErrNotRecorded) {
		if c.globals != nil && c.globals.JSON {
			return printJSON(map[string]interface{}{
				"recorded": false,
				"url":      c.URL,
				"reason":   err.Error(),
			})
		}
		fmt.Printf("Not recorded: %v\n", err)
		return nil
	}
	if err != nil {
		return err
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]interface{}{
			"recorded":   true,
			"id":         record.ID,
			"url":        record.PageURL,
			"title":      record.PageTitle,
			"visit_date": record.VisitDate.UTC().Format(time.RFC3339),
		})
	}

	fmt.Printf("Recorded visit %s (%s)\n", record.ID, record.VisitDate.Format(time.RFC3339))
	fmt.Printf("  URL: %s\n", record.PageURL)
	if record.PageTitle != "" {
		fmt.Printf("  Title: %s\n", record.PageTitle)
	}
	return nil
}
