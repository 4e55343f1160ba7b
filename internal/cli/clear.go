package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/runnerr0/omnibar/internal/storage"
)

// Execute implements the go-flags Commander interface for ClearCommand.
func (c *ClearCommand) Execute(args []string) error {
	if !c.All {
		return fmt.Errorf("clear requires --all flag for safety")
	}
	if err := c.confirm(); err != nil {
		return err
	}

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

// confirm prompts unless --force.
func (c *ClearCommand) confirm() error {
	if c.Force {
		return nil
	}

	fmt.Println("⚠ WARNING: This will permanently delete ALL browsing history.")
	fmt.Println("Suggestions will fall back to popular domains only.")
	fmt.Println()
	fmt.Println("This action cannot be undone.")
	fmt.Println()
	fmt.Print(`Type "CLEAR" to confirm: `)

	var in io.Reader = os.Stdin
	if c.stdin != nil {
		in = c.stdin
	}
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return fmt.Errorf("aborted: no input received")
	}
	if strings.TrimSpace(scanner.Text()) != "CLEAR" {
		return fmt.Errorf("aborted: confirmation text did not match")
	}
	return nil
}

// executeWithStore clears a provided store (for testing).
func (c *ClearCommand) executeWithStore(store storage.Store) error {
	n, err := store.ClearHistory(context.Background())
	if err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]interface{}{
			"cleared": true,
			"deleted": n,
		})
	}

	fmt.Printf("Cleared %s visits. History is empty.\n", formatNumber(n))
	return nil
}
