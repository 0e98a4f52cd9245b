package client

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"
)

// RunBatch reads one command per line from r (blank lines and lines
// starting with '#' are skipped) and issues each against addr. When
// workers > 1, lines are fanned out across that many concurrent
// connections instead of being replayed serially — there is no
// ordering guarantee between lines in that mode, mirroring the
// engine's own stance that concurrent operations serialize in some
// order, not necessarily submission order.
func RunBatch(addr string, r io.Reader, workers int) error {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("client: read batch: %w", err)
	}

	if workers <= 1 {
		c, err := Dial(addr)
		if err != nil {
			return err
		}
		defer c.Close()
		for _, line := range lines {
			if _, err := c.roundTrip(line); err != nil {
				return fmt.Errorf("client: batch line %q: %w", line, err)
			}
		}
		return nil
	}

	sem := make(chan struct{}, workers)
	var g errgroup.Group
	for _, line := range lines {
		line := line
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()
			c, err := Dial(addr)
			if err != nil {
				return err
			}
			defer c.Close()
			if _, err := c.roundTrip(line); err != nil {
				return fmt.Errorf("client: batch line %q: %w", line, err)
			}
			return nil
		})
	}
	return g.Wait()
}
