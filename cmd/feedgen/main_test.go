package main

import (
	"testing"

	"github.com/urfave/cli/v2"
)

// testApp wraps setupLogger in a minimal app with a no-op command.
func testApp(t *testing.T) *cli.App {
	t.Helper()
	return &cli.App{
		Name: "feedgen",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info"},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "noop",
				Action: func(c *cli.Context) error { return nil },
			},
		},
	}
}
