// Package main provides the Caravel scheduler, which runs active patterns
// on their cron schedules.
package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:                  "caravel-scheduler",
		Usage:                 "Run active patterns on their cron schedules",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			RunSchedulerCommand(),
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
