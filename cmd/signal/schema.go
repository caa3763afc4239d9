package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rxtech-lab/argo-signal/internal/config"
	"github.com/urfave/cli/v3"
)

const schemaName = "argo-signal-config.json"

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Write the configuration JSON schema and a sample config",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "out",
				Usage: "Output `DIR`. The schema is printed to stdout when empty.",
			},
		},
		Action: schemaAction,
	}
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	schema, err := config.Schema()
	if err != nil {
		return err
	}

	dir := cmd.String("out")
	if dir == "" {
		_, err := fmt.Fprintln(cmd.Root().Writer, schema)

		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	if err := os.WriteFile(filepath.Join(dir, schemaName), []byte(schema), 0644); err != nil {
		return fmt.Errorf("failed to write schema: %w", err)
	}

	// An existing sample is left untouched.
	samplePath := filepath.Join(dir, "argo-signal-config.yaml")
	if _, err := os.Stat(samplePath); os.IsNotExist(err) {
		sample, err := config.Sample(schemaName)
		if err != nil {
			return err
		}

		if err := os.WriteFile(samplePath, sample, 0644); err != nil {
			return fmt.Errorf("failed to write sample config: %w", err)
		}
	}

	return nil
}
