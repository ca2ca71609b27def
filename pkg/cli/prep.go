package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/realtyml/hpctl/pkg/dataset"
	"github.com/realtyml/hpctl/pkg/features"
)

const (
	cleanedFileName = "cleaned_data.csv"
	dirMode         = 0o755
)

var (
	inputFlag = &cli.StringFlag{
		Name:     "input",
		Aliases:  []string{"i"},
		Usage:    "Path to the input CSV file",
		Required: true,
	}

	outputDirFlag = &cli.StringFlag{
		Name:     "output",
		Aliases:  []string{"o"},
		Usage:    fmt.Sprintf("Directory to write %s to", cleanedFileName),
		Required: true,
	}

	outputFileFlag = &cli.StringFlag{
		Name:     "output",
		Aliases:  []string{"o"},
		Usage:    "Path to write the featured CSV to",
		Required: true,
	}

	prepCmd = &cli.Command{
		Name:    "prep",
		Aliases: []string{"p"},
		Usage:   "Clean a raw CSV (impute, drop outliers and duplicates)",
		Action:  cmdPrep,
		Flags: []cli.Flag{
			inputFlag,
			outputDirFlag,
		},
	}

	featureCmd = &cli.Command{
		Name:    "feature",
		Aliases: []string{"f"},
		Usage:   "Add deterministic derived features to a cleaned CSV",
		Action:  cmdFeature,
		Flags: []cli.Flag{
			inputFlag,
			outputFileFlag,
		},
	}
)

func cmdPrep(c *cli.Context) error {
	input := c.String(inputFlag.Name)
	outDir := c.String(outputDirFlag.Name)

	slog.Info("loading raw data", "path", input)
	f, err := dataset.ReadCSV(input)
	if err != nil {
		return fmt.Errorf("loading raw data: %w", err)
	}

	rows := f.Rows()
	dataset.Clean(f)
	slog.Info("cleaning done", "rows_in", rows, "rows_out", f.Rows())

	if err := os.MkdirAll(outDir, dirMode); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	out := filepath.Join(outDir, cleanedFileName)
	if err := f.WriteCSV(out); err != nil {
		return fmt.Errorf("writing cleaned data: %w", err)
	}
	slog.Info("saved cleaned data", "path", out)
	return nil
}

func cmdFeature(c *cli.Context) error {
	input := c.String(inputFlag.Name)
	output := c.String(outputFileFlag.Name)

	slog.Info("loading cleaned data", "path", input)
	f, err := dataset.ReadCSV(input)
	if err != nil {
		return fmt.Errorf("loading cleaned data: %w", err)
	}

	features.Engineer(f)

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}
	if err := f.WriteCSV(output); err != nil {
		return fmt.Errorf("writing featured data: %w", err)
	}
	slog.Info("saved featured data", "path", output)
	return nil
}
