package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/realtyml/hpctl/pkg/config"
	"github.com/realtyml/hpctl/pkg/train"
)

var (
	configFlag = &cli.StringFlag{
		Name:     "config",
		Aliases:  []string{"c"},
		Usage:    "Path to the model config YAML",
		Required: true,
	}

	dataFlag = &cli.StringFlag{
		Name:     "data",
		Aliases:  []string{"d"},
		Usage:    "Path to the featured CSV",
		Required: true,
	}

	modelsDirFlag = &cli.StringFlag{
		Name:  "models-dir",
		Usage: "Directory for the trained model artifacts",
		Value: "models/trained",
	}

	trackingURIFlag = &cli.StringFlag{
		Name:  "tracking-uri",
		Usage: "Tracking database path (overrides config)",
	}

	trainCmd = &cli.Command{
		Name:    "train",
		Aliases: []string{"t"},
		Usage:   "Train the model with grid search and log the run",
		UsageText: `hpctl train --config configs/model_config.yaml --data data/featured/featured_house_data.csv \
   --models-dir models/trained --tracking-uri ~/.hpctl/runs.db`,
		Action: cmdTrain,
		Flags: []cli.Flag{
			configFlag,
			dataFlag,
			modelsDirFlag,
			trackingURIFlag,
		},
	}
)

func cmdTrain(c *cli.Context) error {
	cfg, err := config.Read(c.String(configFlag.Name))
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if uri := c.String(trackingURIFlag.Name); uri != "" {
		cfg.Tracking.URI = uri
	}

	res, err := train.Run(c.Context, cfg, c.String(dataFlag.Name), c.String(modelsDirFlag.Name))
	if err != nil {
		return fmt.Errorf("training: %w", err)
	}

	return encode(map[string]any{
		"run_id":      res.RunID,
		"models_dir":  res.ModelsDir,
		"metrics":     res.Metrics,
		"cv_score":    res.CVScore,
		"best_params": res.BestParams,
	})
}
