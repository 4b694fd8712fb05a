package main

import (
	"context"

	"github.com/desertthunder/scloud/internal/formatter"
	"github.com/desertthunder/scloud/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConfigInit writes the default configuration file to the --config path.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	if err := requireArg("config", r.configPath); err != nil {
		return err
	}

	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", r.configPath)
	return r.writePlain("%s\n%s\n",
		formatter.Success("Config written to "+r.configPath),
		formatter.Warning("Set soundcloud.auth_token or run: scloud auth import --curl-file <file>"),
	)
}
