package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/scloud/internal/formatter"
	"github.com/desertthunder/scloud/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthImport extracts the OAuth token from a browser cURL export and stores it in the config file.
func (r *Runner) AuthImport(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}
	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var (
		headers *shared.CurlHeaders
		err     error
	)
	if curlFile != "" {
		headers, err = shared.ParseCurlFile(curlFile)
	} else {
		headers, err = shared.ParseCurlCommand(curlCmd)
	}
	if err != nil {
		return fmt.Errorf("failed to parse cURL command: %w", err)
	}

	token, err := headers.AuthToken()
	if err != nil {
		return err
	}

	if err := requireArg("config", r.configPath); err != nil {
		return err
	}

	if _, err := os.Stat(r.configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", r.configPath)
		if err := shared.CreateConfigFile(r.configPath); err != nil {
			return err
		}
		r.config = shared.DefaultConfig()
	}

	r.config.SoundCloud.AuthToken = token
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return err
	}
	// a cached facade would still carry the old token
	r.service, r.api = nil, nil

	r.logger.Info("auth token imported", "path", r.configPath)
	return r.writePlain("%s\n", formatter.Success("Token saved to "+r.configPath))
}
