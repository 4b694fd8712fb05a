package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/scloud/internal/formatter"
	"github.com/desertthunder/scloud/internal/services"
	"github.com/desertthunder/scloud/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The SoundCloud facade is built on first use so that commands like "config init"
// work without credentials.
type Runner struct {
	config     *shared.Config
	configPath string
	service    services.Service
	api        *services.APIService
	transport  http.RoundTripper
	logger     *log.Logger
	output     io.Writer
	format     formatter.Format
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Service    services.Service
	API        *services.APIService
	Transport  http.RoundTripper
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		service:    opts.Service,
		api:        opts.API,
		transport:  opts.Transport,
		logger:     opts.Logger,
		output:     opts.Output,
		format:     formatter.Table,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		whoamiCommand, trackCommand, tracksCommand, likesCommand, followingsCommand, streamCommand,
		setsCommand, setCommand, searchCommand, resolveCommand, batchCommand, lookupCommand,
		imagesCommand, apiCommand, configCommand, authCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads the config file (--config, else the runner's default path) when it exists
// and applies the global flags.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.IsSet("config") {
		r.configPath = cmd.String("config")
	}

	if r.configPath != "" {
		if _, err := os.Stat(r.configPath); err == nil {
			config, err := shared.LoadConfig(r.configPath)
			if err != nil {
				return ctx, err
			}
			r.config = config
		}
	}

	shared.SetLogLevel(r.logger, r.config.Logging.Level)
	if cmd.Bool("debug") {
		r.logger.SetLevel(log.DebugLevel)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return ctx, err
	}
	r.format = format

	return ctx, nil
}

// soundcloud returns the facade, constructing it from the loaded config on first use.
func (r *Runner) soundcloud(ctx context.Context) (services.Service, error) {
	if r.service != nil {
		return r.service, nil
	}

	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	svc, err := services.NewSoundCloudService(ctx, services.Options{
		Config:    r.config,
		Logger:    r.logger,
		Transport: r.transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create SoundCloud service: %w", err)
	}

	r.service = svc
	return svc, nil
}

// rawAPI returns the raw API service, sharing the facade's authenticated client when possible.
func (r *Runner) rawAPI(ctx context.Context) (*services.APIService, error) {
	if r.api != nil {
		return r.api, nil
	}

	svc, err := r.soundcloud(ctx)
	if err != nil {
		return nil, err
	}

	cfg := r.config.SoundCloud
	client := &http.Client{Transport: r.transport, Timeout: cfg.Timeout()}
	if sc, ok := svc.(*services.SoundCloudService); ok {
		client = sc.Session().API
	}

	r.api = services.NewAPIService(cfg.APIURL, cfg.ClientID, client)
	return r.api, nil
}

func (r *Runner) writeSheet(s formatter.Sheet) error {
	return formatter.Write(r.output, r.format, s)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
