package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytdj/internal/aggregate"
	"github.com/desertthunder/ytdj/internal/repositories"
	"github.com/desertthunder/ytdj/internal/services"
	"github.com/desertthunder/ytdj/internal/shared"
	"github.com/desertthunder/ytdj/internal/state"
	"github.com/desertthunder/ytdj/internal/tasks"
	"github.com/urfave/cli/v3"
)

// CatalogService is the catalog plus its health probe. [services.YouTubeService] implements it.
type CatalogService interface {
	services.Catalog
	Health(ctx context.Context) error
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    CatalogService
	fallback   services.LyricsFallback
	api        *services.APIService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    CatalogService
	Fallback   services.LyricsFallback
	API        *services.APIService
	HTTPClient *http.Client
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Catalog == nil {
		opts.Catalog = services.NewYouTubeService(opts.Config.Catalog.ProxyURL).WithTimeout(opts.Config.Catalog.Timeout.Duration)
	}
	if opts.Fallback == nil {
		opts.Fallback = services.NewRapidAPIService(services.RapidAPIOpts{
			Key:     opts.Config.Lyrics.RapidAPIKey,
			Host:    opts.Config.Lyrics.RapidAPIHost,
			Delay:   opts.Config.Lyrics.Delay.Duration,
			Timeout: opts.Config.Lyrics.Timeout.Duration,
		})
	}
	if opts.API == nil {
		opts.API = services.NewAPIService("http://"+opts.Config.Server.Addr(), opts.HTTPClient)
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		fallback:   opts.Fallback,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, searchCommand, radioCommand, lyricsCommand, chartsCommand, setupCommand, apiCommand, remoteCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// pipeline builds an aggregation pipeline over store. announcer may be nil for one-shot commands.
func (r *Runner) pipeline(store *state.Store, announcer aggregate.Announcer) *aggregate.Pipeline {
	return aggregate.NewPipeline(aggregate.PipelineOpts{
		Catalog:     r.catalog,
		Store:       store,
		Announcer:   announcer,
		Cache:       aggregate.NewCache(r.config.Cache.Size, r.config.Cache.TTL.Duration),
		Logger:      r.logger,
		Candidates:  r.config.Catalog.SearchCandidates,
		StartOffset: r.config.Hub.DefaultStartOffset,
	})
}

func (r *Runner) lyricsService() *services.LyricsService {
	return services.NewLyricsService(r.catalog, r.fallback, r.logger)
}

// openDatabase opens the configured database with migrations applied.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.OpenMigrated(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func (r *Runner) chartsEngine(db *sql.DB) *tasks.ChartsEngine {
	return tasks.NewChartsEngine(tasks.ChartsOpts{
		Catalog:      r.catalog,
		Store:        repositories.NewChartRepository(db),
		Logger:       r.logger,
		MaxWorkers:   r.config.Charts.MaxWorkers,
		PlaylistSize: r.config.Charts.PlaylistSize,
	})
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
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

func (r *Runner) writePlainln(format string, args ...any) error {
	return r.writePlain("\n"+format+"\n", args...)
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
