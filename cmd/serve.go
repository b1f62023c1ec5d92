package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytdj/internal/hub"
	"github.com/desertthunder/ytdj/internal/repositories"
	"github.com/desertthunder/ytdj/internal/server"
	"github.com/desertthunder/ytdj/internal/shared"
	"github.com/desertthunder/ytdj/internal/state"
	"github.com/desertthunder/ytdj/internal/tasks"
	"github.com/desertthunder/ytdj/internal/web"
	"github.com/urfave/cli/v3"
)

// Serve wires the store, hub, pipeline, charts engine and JSON API and serves them until ctx ends.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = port
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	store := state.NewStore(r.config.Hub.DefaultVolume)
	plays := repositories.NewPlayRepository(db)
	h := hub.New(hub.HubOpts{Store: store, Logger: r.logger, Recorder: plays})
	pipeline := r.pipeline(store, h)
	charts := r.chartsEngine(db)

	if !cmd.Bool("skip-charts") {
		go r.buildCharts(ctx, charts)
	}

	api := web.NewHandler(web.HandlerOpts{
		Pipeline:     pipeline,
		Store:        store,
		Lyrics:       r.lyricsService(),
		Cuer:         h,
		Charts:       charts,
		Health:       r.catalog,
		Plays:        plays,
		Logger:       r.logger,
		GapThreshold: r.config.Lyrics.GapThreshold,
		StartOffset:  r.config.Hub.DefaultStartOffset,
	})

	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger), server.Logging(shared.WithLogger(r.logger, "component", "http")))
	router.Handler(api)
	router.Handler(hub.NewHandler(ctx, h, r.config.Hub.WriteTimeout.Duration))

	for _, route := range router.Routes() {
		r.logger.Debug("route", "pattern", route)
	}

	srv := server.New(server.ServerOpts{
		Addr:    cfg.Addr(),
		Handler: server.CORS(cfg.CORSOrigins)(router),
		Logger:  r.logger,
	})

	stateURL := openURL(cfg.Addr())
	r.logger.Info("ytdj hub ready", "addr", cfg.Addr(), "state", stateURL)
	if cmd.Bool("open") {
		if err := shared.OpenBrowser(stateURL); err != nil {
			r.logger.Warn("could not open browser", "url", stateURL, "error", err)
		}
	}
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// openURL is the hub page a browser is pointed at for addr.
func openURL(addr string) string {
	return shared.HubURL(addr, web.StatePath)
}

// buildCharts fills the chart catalog in the background and logs progress.
func (r *Runner) buildCharts(ctx context.Context, charts *tasks.ChartsEngine) {
	progress := make(chan tasks.ProgressUpdate, len(tasks.Collections)+2)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Debug("charts", "phase", update.Phase, "step", update.Step, "total", update.Total, "msg", update.Message)
		}
	}()

	result, err := charts.Build(ctx, progress)
	close(progress)
	<-done

	if err != nil {
		r.logger.Warn("chart catalog build failed, charts will use failsafe hits", "error", err)
		return
	}
	r.logger.Info("chart catalog built", "tracks", result.Total, "elapsed", result.Elapsed)
}
