// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/ytdj/internal/aggregate"
	"github.com/desertthunder/ytdj/internal/formatter"
	"github.com/desertthunder/ytdj/internal/tasks"
	"github.com/urfave/cli/v3"
)

func formatFlag(value string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, csv, markdown (md), txt (text)",
		Value:   value,
	}
}

func serverFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "server",
		Aliases: []string{"s"},
		Usage:   "Base URL of a running hub (default: the configured server address)",
	}
}

// serveCommand runs the hub
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the recommendation API and synchronization hub",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (overrides server.port)",
			},
			&cli.BoolFlag{
				Name:  "skip-charts",
				Usage: "Do not build the chart catalog on startup",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the playback state page in the default browser",
			},
		},
		Action: r.Serve,
	}
}

// searchCommand runs one aggregation without a server
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the catalog and print the aggregated recommendation list",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Tracks per branch (1-50)",
				Value:   aggregate.DefaultLimit,
			},
			&cli.StringFlag{
				Name:  "anchor",
				Usage: "Video id to expand recommendations from",
			},
			&cli.BoolFlag{
				Name:  "next",
				Usage: "Treat --anchor as the track being played next",
			},
			formatFlag(formatter.FormatText),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file in this directory instead of stdout",
			},
		},
		Action: r.Search,
	}
}

// radioCommand builds a radio mix without a server
func radioCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "radio",
		Usage: "Build a radio mix from a seed video id",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "videoId",
			},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Tracks per mix (1-50)",
				Value:   aggregate.MaxLimit,
			},
			formatFlag(formatter.FormatText),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file in this directory instead of stdout",
			},
		},
		Action: r.Radio,
	}
}

// lyricsCommand segments lyrics into verses
func lyricsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "lyrics",
		Usage: "Fetch lyrics (or read an LRC file) and print the verse breakdown",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Track title"},
			&cli.StringFlag{Name: "artist", Aliases: []string{"a"}, Usage: "Track artist"},
			&cli.StringFlag{Name: "video-id", Usage: "Catalog video id"},
			&cli.StringFlag{Name: "browse-id", Usage: "Catalog lyrics browse id"},
			&cli.StringFlag{Name: "file", Usage: "Read lyrics from a local LRC or text file"},
			&cli.FloatFlag{Name: "gap", Usage: "Seconds of silence that start a new verse (default: lyrics.gap_threshold)"},
			formatFlag(formatter.FormatText),
		},
		Action: r.Lyrics,
	}
}

// chartsCommand manages the chart catalog
func chartsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "charts",
		Usage: "Chart catalog operations",
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Collect every chart category from the catalog into the database",
				Action: r.ChartsBuild,
			},
			{
				Name:  "export",
				Usage: "Export each chart category to its own file",
				Flags: []cli.Flag{
					formatFlag(formatter.FormatCSV),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: charts_export_{timestamp})",
					},
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "Number of concurrent workers (max 6)",
						Value:   tasks.DefaultExportWorkers,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Cover downloads per second for markdown exports",
						Value: tasks.DefaultExportRate,
					},
				},
				Action: r.ChartsExport,
			},
			{
				Name:  "show",
				Usage: "Print the charts listing or a generated playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "country", Usage: "Two-letter country code (default: charts.country)"},
					&cli.IntFlag{Name: "playlist", Usage: "Generate a mixed playlist of this size instead"},
					&cli.BoolFlag{Name: "build", Usage: "Build the catalog first"},
					formatFlag(formatter.FormatText),
				},
				Action: r.ChartsShow,
			},
		},
	}
}

// setupCommand prepares the database and configuration
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize database and configuration",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Run migrations and print their status",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "path", Usage: "Database path (overrides database.path)"},
					&cli.BoolFlag{Name: "rollback", Usage: "Roll back the latest migration instead"},
					&cli.BoolFlag{Name: "json", Usage: "Output status as JSON"},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write the example configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Path to write (default: config.toml)"},
					&cli.BoolFlag{Name: "force", Usage: "Overwrite an existing file"},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// apiCommand handles direct calls to a running hub
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to a running hub",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints the JSON response",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					serverFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					serverFlag(),
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
			{
				Name:  "dump",
				Usage: "Health, playback state, published list and charts in one document",
				Flags: []cli.Flag{
					serverFlag(),
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Save dump to --file",
					},
					&cli.StringFlag{
						Name:  "file",
						Usage: "Dump file path",
						Value: "api_dump.json",
					},
				},
				Action: r.APIDump,
			},
		},
	}
}

// remoteCommand launches the controller TUI
func remoteCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "remote",
		Usage:  "Control a running hub from the terminal",
		Flags:  []cli.Flag{serverFlag()},
		Action: r.Remote,
	}
}
