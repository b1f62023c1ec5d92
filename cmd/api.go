package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/desertthunder/ytdj/internal/services"
	"github.com/desertthunder/ytdj/internal/shared"
	"github.com/desertthunder/ytdj/internal/tasks"
	"github.com/urfave/cli/v3"
)

// apiClient points at --server when given, else the configured listen address.
func (r *Runner) apiClient(cmd *cli.Command) *services.APIService {
	if base := cmd.String("server"); base != "" {
		return services.NewAPIService(base, r.httpClient)
	}
	return r.api
}

func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if err := resp.Err(); err != nil {
		return err
	}
	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}
	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIGet makes a direct GET request to a running hub.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	r.logger.Info("GET request", "path", path)
	resp, err := r.apiClient(cmd).Get(ctx, path)
	if err != nil {
		return err
	}
	return r.writeResponse(resp, !cmd.Bool("json"))
}

// APIPost makes a direct POST request with a JSON body to a running hub.
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}
	if !json.Valid([]byte(data)) {
		return fmt.Errorf("%w: data is not valid JSON", shared.ErrInvalidInput)
	}

	r.logger.Info("POST request", "path", path)
	resp, err := r.apiClient(cmd).Post(ctx, path, []byte(data))
	if err != nil {
		return err
	}
	return r.writeResponse(resp, true)
}

// APIDump fetches and displays the hub's health, state, list and charts.
func (r *Runner) APIDump(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("dumping hub state")
	r.writePlain("Fetching hub state...\n\n")

	progress := make(chan tasks.ProgressUpdate, 10)
	done := r.printProgress(progress)
	dump, err := tasks.Dump(ctx, r.apiClient(cmd), progress)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlain("\n✓ Dump complete (%d errors)\n\n", len(dump.Errors))

	if cmd.Bool("save") {
		saveFile := cmd.String("file")
		data, err := shared.MarshalJSON(dump, true)
		if err != nil {
			return fmt.Errorf("failed to marshal dump: %w", err)
		}
		if err := os.WriteFile(saveFile, data, 0644); err != nil {
			r.logger.Warn("failed to save dump", "error", err)
		} else {
			r.logger.Info("dump saved", "file", saveFile)
			r.writePlain("✓ Dump saved to %s\n\n", saveFile)
		}
	}

	return r.writeJSON(dump, cmd.Bool("pretty"))
}
