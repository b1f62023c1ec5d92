package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytdj/internal/hub"
	"github.com/desertthunder/ytdj/internal/services"
	"github.com/desertthunder/ytdj/internal/ui"
	"github.com/urfave/cli/v3"
)

// Remote launches the controller TUI against a running hub.
func (r *Runner) Remote(ctx context.Context, cmd *cli.Command) error {
	remote := services.NewRemoteService(r.apiClient(cmd))

	var sync ui.Sync
	conn, err := remote.Dial(ctx, string(hub.RoleController))
	if err != nil {
		r.logger.Warn("hub websocket unavailable, volume and playback controls disabled", "url", remote.SyncURL(string(hub.RoleController)), "error", err)
	} else {
		defer conn.Close()
		sync = conn
	}

	p := tea.NewProgram(ui.NewModel(ctx, remote, sync), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("remote exited: %w", err)
	}
	return nil
}
