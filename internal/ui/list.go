package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/ytdj/internal/models"
)

var _ list.Item = trackItem{}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string {
	return fmt.Sprintf("%d. %s", i.track.Position, i.track.Title)
}
func (i trackItem) Description() string {
	desc := string(i.track.Kind)
	if i.track.Artist != "" {
		desc = fmt.Sprintf("%s • %s", i.track.Artist, desc)
	}
	if len(i.track.Labels) > 0 {
		labels := make([]string, len(i.track.Labels))
		for j, l := range i.track.Labels {
			labels[j] = string(l)
		}
		desc = fmt.Sprintf("%s • %s", desc, strings.Join(labels, ", "))
	}
	return desc
}

func trackItems(tracks []models.Track) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}
	return items
}
