// Package ui implements the remote controller, a terminal client for a running hub built on
// bubbletea's Elm architecture.
//
// Views:
//  1. [SearchView] : type a query and post it to /recommendations/
//  2. [TrackListView] : browse the published list, play a track, queue next, start a radio
//  3. [DetailView] : the selected track's verses and cue point
//
// The [Model] joins the hub's websocket as a controller. Play, volume and control events from
// other clients update the now-playing line; volume and pause keys are sent back through it.
//
// Keyboard navigation uses vim-style bindings with contextual help from charmbracelet/bubbles/help.
package ui
