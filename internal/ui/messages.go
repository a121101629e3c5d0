// Package ui provides the Bubble Tea TUI for suss.
package ui

// FrameTick advances the animation driver by one frame.
type FrameTick struct{}

// SaveComplete is sent when a curated save finishes.
type SaveComplete struct {
	Name string
	ID   string
	Err  error
}
