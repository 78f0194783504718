// Package battlemap builds image URLs for the external map renderer.
package battlemap

import (
	"strconv"
	"strings"

	"github.com/amalg/gridarena/internal/game"
)

// DefaultBaseURL is the public renderer.
const DefaultBaseURL = "https://otfbm.io/"

// Renderer turns snapshots into renderer URLs.
type Renderer struct {
	base string
}

// New returns a renderer rooted at base. An empty base uses DefaultBaseURL.
func New(base string) *Renderer {
	base = strings.TrimSpace(base)
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &Renderer{base: base}
}

// Size is the board dimension segment, e.g. "10x10".
func Size() string {
	n := strconv.Itoa(game.BoardSize)
	return n + "x" + n
}

// URL returns the image address for the snapshot's board.
func (r *Renderer) URL(snap game.Snapshot) string {
	board := snap.Board
	if board == "" && len(snap.Cells) > 0 {
		board = game.EncodeBoard(snap.Cells)
	}
	return r.base + Size() + board
}
