package sim

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Ring is an in-process LED ring. Pixel writes are staged until Show,
// like the real driver. When a render writer is attached, every Show
// repaints one terminal line of colored blocks.
type Ring struct {
	mu         sync.Mutex
	staged     [][3]uint8
	shown      [][3]uint8
	brightness uint8

	out io.Writer
}

// NewRing returns a ring with count pixels. out may be nil for a
// headless ring (tests, monitor-only runs).
func NewRing(count int, out io.Writer) *Ring {
	return &Ring{
		staged:     make([][3]uint8, count),
		shown:      make([][3]uint8, count),
		brightness: 255,
		out:        out,
	}
}

func (r *Ring) Len() int {
	return len(r.staged)
}

func (r *Ring) SetPixel(index int, red, green, blue uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.staged) {
		return
	}
	r.staged[index] = [3]uint8{red, green, blue}
}

func (r *Ring) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.staged {
		r.staged[i] = [3]uint8{}
	}
}

func (r *Ring) Show() {
	r.mu.Lock()
	copy(r.shown, r.staged)
	r.mu.Unlock()

	if r.out != nil {
		r.render()
	}
}

func (r *Ring) SetBrightness(level uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.brightness = level
}

// Pixel returns the last shown value of one pixel, with the global
// brightness applied. Used by tests and the renderer.
func (r *Ring) Pixel(index int) (red, green, blue uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.shown) {
		return 0, 0, 0
	}
	p := r.shown[index]
	scale := float64(r.brightness) / 255
	return uint8(float64(p[0]) * scale), uint8(float64(p[1]) * scale), uint8(float64(p[2]) * scale)
}

// render repaints the ring as one line of colored blocks, overwriting
// the previous line in place.
func (r *Ring) render() {
	var b strings.Builder
	b.WriteString("\r")
	for i := 0; i < r.Len(); i++ {
		red, green, blue := r.Pixel(i)
		style := lipgloss.NewStyle().
			Foreground(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", red, green, blue)))
		b.WriteString(style.Render("●"))
		b.WriteString(" ")
	}
	fmt.Fprint(r.out, b.String())
}
