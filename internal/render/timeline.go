// Package render draws synthesized timelines as shareable PNG cards.
package render

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/fogleman/gg"

	"github.com/RobinCoderZhao/newspulse/internal/news"
)

// fontPaths are tried in order; gg falls back to its built-in face when none
// load.
var fontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/TTF/DejaVuSans.ttf",
	"/System/Library/Fonts/Helvetica.ttc",
	"/Library/Fonts/Arial.ttf",
}

// TimelineRenderer lays out a vertical timeline card.
type TimelineRenderer struct {
	Width        float64
	Pad          float64
	HeaderH      float64
	FooterH      float64
	LineHeight   float64
	EventGap     float64
	MaxLines     int
	TitleSize    float64
	FontSize     float64
	SmallSize    float64
	RailX        float64
	MaxSourceLen int
}

// NewTimelineRenderer creates a renderer with a 1200px wide card.
func NewTimelineRenderer() *TimelineRenderer {
	return &TimelineRenderer{
		Width:        1200,
		Pad:          40,
		HeaderH:      110,
		FooterH:      60,
		LineHeight:   30,
		EventGap:     28,
		MaxLines:     4,
		TitleSize:    34,
		FontSize:     22,
		SmallSize:    16,
		RailX:        90,
		MaxSourceLen: 90,
	}
}

// RenderTimelinePNG draws events for topic and writes the PNG to path.
func RenderTimelinePNG(topic string, events []news.TimelineEvent, path string) error {
	img := NewTimelineRenderer().Render(topic, events)
	if err := gg.SavePNG(path, img); err != nil {
		return fmt.Errorf("save timeline png: %w", err)
	}
	return nil
}

type laidOutEvent struct {
	event   news.TimelineEvent
	lines   []string
	sources string
	height  float64
}

// Render draws the card and returns the image.
func (r *TimelineRenderer) Render(topic string, events []news.TimelineEvent) image.Image {
	textX := r.RailX + 40
	textW := r.Width - textX - r.Pad

	measure := gg.NewContext(1, 1)
	r.loadFont(measure, r.FontSize)
	layout := make([]laidOutEvent, 0, len(events))
	body := 0.0
	for _, ev := range events {
		lines := measure.WordWrap(ev.Summary, textW)
		if len(lines) > r.MaxLines {
			lines = append(lines[:r.MaxLines-1], lines[r.MaxLines-1]+" …")
		}
		le := laidOutEvent{
			event:   ev,
			lines:   lines,
			sources: r.sourceLine(ev.Sources),
		}
		le.height = r.LineHeight*float64(1+len(lines)) + r.EventGap
		if le.sources != "" {
			le.height += r.LineHeight * 0.8
		}
		layout = append(layout, le)
		body += le.height
	}
	if len(layout) == 0 {
		body = r.LineHeight * 2
	}

	height := r.HeaderH + r.Pad + body + r.FooterH
	dc := gg.NewContext(int(r.Width), int(height))

	dc.SetColor(hexColor("#0f0f23"))
	dc.Clear()
	r.drawHeader(dc, topic, len(events))

	y := r.HeaderH + r.Pad
	if len(layout) == 0 {
		r.loadFont(dc, r.FontSize)
		dc.SetColor(hexColor("#8888aa"))
		dc.DrawStringAnchored("No news found for this topic", r.Width/2, y+r.LineHeight, 0.5, 0.5)
	} else {
		dc.SetColor(hexColor("#2a2a4e"))
		dc.SetLineWidth(3)
		dc.DrawLine(r.RailX, y, r.RailX, y+body-r.EventGap)
		dc.Stroke()
	}

	for _, le := range layout {
		r.drawEvent(dc, le, y, textX)
		y += le.height
	}

	r.loadFont(dc, r.SmallSize)
	dc.SetColor(hexColor("#505070"))
	dc.DrawStringAnchored("NewsPulse", r.Width/2, height-r.FooterH/2, 0.5, 0.5)

	return dc.Image()
}

func (r *TimelineRenderer) drawHeader(dc *gg.Context, topic string, n int) {
	dc.SetColor(hexColor("#1a1a3e"))
	dc.DrawRoundedRectangle(r.Pad, 20, r.Width-2*r.Pad, r.HeaderH-20, 12)
	dc.Fill()

	dc.SetColor(hexColor("#4a9eff"))
	dc.DrawRectangle(r.Pad, 20, 4, r.HeaderH-20)
	dc.Fill()

	r.loadFont(dc, r.TitleSize)
	dc.SetColor(color.White)
	dc.DrawStringAnchored("Timeline · "+topic, r.Width/2, 20+(r.HeaderH-20)/2-10, 0.5, 0.5)

	r.loadFont(dc, r.SmallSize)
	dc.SetColor(hexColor("#8888aa"))
	dc.DrawStringAnchored(fmt.Sprintf("%d events", n), r.Width/2, 20+(r.HeaderH-20)/2+22, 0.5, 0.5)
}

func (r *TimelineRenderer) drawEvent(dc *gg.Context, le laidOutEvent, y, textX float64) {
	dc.SetColor(hexColor("#4a9eff"))
	dc.DrawCircle(r.RailX, y+r.LineHeight/2, 8)
	dc.Fill()

	r.loadFont(dc, r.FontSize)
	dc.SetColor(hexColor("#4a9eff"))
	dc.DrawStringAnchored(le.event.Date, textX, y+r.LineHeight/2, 0, 0.5)

	dc.SetColor(hexColor("#e0e0e0"))
	for i, line := range le.lines {
		dc.DrawStringAnchored(line, textX, y+r.LineHeight*(float64(i)+1.5), 0, 0.5)
	}

	if le.sources != "" {
		r.loadFont(dc, r.SmallSize)
		dc.SetColor(hexColor("#8888aa"))
		dc.DrawStringAnchored(le.sources, textX, y+r.LineHeight*(float64(len(le.lines))+1.4), 0, 0.5)
	}
}

func (r *TimelineRenderer) sourceLine(refs []news.SourceRef) string {
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.Name != "" {
			names = append(names, ref.Name)
		}
	}
	line := strings.Join(names, " · ")
	if r.MaxSourceLen > 0 && len([]rune(line)) > r.MaxSourceLen {
		line = string([]rune(line)[:r.MaxSourceLen]) + "…"
	}
	return line
}

func (r *TimelineRenderer) loadFont(dc *gg.Context, size float64) {
	for _, p := range fontPaths {
		if err := dc.LoadFontFace(p, size); err == nil {
			return
		}
	}
}

func hexColor(hex string) color.Color {
	hex = strings.TrimPrefix(hex, "#")
	var cr, cg, cb uint8
	fmt.Sscanf(hex, "%02x%02x%02x", &cr, &cg, &cb)
	return color.RGBA{cr, cg, cb, 255}
}
