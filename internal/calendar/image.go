package calendar

import (
	"bytes"
	"fmt"
	"image/color"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

const (
	imageWidth      = 1400
	imageHeight     = 900
	headerHeight    = 60
	leftLabelsWidth = 70
	dayPaddingX     = 4
	totalWeekDays   = 7
	minEventHeight  = 8.0
	hourPadding     = 1
)

var (
	bgColor        = color.RGBA{245, 246, 248, 255}
	gridLineColor  = color.NRGBA{200, 202, 205, 255}
	textColor      = color.RGBA{80, 85, 90, 255}
	hourLabelColor = color.RGBA{110, 115, 120, 255}
	eventTextColor = color.RGBA{20, 24, 28, 255}
	todayBgColor   = color.NRGBA{255, 228, 214, 255}
)

// hexToRGBA parses "#rrggbb" status colors into drawable colors.
func hexToRGBA(hex string) color.RGBA {
	var r, g, b uint8
	if _, err := fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{160, 160, 160, 255}
	}
	return color.RGBA{r, g, b, 255}
}

type hourRange struct {
	start int
	end   int
	total int
}

// eventHourRange picks the displayed hour band: the events' span with a
// little padding, or a full working day when the week is empty.
func eventHourRange(events []Event) hourRange {
	minHour, maxHour := 24, 0
	for _, ev := range events {
		startH := ev.Start.Hour()
		endH := ev.End.Hour()
		if ev.End.Minute() > 0 {
			endH++
		}
		if startH < minHour {
			minHour = startH
		}
		if endH > maxHour {
			maxHour = endH
		}
	}
	if minHour == 24 {
		minHour, maxHour = 8, 21
	}

	start := minHour - hourPadding
	end := maxHour + hourPadding
	if start < 0 {
		start = 0
	}
	if end > 23 {
		end = 23
	}
	return hourRange{start: start, end: end, total: end - start + 1}
}

// RenderWeekPNG draws the week containing anchor as a PNG grid. Events
// outside the week (or outside the displayed hour band) are skipped.
func RenderWeekPNG(events []Event, anchor time.Time, now time.Time) ([]byte, error) {
	weekStart := startOfWeek(anchor)
	today := startOfDay(now)
	hours := eventHourRange(events)

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(bgColor)
	dc.Clear()

	dayWidth := float64(imageWidth-leftLabelsWidth) / totalWeekDays
	gridHeight := float64(imageHeight - headerHeight)
	cellHeight := gridHeight / float64(hours.total)

	// day columns, today highlighted
	for day := 0; day < totalWeekDays; day++ {
		date := weekStart.AddDate(0, 0, day)
		x := float64(leftLabelsWidth) + float64(day)*dayWidth

		if date.Equal(today) {
			dc.SetColor(todayBgColor)
			dc.DrawRectangle(x, headerHeight, dayWidth, gridHeight)
			dc.Fill()
		}

		dc.SetColor(textColor)
		label := fmt.Sprintf("%s %02d.%02d", date.Weekday().String()[:3], date.Day(), int(date.Month()))
		dc.DrawStringAnchored(label, x+dayWidth/2, headerHeight/2, 0.5, 0.5)
	}

	// hour labels and grid lines
	for h := 0; h < hours.total; h++ {
		y := float64(headerHeight) + float64(h)*cellHeight
		dc.SetColor(hourLabelColor)
		dc.DrawStringAnchored(fmt.Sprintf("%02d:00", hours.start+h), leftLabelsWidth-8, y, 1, 0.5)
		dc.SetColor(gridLineColor)
		dc.DrawLine(leftLabelsWidth, y, imageWidth, y)
		dc.SetLineWidth(1)
		dc.Stroke()
	}

	weekEnd := weekStart.AddDate(0, 0, 7)
	for _, ev := range events {
		if ev.Start.Before(weekStart) || !ev.Start.Before(weekEnd) {
			continue
		}
		day := daysBetween(weekStart, ev.Start)
		startMin := float64((ev.Row-hours.start)*60 + ev.OffsetMinutes)
		if startMin < 0 {
			continue
		}

		x := float64(leftLabelsWidth) + float64(day)*dayWidth + dayPaddingX
		y := float64(headerHeight) + startMin/60*cellHeight
		h := float64(ev.SpanMinutes) / 60 * cellHeight
		if h < minEventHeight {
			h = minEventHeight
		}

		dc.SetColor(hexToRGBA(ev.Color))
		dc.DrawRoundedRectangle(x, y, dayWidth-2*dayPaddingX, h, 4)
		dc.Fill()

		dc.SetColor(eventTextColor)
		caption := fmt.Sprintf("%s %s", ev.Start.Format("15:04"), ev.MeetingType)
		dc.DrawString(caption, x+6, y+14)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode week image: %w", err)
	}
	return buf.Bytes(), nil
}
