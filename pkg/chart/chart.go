// Package chart renders berth utilisation as a standalone HTML page.
package chart

import (
	"bytes"
	"fmt"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/berthplan/core/occupancy"
)

// UtilisationHTML returns a bar chart of occupied hours and utilisation
// percentage per berth.
func UtilisationHTML(s occupancy.Summary, title string) (string, error) {
	if title == "" {
		title = "Berth utilisation"
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%s to %s", s.From.Format("2006-01-02 15:04"), s.To.Format("2006-01-02 15:04")),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Berth"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Utilisation (%)"}),
	)

	xAxis := make([]string, 0, len(s.Berths))
	pct := make([]opts.BarData, 0, len(s.Berths))
	hours := make([]opts.BarData, 0, len(s.Berths))
	for _, b := range s.Berths {
		xAxis = append(xAxis, b.Berth)
		pct = append(pct, opts.BarData{Value: math.Round(b.Ratio*1000) / 10})
		hours = append(hours, opts.BarData{Value: math.Round(b.Hours*10) / 10})
	}
	bar.SetXAxis(xAxis).
		AddSeries("Utilisation %", pct).
		AddSeries("Occupied hours", hours)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.String(), nil
}
