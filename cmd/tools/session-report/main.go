// session-report renders recorded episodes from a session database into
// an HTML report (per-episode trajectory and control charts) plus a PNG
// trajectory plot per episode.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/plateworks/moab-session/internal/db"
	"github.com/plateworks/moab-session/internal/sim"
)

var (
	dbFile = flag.String("db", "moab_session.db", "Path to the session database")
	runID  = flag.String("run", "", "Run id to report on (default: every recorded run)")
	outDir = flag.String("out", "report", "Output directory")
)

func trajectoryScatter(ep db.EpisodeSummary, steps []db.StepRow) *charts.Scatter {
	data := make([]opts.ScatterData, 0, len(steps))
	for _, s := range steps {
		data = append(data, opts.ScatterData{Value: []interface{}{s.BallX, s.BallY, s.Iteration}})
	}

	pad := sim.PlateRadius * 1.05
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Episode %d trajectory", ep.Episode),
			Subtitle: fmt.Sprintf("run=%s steps=%d", ep.RunID, len(steps)),
		}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X (m)"}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y (m)"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:      opts.Bool(true),
			Min:       0,
			Max:       float32(len(steps)),
			Dimension: "2",
		}),
	)
	scatter.AddSeries("ball", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}))
	return scatter
}

func controlLines(ep db.EpisodeSummary, steps []db.StepRow) *charts.Line {
	xs := make([]string, 0, len(steps))
	rolls := make([]opts.LineData, 0, len(steps))
	pitches := make([]opts.LineData, 0, len(steps))
	for _, s := range steps {
		xs = append(xs, fmt.Sprintf("%d", s.Iteration))
		var roll, pitch float64
		if s.InputRoll != nil {
			roll = *s.InputRoll
		}
		if s.InputPitch != nil {
			pitch = *s.InputPitch
		}
		rolls = append(rolls, opts.LineData{Value: roll})
		pitches = append(pitches, opts.LineData{Value: pitch})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Episode %d controls", ep.Episode)}),
		charts.WithYAxisOpts(opts.YAxis{Min: -1, Max: 1}),
	)
	line.SetXAxis(xs)
	line.AddSeries("input_roll", rolls)
	line.AddSeries("input_pitch", pitches)
	return line
}

// savePNG writes the episode trajectory as a PNG via gonum/plot.
func savePNG(path string, steps []db.StepRow) error {
	p := plot.New()
	p.Title.Text = "Ball trajectory"
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"
	p.X.Min, p.X.Max = -sim.PlateRadius, sim.PlateRadius
	p.Y.Min, p.Y.Max = -sim.PlateRadius, sim.PlateRadius

	pts := make(plotter.XYs, 0, len(steps))
	for _, s := range steps {
		pts = append(pts, plotter.XY{X: s.BallX, Y: s.BallY})
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("failed to build trajectory line: %w", err)
	}
	line.Width = vg.Points(1)
	p.Add(line)

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func main() {
	flag.Parse()

	store, err := db.Open(*dbFile)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer store.Close()

	episodes, err := store.Episodes()
	if err != nil {
		log.Fatalf("failed to list episodes: %v", err)
	}
	if *runID != "" {
		filtered := episodes[:0]
		for _, ep := range episodes {
			if ep.RunID == *runID {
				filtered = append(filtered, ep)
			}
		}
		episodes = filtered
	}
	if len(episodes) == 0 {
		log.Fatal("no recorded episodes to report on")
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	page := components.NewPage()
	page.PageTitle = "Moab session report"
	for _, ep := range episodes {
		steps, err := store.Steps(ep.RunID, ep.Episode)
		if err != nil {
			log.Fatalf("failed to load steps for episode %d: %v", ep.Episode, err)
		}
		if len(steps) == 0 {
			continue
		}
		page.AddCharts(trajectoryScatter(ep, steps), controlLines(ep, steps))

		png := filepath.Join(*outDir, fmt.Sprintf("episode_%s_%d.png", ep.RunID, ep.Episode))
		if err := savePNG(png, steps); err != nil {
			log.Fatalf("failed to plot episode %d: %v", ep.Episode, err)
		}
	}

	htmlPath := filepath.Join(*outDir, "report.html")
	f, err := os.Create(htmlPath)
	if err != nil {
		log.Fatalf("failed to create %s: %v", htmlPath, err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		log.Fatalf("failed to render report: %v", err)
	}

	log.Printf("wrote report for %d episodes to %s", len(episodes), *outDir)
}
