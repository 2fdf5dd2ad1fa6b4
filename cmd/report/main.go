// Command report renders an offline braking report for a stored lap: a text
// summary on stdout and PNG trace plots in the output directory.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	_ "modernc.org/sqlite"

	"github.com/apex-data/brake.report/internal/analysis"
	"github.com/apex-data/brake.report/internal/config"
	"github.com/apex-data/brake.report/internal/db"
	"github.com/apex-data/brake.report/internal/telemetry"
	"github.com/apex-data/brake.report/internal/units"
)

var (
	dbFile     = flag.String("db", "brake_data.db", "Path to the SQLite database")
	lapID      = flag.String("lap", "", "Lap ID to report on")
	outDir     = flag.String("out", "reports", "Directory for the PNG plots")
	tuningFile = flag.String("tuning", "", "Path to a tuning JSON file")
	unitsFlag  = flag.String("units", "mps", "Speed units in the plots ("+units.GetValidUnitsString()+")")
)

func main() {
	flag.Parse()

	if *lapID == "" {
		log.Fatal("-lap is required")
	}
	if !units.IsValid(*unitsFlag) {
		log.Fatalf("invalid units %q, must be one of: %s", *unitsFlag, units.GetValidUnitsString())
	}

	tuning := config.DefaultTuning()
	if *tuningFile != "" {
		var err error
		tuning, err = config.LoadTuning(*tuningFile)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	}

	database, err := db.OpenDB(*dbFile)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	lap, err := database.GetLap(*lapID)
	if err != nil {
		log.Fatalf("failed to load lap %s: %v", *lapID, err)
	}

	pipeline := analysis.NewPipeline(tuning)
	sum, err := pipeline.Analyze(lap)
	if err != nil {
		log.Fatalf("failed to analyze lap %s: %v", *lapID, err)
	}

	printSummary(lap, sum, tuning)

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("failed to create output dir: %v", err)
	}

	exporter := analysis.NewExporter(*outDir)
	if path, err := exporter.WriteSummaryJSON(lap, sum); err != nil {
		log.Fatalf("failed to export summary JSON: %v", err)
	} else {
		log.Printf("wrote %s", path)
	}
	if path, err := exporter.WriteZonesCSV(lap, sum); err != nil {
		log.Fatalf("failed to export zone CSV: %v", err)
	} else {
		log.Printf("wrote %s", path)
	}

	if err := plotSpeed(lap, sum, *unitsFlag); err != nil {
		log.Fatalf("failed to plot speed trace: %v", err)
	}
	if err := plotPedals(lap, sum); err != nil {
		log.Fatalf("failed to plot pedal trace: %v", err)
	}
	log.Printf("plots written to %s", *outDir)
}

func printSummary(lap *telemetry.Lap, sum *analysis.LapSummary, tuning *config.TuningConfig) {
	fmt.Printf("Lap %s\n", lap.ID)
	fmt.Printf("  driver:  %s\n", lap.UserID)
	fmt.Printf("  track:   %s\n", lap.Track)
	if lap.Car != "" {
		fmt.Printf("  car:     %s\n", lap.Car)
	}
	fmt.Printf("  time:    %.3fs\n", sum.LapTime)
	fmt.Printf("  score:   %.1f", sum.OverallScore)
	if sum.SpeedOnly {
		fmt.Printf(" (speed only, no brake zones)")
	}
	fmt.Println()
	fmt.Printf("  brake efficiency: %.1f%%\n", sum.BrakeEfficiency)

	for _, z := range sum.Zones {
		fmt.Printf("\nCorner %d  [%.2fs - %.2fs]\n", z.Corner+1, z.StartTime, z.EndTime)
		fmt.Printf("  peak %.0f%%  decel %.1f m/s2  trail %.0f%%  abs %.0f%%\n",
			z.BrakePeak, z.DecelAvg, z.TrailRatio*100, z.ABSRatio*100)
		fmt.Printf("  efficiency %.1f  smoothness %.1f  aggressiveness %.1f\n",
			z.Efficiency, z.Smoothness, z.Aggressiveness)
	}

	fmt.Println()
	for _, in := range analysis.GenerateInsights(*sum, tuning) {
		fmt.Printf("[%s/%s] %s\n", in.Type, in.Priority, in.Message)
	}
}

// plotSpeed renders the speed trace with the detected brake zones overlaid
// as thicker segments.
func plotSpeed(lap *telemetry.Lap, sum *analysis.LapSummary, unit string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s @ %s - Speed", lap.UserID, lap.Track)
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = fmt.Sprintf("Speed (%s)", unit)

	pts := make(plotter.XYs, 0, len(lap.Samples))
	for _, s := range lap.Samples {
		pts = append(pts, plotter.XY{X: s.Time, Y: units.ConvertSpeed(s.Speed, unit)})
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = color.RGBA{R: 60, G: 120, B: 216, A: 255}
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("speed", line)

	for i, z := range sum.Zones {
		zonePts := make(plotter.XYs, 0)
		for _, s := range lap.Samples {
			if s.Time >= z.StartTime && s.Time <= z.EndTime {
				zonePts = append(zonePts, plotter.XY{X: s.Time, Y: units.ConvertSpeed(s.Speed, unit)})
			}
		}
		if len(zonePts) == 0 {
			continue
		}
		zoneLine, err := plotter.NewLine(zonePts)
		if err != nil {
			return err
		}
		zoneLine.Color = color.RGBA{R: 216, G: 60, B: 60, A: 255}
		zoneLine.Width = vg.Points(3)
		p.Add(zoneLine)
		if i == 0 {
			p.Legend.Add("brake zone", zoneLine)
		}
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	out := filepath.Join(*outDir, fmt.Sprintf("lap_%s_speed.png", lap.ID))
	if err := p.Save(14*vg.Inch, 6*vg.Inch, out); err != nil {
		return fmt.Errorf("save speed plot: %w", err)
	}
	return nil
}

// plotPedals renders brake and throttle traces on one chart.
func plotPedals(lap *telemetry.Lap, sum *analysis.LapSummary) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s @ %s - Pedals (%d brake zones)", lap.UserID, lap.Track, len(sum.Zones))
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Pedal (%)"

	brakePts := make(plotter.XYs, 0, len(lap.Samples))
	throttlePts := make(plotter.XYs, 0, len(lap.Samples))
	for _, s := range lap.Samples {
		brakePts = append(brakePts, plotter.XY{X: s.Time, Y: s.Brake})
		throttlePts = append(throttlePts, plotter.XY{X: s.Time, Y: s.Throttle})
	}

	brakeLine, err := plotter.NewLine(brakePts)
	if err != nil {
		return err
	}
	brakeLine.Color = color.RGBA{R: 216, G: 60, B: 60, A: 255}
	brakeLine.Width = vg.Points(1)
	p.Add(brakeLine)
	p.Legend.Add("brake", brakeLine)

	throttleLine, err := plotter.NewLine(throttlePts)
	if err != nil {
		return err
	}
	throttleLine.Color = color.RGBA{R: 60, G: 170, B: 90, A: 255}
	throttleLine.Width = vg.Points(1)
	p.Add(throttleLine)
	p.Legend.Add("throttle", throttleLine)

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	out := filepath.Join(*outDir, fmt.Sprintf("lap_%s_pedals.png", lap.ID))
	if err := p.Save(14*vg.Inch, 6*vg.Inch, out); err != nil {
		return fmt.Errorf("save pedal plot: %w", err)
	}
	return nil
}
