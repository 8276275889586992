package main

import (
	"fmt"
	"io"
	"os"

	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"github.com/pdiddy/places-scan/internal/grid"
	"github.com/pdiddy/places-scan/pkg/types"
)

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Print the grid points of a survey without calling the API",
	Long: `Grid prints the sample points the scan would search, the number of
searches a full run issues, and the smallest radius that leaves no coverage
gaps for the configured step. With --geojson the points are written as a
GeoJSON FeatureCollection instead.`,
	RunE: runGrid,
}

func init() {
	gridCmd.Flags().Bool("geojson", false, "write the points as a GeoJSON FeatureCollection")
	rootCmd.AddCommand(gridCmd)
}

func runGrid(cmd *cobra.Command, args []string) error {
	cfg := scanConfig()
	if err := cfg.Bounds.Validate(); err != nil {
		return err
	}
	if cfg.GridStep <= 0 {
		return fmt.Errorf("grid step must be positive, got %v", cfg.GridStep)
	}
	g := grid.New(cfg.Bounds, cfg.GridStep)

	asGeoJSON, _ := cmd.Flags().GetBool("geojson")
	if asGeoJSON {
		return writeGeoJSON(os.Stdout, g, cfg.Radius)
	}
	return writeGrid(os.Stdout, g, cfg)
}

func writeGrid(w io.Writer, g *grid.Grid, cfg types.ScanConfig) error {
	i := 0
	for p := range g.Points() {
		i++
		fmt.Fprintf(w, "%4d  (%.4f, %.4f)\n", i, p.Lat, p.Lng)
	}

	minRadius := cfg.Bounds.MinCoverageRadius(cfg.GridStep)
	fmt.Fprintf(w, "\nGrid: %d rows x %d cols = %d points\n", g.Rows(), g.Cols(), g.Len())
	fmt.Fprintf(w, "Searches per run: %d (%d filters per point)\n", g.Len()*cfg.Searches(), cfg.Searches())
	fmt.Fprintf(w, "Radius: %dm (minimum without gaps: %.0fm)\n", cfg.Radius, minRadius)
	if float64(cfg.Radius) < minRadius {
		fmt.Fprintln(w, "warning: radius leaves coverage gaps between grid points")
	}
	return nil
}

func writeGeoJSON(w io.Writer, g *grid.Grid, radius int) error {
	fc := geojson.NewFeatureCollection()
	for i, p := range g.MultiPoint() {
		f := geojson.NewFeature(p)
		f.Properties["index"] = i + 1
		f.Properties["radius_m"] = radius
		fc.Append(f)
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding GeoJSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
