package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/pdiddy/places-scan/internal/sink"
	"github.com/pdiddy/places-scan/pkg/types"
)

// timestampLayout suffixes output names when --timestamp is set.
const timestampLayout = "20060102_150405"

// outputPaths locates the file outputs of one run.
type outputPaths struct {
	CSV     string
	RDS     string
	YAML    string
	Partial string
}

func resolvePaths(o types.OutputConfig, stamp time.Time, timestamped bool) outputPaths {
	name := o.Name
	if timestamped {
		name += "_" + stamp.Format(timestampLayout)
	}
	return outputPaths{
		CSV:     filepath.Join(o.Dir, name+".csv"),
		RDS:     filepath.Join(o.Dir, name+".rds"),
		YAML:    filepath.Join(o.Dir, name+".yaml"),
		Partial: filepath.Join(o.Dir, o.Name+"_partial.csv"),
	}
}

// buildChain turns the enabled sink names into a Chain with the CSV sink as
// primary. Secondary sinks run in a fixed order; RDS follows CSV because it
// reads the CSV file.
func buildChain(o types.OutputConfig, paths outputPaths, scanID string, conv sink.RDSConverter) (sink.Chain, error) {
	for _, name := range o.Sinks {
		switch name {
		case types.SinkCSV, types.SinkSQLite, types.SinkPostgres, types.SinkRDS, types.SinkYAML:
		default:
			return sink.Chain{}, fmt.Errorf("unknown sink %q (use csv, sqlite, postgres, rds, yaml)", name)
		}
	}

	chain := sink.Chain{Primary: sink.CSVSink{Path: paths.CSV}}
	if o.Enabled(types.SinkSQLite) {
		chain.Secondary = append(chain.Secondary, sink.TableSink{
			Driver: sink.DriverSQLite,
			DSN:    o.SQLitePath,
			Table:  o.Table,
			ScanID: scanID,
		})
	}
	if o.Enabled(types.SinkPostgres) {
		if o.PostgresDSN == "" {
			return sink.Chain{}, fmt.Errorf("postgres sink enabled but no DSN configured (--postgres-dsn, PLACES_SCAN_POSTGRES_DSN or .secrets/postgres-dsn)")
		}
		chain.Secondary = append(chain.Secondary, sink.TableSink{
			Driver: sink.DriverPostgres,
			DSN:    o.PostgresDSN,
			Table:  o.Table,
			ScanID: scanID,
		})
	}
	if o.Enabled(types.SinkRDS) {
		chain.Secondary = append(chain.Secondary, sink.RDSSink{
			CSVPath:   paths.CSV,
			RDSPath:   paths.RDS,
			Converter: conv,
		})
	}
	if o.Enabled(types.SinkYAML) {
		chain.Secondary = append(chain.Secondary, sink.YAMLSink{Path: paths.YAML, ScanID: scanID})
	}
	return chain, nil
}
