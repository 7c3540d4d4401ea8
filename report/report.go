// Package report renders the hit ratios measured for annotated regions.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/sarchlab/cachehit/cache"
	"github.com/sarchlab/cachehit/sites"
)

// AllRegionName names the program-wide row recorded with RecordAll.
const AllRegionName = "<all>"

// Row holds the cumulative counts of one region.
type Row struct {
	Name       string
	ID         string
	Executions uint32
	Stats      []cache.Statistics
}

// Total returns the number of accesses recorded by the first configuration.
func (r Row) Total() uint64 {
	if len(r.Stats) == 0 {
		return 0
	}
	return r.Stats[0].Total()
}

// HitRatios returns one hit ratio per configuration, NaN for a row without
// accesses.
func (r Row) HitRatios() []float64 {
	ratios := make([]float64, len(r.Stats))
	for i, s := range r.Stats {
		ratios[i] = s.HitRatio()
	}
	return ratios
}

// DetailRow holds the counts of one activation of a region.
type DetailRow struct {
	Name       string
	ID         string
	Activation int
	Stats      []cache.Statistics
}

// SiteReport is the outcome of a profiling run.
type SiteReport struct {
	Configs []cache.Config
	Rows    []Row
	Details []DetailRow
}

// Row returns the first row with the given name.
func (r SiteReport) Row(name string) (Row, bool) {
	for _, row := range r.Rows {
		if row.Name == name {
			return row, true
		}
	}
	return Row{}, false
}

// FromRegistry collects the rows of every discovered site in discovery
// order. A non-nil all profile adds a trailing AllRegionName row.
func FromRegistry(reg *sites.Registry, all *cache.Profile) SiteReport {
	r := SiteReport{Configs: reg.CacheConfigs()}

	for _, site := range reg.Sites() {
		r.Rows = append(r.Rows, Row{
			Name:       site.Name(),
			ID:         site.ID(),
			Executions: site.ExecutionCount(),
			Stats:      site.Profile().Stats(),
		})

		for _, act := range site.Activations() {
			r.Details = append(r.Details, DetailRow{
				Name:       site.Name(),
				ID:         site.ID(),
				Activation: act.Index,
				Stats:      act.Stats,
			})
		}
	}

	if all != nil {
		r.Rows = append(r.Rows, Row{
			Name:  AllRegionName,
			Stats: all.Stats(),
		})
	}

	return r
}

// WriteCSV writes the site report:
//
//	region, 2, 8
//	<name>,<ratio>,<ratio>, <accesses>
//
// Sizes are printed in MB when whole; ratios of rows without accesses are
// NaN.
func WriteCSV(w io.Writer, r SiteReport) error {
	bw := bufio.NewWriter(w)

	_, _ = bw.WriteString("region")
	for _, c := range r.Configs {
		_, _ = fmt.Fprintf(bw, ", %s", c.Label())
	}
	_ = bw.WriteByte('\n')

	for _, row := range r.Rows {
		_, _ = bw.WriteString(row.Name)
		for _, ratio := range row.HitRatios() {
			_, _ = fmt.Fprintf(bw, ",%s", formatRatio(ratio))
		}
		_, _ = fmt.Fprintf(bw, ", %d\n", row.Total())
	}

	// bufio keeps the first write error; Flush reports it.
	return bw.Flush()
}

// WriteDetailedCSV writes one line per completed activation:
//
//	region, activation, 2, 8, accesses
func WriteDetailedCSV(w io.Writer, r SiteReport) error {
	bw := bufio.NewWriter(w)

	_, _ = bw.WriteString("region, activation")
	for _, c := range r.Configs {
		_, _ = fmt.Fprintf(bw, ", %s", c.Label())
	}
	_, _ = bw.WriteString(", accesses\n")

	for _, d := range r.Details {
		_, _ = fmt.Fprintf(bw, "%s,%d", d.Name, d.Activation)
		for _, s := range d.Stats {
			_, _ = fmt.Fprintf(bw, ",%s", formatRatio(s.HitRatio()))
		}

		var total uint64
		if len(d.Stats) > 0 {
			total = d.Stats[0].Total()
		}
		_, _ = fmt.Fprintf(bw, ", %d\n", total)
	}

	return bw.Flush()
}

// PrintSummary writes a human readable table of the rows.
func PrintSummary(w io.Writer, r SiteReport) {
	_, _ = fmt.Fprintf(w, "%-24s %10s", "Region", "Accesses")
	for _, c := range r.Configs {
		_, _ = fmt.Fprintf(w, " %10s", c.Label())
	}
	_, _ = fmt.Fprintln(w)

	for _, row := range r.Rows {
		_, _ = fmt.Fprintf(w, "%-24s %10d", row.Name, row.Total())
		for _, ratio := range row.HitRatios() {
			_, _ = fmt.Fprintf(w, " %10s", formatRatio(ratio))
		}
		_, _ = fmt.Fprintln(w)
	}
}

func formatRatio(f float64) string {
	return strconv.FormatFloat(f, 'g', 6, 64)
}
