// Command netcheck validates a spatial network GeoJSON file before it is
// deployed behind trackd's NETWORK_GEOJSON_PATH. It verifies geometry
// extraction, graph construction, connectivity, and optionally that a route
// exists between two points.
//
// Usage:
//
//	go run ./cmd/netcheck -geojson data/roads.geojson \
//	  -from "-95.95,36.05" -to "-95.80,36.20"
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/couchcryptid/storm-track-analysis/internal/network"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	geojsonPath := flag.String("geojson", "", "path to the network GeoJSON file")
	fromArg := flag.String("from", "", "optional route origin as \"lon,lat\"")
	toArg := flag.String("to", "", "optional route destination as \"lon,lat\"")
	flag.Parse()

	if *geojsonPath == "" {
		flag.Usage()
		os.Exit(1)
	}
	if (*fromArg == "") != (*toArg == "") {
		fmt.Fprintln(os.Stderr, "FATAL: -from and -to must be given together")
		os.Exit(1)
	}

	if code := run(*geojsonPath, *fromArg, *toArg); code != 0 {
		os.Exit(code)
	}
}

func run(geojsonPath, fromArg, toArg string) int {
	fmt.Println("=== Spatial Network Validation ===")
	fmt.Println()

	data, err := os.ReadFile(geojsonPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read GeoJSON: %v\n", err)
		return 1
	}

	lines, skipped, err := network.LinesFromGeoJSON(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse GeoJSON: %v\n", err)
		return 1
	}
	net := network.Build(lines)

	phases := []*phase{
		validateGeometry(lines, skipped),
		validateGraph(net),
		validateConnectivity(net),
	}
	if fromArg != "" {
		phases = append(phases, validateRoute(net, fromArg, toArg))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-32s %s\n", p.name, status)
	}

	stats := net.Stats()
	fmt.Println()
	fmt.Printf("Network: %d lines, %d nodes, %d edges, %.1f km\n",
		stats.Lines, net.NodeCount(), net.EdgeCount(), net.TotalLength()/1000)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i >= 20 {
				fmt.Printf("  ... and %d more\n", len(p.errors)-i)
				break
			}
			fmt.Printf("  %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	fmt.Println("\nAll checks passed.")
	return 0
}

func validateGeometry(lines []orb.LineString, skipped int) *phase {
	p := &phase{name: "GeoJSON geometry"}
	if len(lines) == 0 {
		p.errorf("no LineString features found")
		return p
	}
	if skipped > 0 {
		fmt.Printf("note: %d non-line features ignored\n", skipped)
	}
	for i, line := range lines {
		for _, pt := range line {
			if pt[0] < -180 || pt[0] > 180 || pt[1] < -90 || pt[1] > 90 {
				p.errorf("line %d: coordinate out of WGS84 range: (%g, %g)", i, pt[0], pt[1])
			}
		}
	}
	return p
}

func validateGraph(net *network.Network) *phase {
	p := &phase{name: "Graph construction"}
	stats := net.Stats()
	if net.NodeCount() == 0 {
		p.errorf("graph has no nodes")
		return p
	}
	if net.EdgeCount() == 0 {
		p.errorf("graph has no edges")
	}
	if stats.DroppedDegenerate > 0 {
		p.errorf("%d degenerate lines dropped (zero-length after snapping)", stats.DroppedDegenerate)
	}
	if net.TotalLength() <= 0 {
		p.errorf("total edge length is zero")
	}
	if stats.DroppedParallel > 0 {
		fmt.Printf("note: %d parallel edges reduced to shortest\n", stats.DroppedParallel)
	}
	return p
}

func validateConnectivity(net *network.Network) *phase {
	p := &phase{name: "Connectivity"}
	components := net.Components()
	if len(components) == 0 {
		p.errorf("no connected components")
		return p
	}
	largest := len(components[0])
	share := float64(largest) / float64(net.NodeCount())
	if share < 0.5 {
		p.errorf("largest component covers only %.0f%% of nodes (%d of %d)",
			share*100, largest, net.NodeCount())
	}
	if len(components) > 1 {
		fmt.Printf("note: %d components, largest has %d of %d nodes\n",
			len(components), largest, net.NodeCount())
	}
	return p
}

func validateRoute(net *network.Network, fromArg, toArg string) *phase {
	p := &phase{name: "Routing"}

	from, err := parsePoint(fromArg)
	if err != nil {
		p.errorf("-from: %v", err)
		return p
	}
	to, err := parsePoint(toArg)
	if err != nil {
		p.errorf("-to: %v", err)
		return p
	}

	route, fromSnap, toSnap, err := net.RouteBetween(from, to)
	if err != nil {
		p.errorf("route failed: %v", err)
		return p
	}
	fmt.Printf("note: route %.1f km over %d nodes (snaps %.0f m / %.0f m)\n",
		route.Meters/1000, len(route.NodeIDs), fromSnap, toSnap)
	return p
}

func parsePoint(s string) (orb.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return orb.Point{}, fmt.Errorf("want \"lon,lat\", got %q", s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("invalid longitude %q", parts[0])
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("invalid latitude %q", parts[1])
	}
	return orb.Point{lon, lat}, nil
}
