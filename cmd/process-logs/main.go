// process-logs turns a simulator JSON log into per-drone outcome counts.
// Run the simulator with a logFile configured, then:
//
//	process-logs -input logs/simulator.log -output stats.csv
package main

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
)

type logLine struct {
	Event string `json:"event"`
	Drone *int   `json:"drone"`
}

type droneStats struct {
	sent     int
	dropped  int
	shortcut int
}

func aggregate(r io.Reader) (map[int]*droneStats, error) {
	stats := make(map[int]*droneStats)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		var line logLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			// Non-JSON noise in the log is skipped, not fatal.
			continue
		}
		if line.Drone == nil {
			continue
		}
		s, ok := stats[*line.Drone]
		if !ok {
			s = &droneStats{}
			stats[*line.Drone] = s
		}
		switch line.Event {
		case "packet_sent":
			s.sent++
		case "packet_dropped":
			s.dropped++
		case "controller_shortcut":
			s.shortcut++
		}
	}
	return stats, scanner.Err()
}

func writeCsv(w io.Writer, stats map[int]*droneStats) error {
	ids := make([]int, 0, len(stats))
	for id := range stats {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	cw := csv.NewWriter(w)
	defer cw.Flush()
	if err := cw.Write([]string{"drone", "packets_sent", "packets_dropped", "controller_shortcuts"}); err != nil {
		return err
	}
	for _, id := range ids {
		s := stats[id]
		row := []string{
			fmt.Sprintf("%d", id),
			fmt.Sprintf("%d", s.sent),
			fmt.Sprintf("%d", s.dropped),
			fmt.Sprintf("%d", s.shortcut),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	input := flag.String("input", "logs/simulator.log", "simulator log to process")
	output := flag.String("output", "stats.csv", "csv file to write")
	flag.Parse()

	in, err := os.Open(*input)
	if err != nil {
		panic(err)
	}
	defer in.Close()

	stats, err := aggregate(in)
	if err != nil {
		panic(err)
	}

	out, err := os.Create(*output)
	if err != nil {
		panic(err)
	}
	defer out.Close()

	if err := writeCsv(out, stats); err != nil {
		panic(err)
	}
}
