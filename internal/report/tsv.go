// Package report renders benchmark results as a TSV artifact, a console
// summary, an HTML chart and serialized report files.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/rbbench/internal/bench"
)

// WriteTSV writes one header line of container names and one row per round
// holding each container's lookup time in nanoseconds.
func WriteTSV(w io.Writer, res *bench.Results) error {
	bw := bufio.NewWriter(w)

	_, err := bw.WriteString(strings.Join(res.Containers, "\t") + "\n")
	if err != nil {
		return fmt.Errorf("write tsv header: %w", err)
	}

	fields := make([]string, len(res.Containers))

	for _, round := range res.Rounds {
		for i, name := range res.Containers {
			m, _ := round.Measurement(name)
			fields[i] = strconv.FormatInt(m.LookupNs, 10)
		}

		_, err = bw.WriteString(strings.Join(fields, "\t") + "\n")
		if err != nil {
			return fmt.Errorf("write tsv row %d: %w", round.Index, err)
		}
	}

	err = bw.Flush()
	if err != nil {
		return fmt.Errorf("flush tsv: %w", err)
	}

	return nil
}
