package lcov

import (
	"bufio"
	"fmt"
	"io"

	"github.com/felixgeelhaar/lcovreport/internal/domain"
)

// Write emits records as a summary-only tracefile. Parsing the output yields
// the same counters back.
func Write(w io.Writer, records []domain.FileCoverage) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "TN:")
	for _, r := range records {
		fmt.Fprintf(bw, "SF:%s\n", r.Path)
		fmt.Fprintf(bw, "FNF:%d\nFNH:%d\n", r.Functions.Found, r.Functions.Hit)
		fmt.Fprintf(bw, "LF:%d\nLH:%d\n", r.Lines.Found, r.Lines.Hit)
		fmt.Fprintf(bw, "BRF:%d\nBRH:%d\n", r.Branches.Found, r.Branches.Hit)
		fmt.Fprintln(bw, "end_of_record")
	}
	return bw.Flush()
}
