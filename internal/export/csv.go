package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/superdango/embodied-carbon/model/aggregate"
)

const separator = ", "

// WriteCSV writes one line per element, fields separated by a comma and a
// space. Commas inside text fields become semicolons.
func WriteCSV(w io.Writer, assessments []aggregate.Assessment) error {
	buf := bufio.NewWriter(w)

	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.name
	}
	if _, err := fmt.Fprintln(buf, strings.Join(header, separator)); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	fields := make([]string, len(columns))
	for _, a := range sortedRows(assessments) {
		for i, c := range columns {
			fields[i] = csvField(c.value(a))
		}
		if _, err := fmt.Fprintln(buf, strings.Join(fields, separator)); err != nil {
			return fmt.Errorf("failed to write element %s: %w", a.ID, err)
		}
	}

	return buf.Flush()
}

func csvField(v any) string {
	switch v := v.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return strings.ReplaceAll(v, ",", ";")
	}
	return fmt.Sprint(v)
}
