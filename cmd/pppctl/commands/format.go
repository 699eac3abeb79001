package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/tokarak/gopppd/internal/controlapi"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

// errUnsupportedFormat is returned when the requested output format is
// not supported.
var errUnsupportedFormat = errors.New("unsupported output format")

// formatSessions renders a slice of session views in the requested format.
func formatSessions(views []controlapi.SessionView, format string) (string, error) {
	switch format {
	case formatJSON:
		return formatJSONIndent(views)
	case formatTable:
		return formatSessionsTable(views), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

// formatSession renders a single session view in the requested format.
func formatSession(view controlapi.SessionView, format string) (string, error) {
	switch format {
	case formatJSON:
		return formatJSONIndent(view)
	case formatTable:
		return formatSessionDetail(view), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

func formatSessionsTable(views []controlapi.SessionView) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tIFNAME\tSTATE")

	for _, v := range views {
		fmt.Fprintf(w, "%s\t%s\t%s\n", v.ID, v.IfName, v.State)
	}

	w.Flush() //nolint:errcheck // strings.Builder never fails to write.
	return buf.String()
}

func formatSessionDetail(v controlapi.SessionView) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "ID:\t%s\n", v.ID)
	fmt.Fprintf(w, "Interface:\t%s\n", v.IfName)
	fmt.Fprintf(w, "State:\t%s\n", v.State)

	w.Flush() //nolint:errcheck
	return buf.String()
}

func formatJSONIndent(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal to JSON: %w", err)
	}
	return string(data) + "\n", nil
}
