package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"
)

// TableFormatter formats resources as human-readable tables.
type TableFormatter struct {
	// NoHeaders omits the header row.
	NoHeaders bool
}

// FormatNodes formats a list of cluster nodes as a table.
func (f *TableFormatter) FormatNodes(nodes []NodeRow) (string, error) {
	if len(nodes) == 0 {
		return "No nodes found\n", nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "NAME\tMAXCPU\tMEMORY\tDISK")
	}

	for _, n := range nodes {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
			n.Name, n.MaxCPU, formatBytes(n.MaxMemBytes), formatBytes(n.MaxDiskBytes))
	}

	_ = w.Flush()
	return buf.String(), nil
}

// FormatStorages formats a list of storages as a table.
func (f *TableFormatter) FormatStorages(storages []StorageRow) (string, error) {
	if len(storages) == 0 {
		return "No storages found\n", nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "NAME\tTYPE\tAVAIL\tCONTENT")
	}

	for _, s := range storages {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			s.Name, s.Type, formatBytes(s.AvailBytes), formatContent(s.Content))
	}

	_ = w.Flush()
	return buf.String(), nil
}

// FormatLimits formats resolved resource limits as a table.
func (f *TableFormatter) FormatLimits(limits Limits) (string, error) {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if limits.Storage != "" {
		if !f.NoHeaders {
			_, _ = fmt.Fprintln(w, "NODE\tSTORAGE\tMAXCPU\tMAXMEM(MB)\tMAXDISK(GB)")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n",
			limits.Node, limits.Storage, limits.MaxCPU, limits.MaxMemoryMB, limits.MaxDiskGB)
	} else {
		if !f.NoHeaders {
			_, _ = fmt.Fprintln(w, "NODE\tMAXCPU\tMAXMEM(MB)")
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\n", limits.Node, limits.MaxCPU, limits.MaxMemoryMB)
	}

	_ = w.Flush()
	return buf.String(), nil
}
