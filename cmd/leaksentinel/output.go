// ABOUTME: Renders probe and navigation results for the terminal or as documents
// ABOUTME: Text output is line-oriented; json and yaml go through snapshot codecs

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/prateek/leaksentinel/retention"
	"github.com/prateek/leaksentinel/sentinel"
	"github.com/prateek/leaksentinel/snapshot"
)

type output struct {
	Reports    []sentinel.LeakReport
	Navigation []sentinel.NavigationReport
	Graph      *retention.MemGraph
}

func (o *output) leaked() bool {
	for _, r := range o.Reports {
		if r.Leaked {
			return true
		}
	}
	for _, n := range o.Navigation {
		if n.Main.Leaked || n.Second.Leaked {
			return true
		}
	}
	return false
}

func writeOutput(w io.Writer, format string, o *output) error {
	if format == "text" {
		return writeText(w, o)
	}

	doc := &snapshot.Document{Reports: o.Reports, Navigation: o.Navigation}
	if o.Graph != nil {
		doc.Graph = snapshot.FromGraph(o.Graph)
	}
	return snapshot.Encode(w, format, doc)
}

func writeText(w io.Writer, o *output) error {
	var b strings.Builder
	for _, r := range o.Reports {
		writeReportLine(&b, "", r)
	}
	for _, n := range o.Navigation {
		writeReportLine(&b, "second ", n.Second)
		writeReportLine(&b, "main   ", n.Main)
	}
	if o.Graph != nil {
		b.WriteString("graph:\n")
		o.Graph.ForEachNode(func(n *retention.Node) {
			fmt.Fprintf(&b, "  %d %s size=%d refs=%v\n", n.ID, n.Label, n.Size, n.Refs)
		})
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeReportLine(b *strings.Builder, prefix string, r sentinel.LeakReport) {
	status := "released"
	if r.Leaked {
		status = "LEAKED"
	}
	fmt.Fprintf(b, "%s%-8s %-8s owner=%s", prefix, r.Strategy, status, r.OwnerID)
	if r.Leaked {
		fmt.Fprintf(b, " retained=%dB path=%s", r.RetainedBytes, strings.Join(r.RetentionPath, " <- "))
	}
	b.WriteByte('\n')
}
