package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/omeyang/xassets/pkg/assets/xpage"
)

// printReport 输出检查报告。asJSON 为 true 时输出缩进的 JSON。
func printReport(w io.Writer, r *xpage.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tSTATUS\tATTEMPTS\tFINAL")
	for _, a := range r.Assets {
		status := "failed"
		switch {
		case a.Loaded && a.Retried:
			status = "retried"
		case a.Loaded:
			status = "ok"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", a.ID, a.Kind, status, len(a.Attempts), a.Final)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Stats) > 0 {
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DOMAIN\tRETRIES\tFAILED\tSUCCEEDED")
		for _, d := range slices.Sorted(maps.Keys(r.Stats)) {
			st := r.Stats[d]
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", d, st.RetryCount, len(st.Failed), len(st.Succeeded))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "\n%d loaded, %d failed\n", r.Loaded(), r.Failed())
	return nil
}
