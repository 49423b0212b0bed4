package main

import (
	"cmp"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/RBFZ/CurveQuant/internal/config"
	"github.com/RBFZ/CurveQuant/internal/imaging"
	"github.com/RBFZ/CurveQuant/internal/probe"
	"github.com/RBFZ/CurveQuant/internal/workspace"
)

type detectOutput struct {
	Image  string         `json:"image"`
	Labels []string       `json:"labels"`
	Probes []probeOutput  `json:"probes"`
	Series []probe.Series `json:"series"`
}

type probeOutput struct {
	X      float64    `json:"x"`
	PixelX float64    `json:"pixel_x"`
	Values []*float64 `json:"values"`
	Manual []string   `json:"manual,omitempty"`
}

// runDetect digitizes one job file and prints the per-probe values.
func runDetect(args []string) int {
	var path string
	asJSON := false
	for _, a := range args {
		switch a {
		case "--json":
			asJSON = true
		default:
			path = a
		}
	}
	if path == "" {
		pterm.Error.Println("detect needs a job file: curvequant detect <job.json>")
		return 2
	}

	job, err := workspace.LoadJob(path)
	if err != nil {
		pterm.Error.Printf("Failed to load job: %v\n", err)
		return 1
	}

	// Job settings win over the settings file.
	settings, err := config.FromEnv()
	if err != nil {
		pterm.Error.Printf("Config error: %v\n", err)
		return 1
	}
	settings.Merge(job.Settings)
	job.Settings = settings

	w, err := job.Build(imaging.NewImageCache())
	if err != nil {
		pterm.Error.Printf("Failed to set up job: %v\n", err)
		return 1
	}
	w.Flush()

	out := collect(job.Image, w)
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			pterm.Error.Printf("Failed to encode results: %v\n", err)
			return 1
		}
		return 0
	}

	render(out)
	return 0
}

func collect(image string, w *workspace.Workspace) *detectOutput {
	labels := w.Labels()
	ps := w.Probes()
	slices.SortStableFunc(ps, func(a, b *probe.Probe) int { return cmp.Compare(a.XData, b.XData) })

	out := &detectOutput{Image: image, Labels: labels, Probes: make([]probeOutput, len(ps)), Series: w.Series()}
	for i, p := range ps {
		po := probeOutput{X: p.XData, PixelX: p.PixelX, Values: p.Merged(labels)}
		for _, l := range labels {
			if _, ok := p.Manual[l]; ok {
				po.Manual = append(po.Manual, l)
			}
		}
		out.Probes[i] = po
	}
	return out
}

func render(out *detectOutput) {
	pterm.DefaultSection.Println(out.Image)

	tableData := pterm.TableData{append([]string{"x", "pixel x"}, out.Labels...)}
	missing := 0
	for _, p := range out.Probes {
		manual := make(map[string]bool, len(p.Manual))
		for _, l := range p.Manual {
			manual[l] = true
		}
		row := []string{formatValue(p.X), fmt.Sprintf("%.1f", p.PixelX)}
		for i, v := range p.Values {
			switch {
			case v == nil:
				missing++
				row = append(row, "-")
			case manual[out.Labels[i]]:
				row = append(row, formatValue(*v)+"*")
			default:
				row = append(row, formatValue(*v))
			}
		}
		tableData = append(tableData, row)
	}
	pterm.DefaultTable.WithHasHeader().WithData(tableData).Render()

	pterm.Info.Printf("%d probe(s), %d label(s); * marks manual values\n", len(out.Probes), len(out.Labels))
	if missing > 0 {
		pterm.Warning.Printf("%d value(s) could not be detected\n", missing)
		return
	}
	pterm.Success.Println("Every label was found on every probe")
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
