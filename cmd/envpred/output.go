package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"envpred/pkg/selection"
	"envpred/pkg/stats"
)

// outputResult writes the result in the specified format.
func outputResult(w io.Writer, result interface{}, format string) error {
	switch format {
	case "json":
		return outputJSON(w, result)
	case "yaml":
		return outputYAML(w, result)
	default:
		return outputTable(w, result)
	}
}

func outputJSON(w io.Writer, result interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputYAML(w io.Writer, result interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(result); err != nil {
		return err
	}
	return encoder.Close()
}

func outputTable(out io.Writer, result interface{}) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	switch r := result.(type) {
	case []stats.Summary:
		return outputDescribeTable(w, r)
	case CorrResult:
		return outputCorrTable(w, r)
	case selection.Result:
		return outputSelectTable(w, r)
	case VIFResult:
		return outputVIFTable(w, r)
	case PCAResult:
		return outputPCATable(w, r)
	default:
		// Fall back to JSON for unknown types
		return outputJSON(out, result)
	}
}

func outputDescribeTable(w *tabwriter.Writer, r []stats.Summary) error {
	fmt.Fprintln(w, "VARIABLE\tN\tNA\tMIN\tQ1\tMEDIAN\tMEAN\tQ3\tMAX\tSD")
	for _, s := range r {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Name, s.N, s.NA, num(s.Min), num(s.Q1), num(s.Median),
			num(s.Mean), num(s.Q3), num(s.Max), num(s.SD))
	}
	return nil
}

func outputCorrTable(w *tabwriter.Writer, r CorrResult) error {
	fmt.Fprintf(w, "\t%s\n", strings.Join(r.Variables, "\t"))
	for i, name := range r.Variables {
		cells := make([]string, len(r.Matrix[i]))
		for j, v := range r.Matrix[i] {
			cells[j] = fmt.Sprintf("%.2f", v)
		}
		fmt.Fprintf(w, "%s\t%s\n", name, strings.Join(cells, "\t"))
	}

	fmt.Fprintf(w, "\nPAIRS WITH |r| >= %g\t%d\n", r.Threshold, len(r.HighPairs))
	if len(r.HighPairs) > 0 {
		fmt.Fprintln(w, "A\tB\tR")
		for _, p := range r.HighPairs {
			fmt.Fprintf(w, "%s\t%s\t%.3f\n", p.A, p.B, p.R)
		}
	}
	outputFiles(w, r.Files)
	return nil
}

func outputSelectTable(w *tabwriter.Writer, r selection.Result) error {
	fmt.Fprintf(w, "SELECTED\t%s\n", strings.Join(r.Names, ", "))
	fmt.Fprintf(w, "MAX |r|\t%.4f\n", r.Score)
	fmt.Fprintf(w, "SUBSETS EVALUATED\t%d\n", r.Evaluated)
	return nil
}

func outputVIFTable(w *tabwriter.Writer, r VIFResult) error {
	fmt.Fprintln(w, "VARIABLE\tVIF")
	for _, e := range r.Initial {
		fmt.Fprintf(w, "%s\t%s\n", e.Name, num(e.VIF))
	}
	fmt.Fprintf(w, "\nMETHOD\t%s (threshold %g)\n", r.Method, r.Threshold)
	fmt.Fprintf(w, "EXCLUDED\t%s\n", listOrNone(r.Filter.Excluded))
	fmt.Fprintln(w, "KEPT\tVIF")
	for _, e := range r.Filter.VIF {
		fmt.Fprintf(w, "%s\t%s\n", e.Name, num(e.VIF))
	}
	return nil
}

func outputPCATable(w *tabwriter.Writer, r PCAResult) error {
	header := make([]string, len(r.StdDev))
	for i := range header {
		header[i] = fmt.Sprintf("PC%d", i+1)
	}
	fmt.Fprintf(w, "\t%s\n", strings.Join(header, "\t"))
	row := func(label string, vs []float64) {
		cells := make([]string, len(vs))
		for i, v := range vs {
			cells[i] = fmt.Sprintf("%.4f", v)
		}
		fmt.Fprintf(w, "%s\t%s\n", label, strings.Join(cells, "\t"))
	}
	row("Standard deviation", r.StdDev)
	row("Proportion of variance", r.Proportion)
	row("Cumulative proportion", r.Cumulative)

	fmt.Fprintln(w, "\nLOADINGS")
	for j, name := range r.Variables {
		row(name, r.Loadings[j])
	}

	fmt.Fprintf(w, "\nRETAINED (%s)\t%d\n", r.Rule, r.Retained)
	fmt.Fprintf(w, "SUGGESTED\t%s\n", strings.Join(r.Suggested, ", "))
	outputFiles(w, r.Files)
	return nil
}

func outputFiles(w io.Writer, files []string) {
	for _, f := range files {
		fmt.Fprintf(w, "WROTE\t%s\n", f)
	}
}

func listOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

func num(v float64) string {
	if math.IsInf(v, 1) {
		return "Inf"
	}
	return fmt.Sprintf("%.3f", v)
}
