// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfstat

import (
	"fmt"
	"io"
	"math"

	"github.com/google/safehtml/template"

	"github.com/streamlab/kperf/perfproc"
	"github.com/streamlab/kperf/perfscore"
	"github.com/streamlab/kperf/perfseries"
	"github.com/streamlab/kperf/perfunit"
)

// A Page is everything rendered on an HTML report page. Only Report
// is required.
type Page struct {
	Title  string
	Report *Report

	Board     *perfscore.Board
	Objective perfscore.Objective
	// Top is the number of scored rows listed. 0 lists them all.
	Top int

	Breakdowns []Breakdown
	Heatmap    *perfseries.Grid
	Scaling    *perfseries.ScalingReport

	// Images are URLs of charts, relative to the page.
	Images []string
}

// A Breakdown is a perfseries breakdown along one dimension.
type Breakdown struct {
	Dim    string
	Levels []perfseries.Level
}

const reportHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; margin-bottom: 1.5em; }
th, td { border: 1px solid #ccc; padding: 0.2em 0.6em; text-align: right; }
th:first-child, td:first-child { text-align: left; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{with .Report}}
<p>{{.Total}} results: {{.Producers}} producer, {{.Consumers}} consumer.
{{len .Producer.Groups}} producer and {{len .Consumer.Groups}} consumer configurations.
Aggregated {{.Time.Format "2006-01-02 15:04:05 MST"}}.</p>
<h2>Best configurations</h2>
<table>
<tr><th>pick<th>config<th>mean<th>runs
{{with .BestProducerThroughput}}<tr><td>producer highest throughput<td>{{.Key}}<td>{{mean . "throughput_mb"}}<td>{{.Count}}{{end}}
{{with .BestProducerLatency}}<tr><td>producer lowest latency<td>{{.Key}}<td>{{mean . "avg_latency_ms"}}<td>{{.Count}}{{end}}
{{with .BestConsumerThroughput}}<tr><td>consumer highest throughput<td>{{.Key}}<td>{{mean . "throughput_mb_sec"}}<td>{{.Count}}{{end}}
</table>
{{range $c := collections .}}{{if .Groups}}
<h2>{{.TestType}} configurations</h2>
<table>
<tr><th>config<th>runs{{range $c.Metrics}}<th>{{.}}{{end}}
{{range .Groups}}<tr><td>{{.Key}}<td>{{.Count}}{{$g := .}}{{range $c.Metrics}}<td>{{mean $g .}}{{end}}
{{end}}</table>
{{end}}{{end}}
{{end}}
{{with .Board}}{{if .Rows}}
<h2>Scoring ({{$.Objective}})</h2>
<table>
<tr><th>config<th>acks<th>MB/s<th>latency<th>throughput<th>latency<th>consistency<th>score<th>zone
{{range top . $.Top $.Objective}}<tr><td>{{key .}}<td>{{.Acks}}<td>{{num .ThroughputMB}}<td>{{num .AvgLatencyMS}}<td>{{num .ThroughputScore}}<td>{{num .LatencyScore}}<td>{{num .ConsistencyScore}}<td>{{score . $.Objective}}<td>{{.Zone}}
{{end}}</table>
{{end}}{{end}}
{{range .Breakdowns}}{{if .Levels}}
<h2>By {{.Dim}}</h2>
<table>
<tr><th>{{.Dim}}<th>runs<th>mean MB/s<th>mean latency ms<th>max MB/s
{{range .Levels}}<tr><td>{{.Value}}<td>{{.Runs}}<td>{{num .MeanThroughputMB}}<td>{{num .MeanLatencyMS}}<td>{{num .MaxThroughputMB}}
{{end}}</table>
{{end}}{{end}}
{{with .Heatmap}}{{if .Rows}}
<h2>{{.Metric}} by {{.RowDim}} and {{.ColDim}}</h2>
<table>
<tr><th>{{.RowDim}} \ {{.ColDim}}{{range .Cols}}<th>{{.}}{{end}}
{{range $i, $r := .Rows}}<tr><td>{{$r}}{{range index $.Heatmap.Cells $i}}<td>{{cell .}}{{end}}
{{end}}</table>
{{end}}{{end}}
{{with .Scaling}}{{if .Points}}
<h2>Producer scaling</h2>
<table>
<tr><th>producers<th>runs<th>MB/s<th>MB/s per producer<th>latency ms<th>efficiency %
{{range .Points}}<tr><td>{{.Producers}}<td>{{.Runs}}<td>{{num .ThroughputMB}}<td>{{num .PerProducerMB}}<td>{{num .LatencyMS}}<td>{{num .Efficiency}}
{{end}}</table>
{{with .Degradation}}<p>Per-producer throughput drops {{num .Percent}}% from {{num .SingleMB}} MB/s to {{num .PerProducerMultiMB}} MB/s at {{.MultiCount}} producers.</p>{{end}}
{{end}}{{end}}
{{range .Images}}<p><img src="{{.}}" alt="chart"></p>
{{end}}
</body>
</html>
`

type collectionView struct {
	*Collection
	Metrics []string
}

var htmlFuncs = template.FuncMap{
	"mean": func(g *Group, metric string) string {
		s := g.Stat(metric)
		if !s.Valid() {
			return "-"
		}
		return perfunit.Format(metric, s.Mean)
	},
	"collections": func(r *Report) []collectionView {
		return []collectionView{
			{r.Producer, trackedNames(ProducerMetrics)},
			{r.Consumer, trackedNames(ConsumerMetrics)},
		}
	},
	"top": func(b *perfscore.Board, n int, o perfscore.Objective) []*perfscore.Row {
		return b.Top(n, o)
	},
	"score": func(r *perfscore.Row, o perfscore.Objective) string {
		return fmt.Sprintf("%.2f", r.Score(o))
	},
	"key": func(r *perfscore.Row) string {
		return perfproc.GroupKey(r.Record.Config)
	},
	"num": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"cell": func(v float64) string {
		if math.IsNaN(v) {
			return "-"
		}
		return fmt.Sprintf("%.2f", v)
	},
}

var htmlTemplate = template.Must(template.New("report").Funcs(htmlFuncs).Parse(reportHTML))

func trackedNames(ts []Tracked) []string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.Name
	}
	return names
}

// FormatHTML writes p to w as a self-contained HTML page.
func FormatHTML(w io.Writer, p *Page) error {
	if p.Title == "" {
		p.Title = "Performance report"
	}
	return htmlTemplate.Execute(w, p)
}
