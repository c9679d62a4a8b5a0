package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/people-detector/internal/logic"
	"github.com/sweeney/people-detector/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>People Detector</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.current { color: green; font-weight: bold; }
.idle { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>People Detector</h1>

<h2>Sequence</h2>
<table>
{{range .Cycle}}
<tr><th>{{.Name}}</th><td class="{{if .Current}}current{{else}}idle{{end}}">{{if .Current}}&#9654; current{{end}}</td></tr>
{{end}}
<tr><th>Last event</th><td>{{.LastEvent}}</td></tr>
<tr><th>Wait</th><td>{{if .Waiting}}{{.WaitMs}}ms armed{{else}}pin only{{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>Transition Counts</h2>
<table>
<tr><th>Triggers</th><td>{{.Counts.Triggers}}</td></tr>
<tr><th>Time expiries</th><td>{{.Counts.TimeExpiries}}</td></tr>
<tr><th>Resets</th><td>{{.Counts.Resets}}</td></tr>
<tr><th>Completed cycles</th><td>{{.Counts.Cycles}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

type cycleRow struct {
	Name    string
	Current bool
}

func renderHTML(w io.Writer, snap status.Snapshot) {
	cycle := make([]cycleRow, logic.NumStates)
	for i := 0; i < logic.NumStates; i++ {
		cycle[i] = cycleRow{
			Name:    logic.State(i).String(),
			Current: logic.State(i) == snap.State,
		}
	}
	data := struct {
		status.Snapshot
		Cycle  []cycleRow
		Uptime time.Duration
	}{
		Snapshot: snap,
		Cycle:    cycle,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
