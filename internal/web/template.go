package web

import (
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/sweeney/irrigation-guard/internal/sensor"
	"github.com/sweeney/irrigation-guard/internal/status"
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
	"values": formatValues,
	"ago": func(now time.Time, r *sensor.Reading) string {
		if r == nil {
			return ""
		}
		return now.Sub(r.Timestamp).Truncate(time.Second).String() + " ago"
	},
}).Parse(indexHTML))

// formatValues renders a reading as "k=v" pairs in key order.
func formatValues(r *sensor.Reading) string {
	if r == nil {
		return "no reading"
	}
	keys := make([]string, 0, len(r.Values))
	for k := range r.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, r.Values[k])
	}
	return strings.Join(parts, " ")
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Irrigation Guard</title>
<style>
body { font-family: monospace; max-width: 760px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.ok { color: green; }
.armed { color: red; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Irrigation Guard</h1>

<h2>Monitors</h2>
<table>
<tr><th>Monitor</th><th>State</th><th>Last reading</th><th>Failures</th><th>Actions</th></tr>
{{range .Monitors}}<tr id="monitor-{{.Name}}">
<td>{{.Name}}</td>
<td>{{if not .State.Enabled}}<span class="off">disabled</span>{{else if .State.ActionArmed}}<span class="armed">ACTION</span>{{else}}<span class="ok">ok</span>{{end}}</td>
<td>{{values .State.LastReading}} {{ago $.Now .State.LastReading}}</td>
<td>{{.State.ConsecutiveFailures}}{{if .State.LastError}} ({{.State.LastError}}){{end}}</td>
<td>{{.State.Actions}}</td>
</tr>
{{else}}<tr><td colspan="5">no monitors running</td></tr>
{{end}}</table>

<h2>Scheduler</h2>
<table>
<tr><th>Scheduling</th><td class="{{if .SchedulerEnabled}}ok{{else}}armed{{end}}">{{if .SchedulerEnabled}}enabled{{else}}disabled by safety stop{{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
{{if .Config.ConfigPath}}<tr><th>Config</th><td>{{.Config.ConfigPath}}</td></tr>{{end}}
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
