package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/battery-buddy/internal/logic"
	"github.com/sweeney/battery-buddy/internal/status"
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
	"volts":    logic.FormatVolts,
	"clock":    func(s logic.Status) string { return logic.FormatTime(s.Hours, s.Minutes, s.Seconds) },
	"running":  func(s logic.State) bool { return s == logic.StateDischarge || s == logic.StateFinished },
	"stateCls": stateClass,
}).Parse(indexHTML))

func stateClass(s logic.State) string {
	switch {
	case s == logic.StateDischarge:
		return "active"
	case s == logic.StateFinished:
		return "done"
	case s.Configuring():
		return "config"
	}
	return "idle"
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Battery Buddy</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.lcd { background: #9c3; color: #123; padding: 8px; font-size: 1.2em; white-space: pre; display: inline-block; }
.active { color: green; font-weight: bold; }
.done { color: blue; font-weight: bold; }
.config { color: orange; }
.idle { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Battery Buddy</h1>

<div class="lcd" id="lcd">{{range .LCD}}{{printf "%-16s" .}}
{{end}}</div>

<h2>State</h2>
<table>
<tr><th>State</th><td id="state" class="{{stateCls .State}}">{{.State}}</td></tr>
<tr><th>Mode</th><td>{{.Battery.Mode}}</td></tr>
<tr><th>Cells</th><td>{{.Battery.NumCells}} x {{.Battery.CellType}}</td></tr>
<tr><th>Target</th><td>{{.Battery.TargetCurrent}} mA</td></tr>
<tr><th>Cutoff</th><td>{{.Battery.CutoffVoltage}} mV</td></tr>
</table>

{{if running .State}}
<h2>Run</h2>
<table>
<tr><th>Voltage</th><td id="voltage">{{volts .Run.Voltage}} V</td></tr>
<tr><th>Current</th><td id="current">{{.Run.Current}} mA</td></tr>
<tr><th>Load</th><td>{{.Level}} / 1000</td></tr>
<tr><th>Capacity</th><td id="capacity">{{.Run.Capacity}} mAh</td></tr>
<tr><th>Elapsed</th><td>{{clock .Run}}</td></tr>
</table>
{{end}}

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}} - {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Runs finished</th><td>{{.RunsFinished}}</td></tr>
<tr><th>Sensor errors</th><td>{{.SensorErrors}}</td></tr>
<tr><th>Display</th><td>{{.Config.Display}}</td></tr>
<tr><th>Store</th><td>{{.Config.Store}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/lcd.txt">LCD</a></p>
<script>
(function() {
  var lcd = document.getElementById("lcd");
  var state = document.getElementById("state");
  function pad(s) { while (s.length < 16) { s += " "; } return s; }
  setInterval(function() {
    fetch("/index.json").then(function(r) { return r.json(); }).then(function(j) {
      lcd.textContent = j.status.lcd.map(pad).join("\n");
      if (state.textContent !== j.status.state) { location.reload(); }
    }).catch(function() {});
  }, 1000);
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
