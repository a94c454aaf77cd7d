package view

import (
	"bytes"
	"html/template"
)

// WidgetPageData provides the dynamic fields required by the widget template.
type WidgetPageData struct {
	HasTimer       bool
	Title          string
	Message        string
	Background     string
	TextColor      string
	Size           string
	Position       string
	UrgencyDisplay string
	EndTimeMillis  int64
	UrgencyMinutes int
}

var widgetPageTmpl = template.Must(template.New("widget_page").Parse(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<title>{{if .Title}}{{.Title}}{{else}}Countdown{{end}}</title>
	<style>
		body {
			margin: 0;
			font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
		}
		.countdown-wrapper {
			display: inline-block;
			padding: 12px 18px;
			border-radius: 10px;
			box-shadow: 0 6px 18px rgba(0,0,0,0.08);
			background: {{.Background}};
			color: {{.TextColor}};
		}
		.countdown-wrapper.size-small .countdown-digits { font-size: 14px; }
		.countdown-wrapper.size-medium .countdown-digits { font-size: 18px; }
		.countdown-wrapper.size-large .countdown-digits { font-size: 26px; }
		.countdown-title {
			font-size: 12px;
			margin-bottom: 8px;
		}
		.countdown-message {
			font-size: 12px;
			margin-top: 8px;
			opacity: 0.85;
		}
		.countdown-digits {
			font-weight: 700;
		}
		.countdown-wrapper.is-urgent {
			transform: scale(1.02);
		}
		.countdown-wrapper.is-urgent.urgency-color_pulse .countdown-digits {
			animation: countdown-pulse 1s infinite;
		}
		@keyframes countdown-pulse {
			0%, 100% { opacity: 1; }
			50% { opacity: 0.55; }
		}
		.countdown-placeholder { display: none; }
	</style>
</head>
<body>
{{if .HasTimer}}
	<div id="countdown" class="countdown-wrapper size-{{.Size}} urgency-{{.UrgencyDisplay}}">
		<div class="countdown-title">{{if .Title}}{{.Title}}{{else}}{{.Message}}{{end}}</div>
		<div id="countdown-digits" class="countdown-digits">--:--</div>
		{{if and .Title .Message}}<div class="countdown-message">{{.Message}}</div>{{end}}
	</div>
	<script>
		(function () {
			const end = {{.EndTimeMillis}};
			const urgencyMs = {{.UrgencyMinutes}} * 60 * 1000;
			const wrapper = document.getElementById("countdown");
			const digits = document.getElementById("countdown-digits");

			function format(ms) {
				const total = Math.max(0, Math.floor(ms / 1000));
				const hh = Math.floor(total / 3600);
				const mm = Math.floor((total % 3600) / 60);
				const ss = total % 60;
				const pad = (n) => String(n).padStart(2, "0");
				if (hh > 0) return pad(hh) + ":" + pad(mm) + ":" + pad(ss);
				return pad(mm) + ":" + pad(ss);
			}

			function tick() {
				const remain = end - Date.now();
				if (remain <= 0) {
					digits.textContent = "00:00";
					clearInterval(iv);
					return;
				}
				digits.textContent = format(remain);
				// Recomputed every tick, never latched.
				if (urgencyMs > 0 && remain <= urgencyMs) {
					wrapper.classList.add("is-urgent");
				} else {
					wrapper.classList.remove("is-urgent");
				}
			}

			tick();
			const iv = setInterval(tick, 1000);
		})();
	</script>
{{else}}
	<div class="countdown-placeholder"></div>
{{end}}
</body>
</html>
`))

// RenderWidgetPage expands the widget page template with the provided data.
func RenderWidgetPage(data WidgetPageData) (string, error) {
	var buf bytes.Buffer
	if err := widgetPageTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
