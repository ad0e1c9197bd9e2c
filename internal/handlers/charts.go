package handlers

import (
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/pulverlogic/newsboard/internal/aggregate"
	"github.com/pulverlogic/newsboard/internal/auth"
	"github.com/pulverlogic/newsboard/internal/models"
)

// chartFilter reads subject, from and to.
func chartFilter(r *http.Request) (aggregate.Filter, error) {
	filter, err := dateFilter(r)
	if err != nil {
		return filter, err
	}
	if subject := strings.TrimSpace(r.URL.Query().Get("subject")); subject != "" {
		filter.Subjects = []string{subject}
	}
	return filter, nil
}

func (h *Handler) HandleCharts(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	if _, err := chartFilter(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	params := url.Values{}
	for _, key := range []string{"subject", "from", "to"} {
		if v := q.Get(key); v != "" {
			params.Set(key, v)
		}
	}

	h.render(w, r, http.StatusOK, "charts", page{
		Title: "Participation charts",
		Data: struct {
			Subjects          []string
			Subject, From, To string
			Render            template.URL
		}{
			h.service.Tagger.Subjects(),
			q.Get("subject"), q.Get("from"), q.Get("to"),
			template.URL("/charts/render?" + params.Encode()),
		},
	})
}

func (h *Handler) HandleRenderCharts(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	filter, err := chartFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logs, err := h.service.Logs(filter)
	if err != nil {
		logger.Error.Printf("Failed to load logs: %v", err)
		http.Error(w, "Failed to load logs", http.StatusInternalServerError)
		return
	}
	bonuses, err := h.service.Bonuses()
	if err != nil {
		logger.Error.Printf("Failed to load bonuses: %v", err)
		http.Error(w, "Failed to load bonuses", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderCharts(w, logs, filter.Bonuses(bonuses)); err != nil {
		logger.Error.Printf("Failed to render charts: %v", err)
	}
}

func renderCharts(w io.Writer, logs []models.LogEntry, bonuses []models.BonusEntry) error {
	page := components.NewPage()
	page.PageTitle = "PulverLogic participation"
	page.AddCharts(
		pointsChart(aggregate.Summarize(logs, bonuses)),
		subjectsChart(aggregate.SubjectCounts(logs)),
		dailyChart(aggregate.DailySubmissions(logs)),
	)
	return page.Render(w)
}

func pointsChart(summary []models.ScholarSummary) *charts.Bar {
	users := make([]string, 0, len(summary))
	regular := make([]opts.BarData, 0, len(summary))
	bonus := make([]opts.BarData, 0, len(summary))
	for _, s := range summary {
		users = append(users, s.User)
		regular = append(regular, opts.BarData{Value: s.RegularPoints})
		bonus = append(bonus, opts.BarData{Value: s.BonusPoints})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Points per scholar", Subtitle: "regular and bonus"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)
	bar.SetXAxis(users).
		AddSeries("Regular", regular, charts.WithBarChartOpts(opts.BarChart{Stack: "points"})).
		AddSeries("Bonus", bonus, charts.WithBarChartOpts(opts.BarChart{Stack: "points"}))
	return bar
}

func subjectsChart(counts []aggregate.Count) *charts.Pie {
	data := make([]opts.PieData, 0, len(counts))
	for _, c := range counts {
		data = append(data, opts.PieData{Name: c.Label, Value: c.Count})
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Subject mentions"}))
	pie.AddSeries("Subjects", data)
	return pie
}

func dailyChart(counts []aggregate.Count) *charts.Line {
	days := make([]string, 0, len(counts))
	data := make([]opts.LineData, 0, len(counts))
	for _, c := range counts {
		days = append(days, c.Label)
		data = append(data, opts.LineData{Value: c.Count})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Submissions per day"}))
	line.SetXAxis(days).AddSeries("Logs", data)
	return line
}
