package pages

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/eslintcraft/internal/catalog"
	"github.com/leapstack-labs/eslintcraft/internal/fetch"
	"github.com/leapstack-labs/eslintcraft/internal/layout"
	"github.com/leapstack-labs/eslintcraft/internal/session"
	"github.com/leapstack-labs/eslintcraft/internal/ui/resources"
	"github.com/leapstack-labs/eslintcraft/pkg/eslint"
)

// User-visible fetch failures. The underlying error is logged, not shown.
const (
	FailedRules    = "Failed to fetch ESLint rules"
	FailedVersions = "Failed to fetch ESLint versions"
	NoDescription  = "No description available"
)

// Element ids targeted by SSE patches.
const (
	WizardID   = "wizard"
	RuleListID = "rule-list"
	PreviewID  = "preview-panel"
)

// WizardPage renders the full HTML document.
func WizardPage(title string, v session.View) templ.Component {
	return component(func(w *writer) {
		w.raw("<!doctype html>")
		w.open("html", "lang", "en")
		w.open("head")
		w.raw(`<meta charset="utf-8">`, `<meta name="viewport" content="width=device-width, initial-scale=1">`)
		w.element("title", title+" - eslintcraft")
		w.open("link", "rel", "stylesheet", "href", resources.StylesheetPath)
		w.open("script", "type", "module", "src", resources.DatastarScript)
		w.close("script")
		w.close("head")

		w.open("body",
			"data-signals", initialSignals(v.Query),
			"data-init", measureExpr,
			"data-on:resize__window__debounce.200ms", measureExpr,
		)

		w.open("header", "id", "app-header")
		w.element("h1", "ESLint Config Wizard")
		w.close("header")

		w.open("main", "data-init", "@get('/updates')")
		writeWizard(w, v)
		w.close("main")

		w.open("footer", "id", "app-footer")
		w.text("Rule metadata is scraped from upstream sources and may be incomplete.")
		w.close("footer")

		w.close("body")
		w.close("html")
	})
}

// Wizard renders the morphable wizard body.
func Wizard(v session.View) templ.Component {
	return component(func(w *writer) { writeWizard(w, v) })
}

// RuleList renders the visible rules and paging controls.
func RuleList(v session.View) templ.Component {
	return component(func(w *writer) { writeRuleList(w, v) })
}

// Preview renders the generated config.
func Preview(v session.View) templ.Component {
	return component(func(w *writer) { writePreview(w, v) })
}

const measureExpr = "$pageHeight = window.innerHeight; " +
	"$headerHeight = document.getElementById('app-header').offsetHeight; " +
	"$footerHeight = document.getElementById('app-footer').offsetHeight; " +
	"@post('/layout')"

func initialSignals(q catalog.Query) string {
	plugin := q.Plugin
	if plugin == "" {
		plugin = catalog.AllPlugins
	}
	b, _ := json.Marshal(map[string]any{
		"search":       q.Text,
		"plugin":       plugin,
		"pageHeight":   0,
		"headerHeight": 0,
		"footerHeight": 0,
	})
	return string(b)
}

func post(path string, query url.Values) string {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return fmt.Sprintf("@post('%s')", path)
}

func writeWizard(w *writer, v session.View) {
	w.open("div", "id", WizardID)

	w.open("div")
	writeLanguages(w, v.Selection.Language)
	writeFrameworks(w, v.Selection.Framework)
	writeVersions(w, v)
	writeRules(w, v)
	w.close("div")

	writePreview(w, v)

	w.close("div")
}

func writeLanguages(w *writer, selected eslint.Language) {
	w.open("section", "class", "panel", "id", "language-panel")
	w.element("h2", "Language")
	w.open("div", "class", "choices")
	for _, l := range eslint.Languages() {
		w.element("button", l.Label(),
			"class", classes("choice", when(l == selected, "selected")),
			"data-on:click", post("/select/language", url.Values{"value": {string(l)}}),
		)
	}
	w.close("div")
	w.close("section")
}

func writeFrameworks(w *writer, selected eslint.Framework) {
	w.open("section", "class", "panel", "id", "framework-panel")
	w.element("h2", "Framework")
	w.open("div", "class", "choices")
	for _, f := range eslint.Frameworks() {
		w.element("button", string(f),
			"class", classes("choice", when(f == selected, "selected")),
			"data-on:click", post("/select/framework", url.Values{"value": {string(f)}}),
		)
	}
	w.close("div")
	w.close("section")
}

func writeVersions(w *writer, v session.View) {
	w.open("section", "class", "panel", "id", "version-panel")
	w.element("h2", "ESLint version")

	current := v.Selection.ToolVersion
	if v.PendingVersion != "" {
		current = v.PendingVersion
	}

	w.open("select", "id", "version-select",
		"data-on:change", "@post('/select/version?value=' + encodeURIComponent(evt.target.value))")
	w.element("option", "Select a version", "value", "", when(current == "", "selected"), "")
	for _, ver := range v.Versions {
		w.element("option", ver, "value", ver, when(ver == current, "selected"), "")
	}
	w.close("select")

	if v.VersionsErr != "" {
		w.element("p", FailedVersions, "class", "notice error")
	}
	switch v.Status {
	case session.StatusLoading:
		w.element("p", "Loading rules for ESLint v"+v.PendingVersion+"...", "class", "notice")
	case session.StatusErrored:
		w.element("p", FailedRules, "class", "notice error")
	case session.StatusPopulated:
		w.element("p", fmt.Sprintf("Showing rules of ESLint v%s", v.Selection.ToolVersion), "class", "notice")
	}
	w.close("section")
}

func writeRules(w *writer, v session.View) {
	w.open("section", "class", "panel", "id", "rules-panel")
	w.element("h2", "Rules")

	w.open("div", "class", "choices")
	w.open("input", "type", "search", "placeholder", "Search rules",
		"data-bind:search", "",
		"data-on:input", "@post('/rules/search')")
	w.open("select", "data-bind:plugin", "", "data-on:change", "@post('/rules/search')")
	w.element("option", "All categories", "value", catalog.AllPlugins,
		when(v.Query.Plugin == catalog.AllPlugins, "selected"), "")
	for _, c := range v.Catalog.Categories() {
		w.element("option", c, "value", c, when(v.Query.Plugin == c, "selected"), "")
	}
	w.close("select")
	w.close("div")

	writeRuleList(w, v)
	w.close("section")
}

func writeRuleList(w *writer, v session.View) {
	style := ""
	if v.PanelHeight > 0 {
		style = "max-height: " + layout.CSS(v.PanelHeight)
	}
	w.open("div", "id", RuleListID, "class", "scroll", when(style != "", "style"), style)

	if v.Catalog.Len() == 0 {
		w.element("p", "No rules loaded yet.", "class", "notice")
	} else if len(v.Page.Rules) == 0 {
		w.element("p", "No rules match the search.", "class", "notice")
	}

	for _, r := range v.Page.Rules {
		writeRule(w, v, r)
	}

	if v.Page.Total > 0 {
		w.element("p", fmt.Sprintf("Showing %d of %d rules", len(v.Page.Rules), v.Page.Total), "class", "notice")
	}
	if v.Page.HasMore() {
		w.element("button", "Load more", "class", "choice", "data-on:click", "@post('/rules/more')")
	}
	w.close("div")
}

func writeRule(w *writer, v session.View, r catalog.Rule) {
	w.open("div", "class", "rule")

	w.open("div")
	w.element("div", r.Name, "class", "rule-name")
	desc := r.Description
	if desc == "" || desc == fetch.StubDescription {
		desc = NoDescription
	}
	w.element("div", desc, "class", "rule-desc")
	w.element("span", r.Category, "class", "badge")
	if also := v.Catalog.AlsoIn(r.Name); len(also) > 0 {
		w.raw(" ")
		w.element("span", "also in: "+strings.Join(also, ", "), "class", "badge also-in")
	}
	w.close("div")

	current, set := v.Selection.Rules[r.Name]
	w.open("div", "class", "severity")
	for _, sev := range eslint.Severities() {
		active := set && current == sev
		value := string(sev)
		if active {
			value = ""
		}
		w.element("button", string(sev),
			"class", classes(string(sev), when(active, "active")),
			"data-on:click", post("/rules/severity", url.Values{"rule": {r.Name}, "value": {value}}),
		)
	}
	w.close("div")

	w.close("div")
}

func writePreview(w *writer, v session.View) {
	w.open("section", "class", "panel", "id", PreviewID)
	w.element("h2", eslint.FormatJSON.Filename())

	text, err := eslint.Generate(v.Selection, eslint.FormatJSON)
	if err != nil {
		w.element("p", "Could not render config: "+err.Error(), "class", "notice error")
	} else {
		w.element("pre", text, "id", "preview")
	}

	w.open("div", "class", "actions")
	w.element("a", "Download JSON", "href", "/export?format=json", "download", "")
	w.element("a", "Download YAML", "href", "/export?format=yaml", "download", "")
	w.close("div")
	w.close("section")
}
