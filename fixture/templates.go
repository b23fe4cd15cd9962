package fixture

import "html/template"

// The #main children are positional: the suite addresses the pagination bar
// as div[1]/div/div[2], the empty-query message as div[2]/p and the
// no-results heading as div[3]/div/h1.
const layoutTemplate = `
{{define "head"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 0; }
.card-grid-inner { display: flex; flex-wrap: wrap; }
.card-grid-item { width: 220px; margin: 6px; }
.card-grid-item-card { display: block; padding: 8px; border: 1px solid #ccc; border-radius: 6px; }
.button-n { margin-right: 8px; }
.button-n.disabled { color: #999; }
</style>
</head>
<body>
<header><a href="/">Card Search</a></header>
{{end}}

{{define "foot"}}</body>
</html>
{{end}}

{{define "order"}}<form method="get" action="/search">
<input type="hidden" name="q" value="{{.Query}}">
<select id="order" name="order" onchange="this.form.submit()">
{{range .Orders}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
{{end}}</select>
</form>{{end}}

{{define "home"}}{{template "head" .}}
<div id="main">
<div class="homepage">
<h1>Search for cards</h1>
<form method="get" action="/search" id="search-form">
<input id="q" name="q" type="text" autocomplete="off" placeholder="Search for cards by name">
</form>
</div>
</div>
{{template "foot" .}}{{end}}

{{define "results"}}{{template "head" .}}
<div id="main">
<div class="search-controls">
<div class="search-controls-inner">
<div class="search-controls-display-options">{{template "order" .}}</div>
<div class="search-controls-pagination">
{{range .Pager}}{{if .Href}}<a class="button-n" href="{{.Href}}">{{.Label}}</a>{{else}}<span class="button-n disabled">{{.Label}}</span>{{end}}
{{end}}</div>
</div>
</div>
<div class="search-info"><p>{{.From}} – {{.To}} of {{.Total}} cards where the name includes “{{.Query}}”</p></div>
<div class="card-grid">
<div class="card-grid-inner">
{{range .Cards}}<div class="card-grid-item"><a class="card-grid-item-card" href="/card/{{.SetCode}}/{{.CollectorNumber}}" title="{{.Name}}"><span class="card-grid-item-name">{{.Name}}</span></a></div>
{{end}}</div>
</div>
<div class="search-controls search-controls-bottom">{{template "order" .}}</div>
</div>
{{template "foot" .}}{{end}}

{{define "nocards"}}{{template "head" .}}
<div id="main">
<div class="search-controls"><div class="search-controls-inner"></div></div>
<div class="search-info"><p>0 cards where the name includes “{{.Query}}”</p></div>
<div class="search-empty">
<div class="inner-flex">
<h1>No cards found</h1>
<p>Your query didn’t match any cards. Adjust your search terms or refer to the syntax guide.</p>
</div>
</div>
</div>
{{template "foot" .}}{{end}}

{{define "emptyquery"}}{{template "head" .}}
<div id="main">
<div class="search-controls"><div class="search-controls-inner"></div></div>
<div class="search-empty-query">
<p>You didn't enter anything to search for.</p>
</div>
</div>
{{template "foot" .}}{{end}}
`

var pages = template.Must(template.New("fixture").Parse(layoutTemplate))

type orderOption struct {
	Value    string
	Label    string
	Selected bool
}

type pagerLink struct {
	Label string
	Href  string // empty renders a disabled span
}

type pageView struct {
	Title     string
	Query     string
	Orders    []orderOption
	Pager     []pagerLink
	Cards     []Card
	Total     int64
	From, To  int
	Page      int
	PageCount int
}
