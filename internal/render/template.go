package render

// PageTemplate is the HTML template for the dashboard page.
const PageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<link rel="stylesheet" href="/static/style.css">
</head>
<body data-version="{{.Version}}">
<div class="page">
{{if .ListError}}
  <section id="list-error" class="error-page">
    <h1>Error Loading Data</h1>
    <p class="muted">{{.ListError}}</p>
    <form method="post" action="/refresh">
      <button type="submit" class="btn btn-primary">Try Again</button>
    </form>
  </section>
{{else}}
  <header class="header">
    <div>
      <h1>{{.Title}}</h1>
      <p class="muted">Real-time cryptocurrency prices and market data</p>
    </div>
    <div class="header-right">
      <form method="post" action="/refresh">
        <button type="submit" class="btn btn-outline{{if .ListLoading}} spinning{{end}}"{{if .ListLoading}} disabled{{end}}>Refresh</button>
      </form>
      {{if .LastUpdated}}<p id="last-updated" class="muted">Last updated: {{.LastUpdated}}</p>{{end}}
    </div>
  </header>

  <section id="chart" class="card chart-card">
    <div class="chart-header">
      <div class="chart-asset">
        {{with .Selected}}
        <img src="{{.Image}}" alt="{{.Name}}" class="coin-icon">
        <div>
          <h2>{{.Name}} Price Chart</h2>
          <p class="muted">{{.Price}} <span class="change {{if .Up}}up{{else}}down{{end}}">{{.Change}}</span></p>
        </div>
        {{end}}
      </div>
      <div class="chart-modes">
        <form method="post" action="/mode/line">
          <button type="submit" class="btn {{if eq .Mode "line"}}btn-primary active{{else}}btn-outline{{end}}" data-mode="line">Line</button>
        </form>
        <form method="post" action="/mode/candlestick">
          <button type="submit" class="btn {{if eq .Mode "candlestick"}}btn-primary active{{else}}btn-outline{{end}}" data-mode="candlestick">Candlestick</button>
        </form>
      </div>
    </div>
    {{if .ShowNotice}}
    <div id="chart-notice" class="notice">
      <p>Chart data unavailable from API. Showing simulated data based on current price.</p>
      <form method="post" action="/notice/dismiss">
        <button type="submit" class="notice-close" aria-label="Dismiss">&times;</button>
      </form>
    </div>
    {{end}}
    {{if .ChartLoading}}
    <div id="chart-loading" class="chart-loading">Loading chart data...</div>
    {{else}}
    <div id="chart-body" class="chart-body" data-source="{{.ChartSource}}">{{.ChartSVG}}</div>
    {{end}}
  </section>

  <section id="assets" class="grid">
  {{if .ListLoading}}
    {{range .Skeletons}}
    <div class="card skeleton-card">
      <div class="skeleton skeleton-icon"></div>
      <div class="skeleton skeleton-line w16"></div>
      <div class="skeleton skeleton-line w12"></div>
      <div class="skeleton skeleton-line w20"></div>
      <div class="skeleton skeleton-line w24"></div>
    </div>
    {{end}}
  {{else}}
    {{range .Cards}}
    <form method="post" action="/select/{{.ID}}" class="card-form">
      <button type="submit" class="card asset-card{{if .Selected}} selected{{end}}" data-id="{{.ID}}">
        <div class="asset-head">
          <img src="{{.Image}}" alt="{{.Name}}" class="coin-icon">
          <div>
            <h3 class="asset-name">{{.Name}}</h3>
            <p class="asset-symbol muted">{{.Symbol}}</p>
          </div>
          <span class="badge">#{{.Rank}}</span>
        </div>
        <p class="asset-price">{{.Price}}</p>
        <p class="asset-change {{if .Up}}up{{else}}down{{end}}"><span class="trend">{{if .Up}}&#9650;{{else}}&#9660;{{end}}</span> {{.Change}} <span class="muted">24h</span></p>
        <dl class="asset-stats">
          <div><dt>Market Cap</dt><dd class="market-cap">{{.MarketCap}}</dd></div>
          <div><dt>Volume 24h</dt><dd class="volume">{{.Volume}}</dd></div>
        </dl>
      </button>
    </form>
    {{end}}
  {{end}}
  </section>
{{end}}
</div>
<script src="/static/app.js" defer></script>
</body>
</html>
`
