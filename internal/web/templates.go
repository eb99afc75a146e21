package web

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jaminalder/tictactoe-rounds/internal/app"
	"github.com/jaminalder/tictactoe-rounds/internal/domain"
)

const playerCookie = "player_id"

type templates struct {
	base  *template.Template
	game  *template.Template
	index *template.Template
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"cellSymbol": func(c domain.Cell) string {
			return strings.ToUpper(c.String())
		},
		"otherMode": func(m domain.Mode) string { return string(m.Other()) },
	}
}

func loadTemplates() *templates {
	base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Tic Tac Toe</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
<style>` + stylesheet + `</style>
</head><body>{{template "content" .}}</body></html>`))
	// Fragments live in the same set so pages can include them
	template.Must(base.New("board").Parse(boardTemplate))
	template.Must(base.New("scoreboard").Parse(scoreboardTemplate))

	index := template.Must(template.Must(base.Clone()).New("content").Parse(
		`<h1>Tic Tac Toe</h1><form action="/session" method="post"><button>New game</button></form>`))
	game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<div hx-ext="sse" hx-sse="connect:/session/{{.ID}}/events">
  <div id="scoreboard-slot" hx-sse="swap:scoreboard">{{template "scoreboard" .}}</div>
  <div id="board-slot" hx-sse="swap:board">{{template "board" .}}</div>
</div>
<script>
document.body.addEventListener("animationend", function (e) {
  if (e.pseudoElement) return;
  var cell = e.target.closest("[data-transition]");
  if (!cell) return;
  var url = cell.getAttribute("data-transition");
  cell.removeAttribute("data-transition");
  fetch(url, {method: "POST"});
});
</script>`))
	return &templates{base: base, game: game, index: index}
}

// viewData is what the page and fragment templates render.
type viewData struct {
	ID    string
	Frame app.Frame
}

func renderTemplate(t *template.Template, name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	if name == "" {
		err = t.Execute(&buf, data)
	} else {
		err = t.ExecuteTemplate(&buf, name, data)
	}
	return buf.Bytes(), err
}

const boardTemplate = `<div id="board" class="board">
  {{range $i, $c := .Frame.Cells}}
  <button class="cell {{$c.Mark}}{{if $c.Win}} cell--win{{end}}{{if $c.Lose}} cell--lose{{end}}{{if $c.Tie}} cell--tie{{end}}{{if eq $i $.Frame.Fresh}} cell--fresh{{end}}"
    hx-post="/session/{{$.ID}}/cells/{{$i}}" hx-swap="none"
    {{if eq $i $.Frame.Fresh}}data-transition="/session/{{$.ID}}/cells/{{$i}}/transitionend"{{end}}>{{cellSymbol $c.Mark}}</button>
  {{end}}
</div>`

const scoreboardTemplate = `<div id="scoreboard" class="scoreboard">
  {{with .Frame.Scoreboard}}
  <span class="mode">{{.Mode}}</span>
  {{range .Players}}
  <span class="score score--{{.Mark}}">{{.Name}} ({{cellSymbol .Mark}}): {{.Wins}}</span>
  {{end}}
  <span class="score score--ties">ties: {{.Ties}}</span>
  <button hx-post="/session/{{$.ID}}/mode" hx-target="#scoreboard-slot" hx-swap="innerHTML">switch to {{otherMode .Mode}}</button>
  {{end}}
</div>`

const stylesheet = `
.board { display: grid; grid-template-columns: repeat(3, 6rem); gap: .25rem; }
.cell { height: 6rem; font-size: 3rem; }
.cell--fresh { animation: place .4s ease-out; }
.cell--win { background: #c8f7c5; }
.cell--lose { opacity: .4; }
.cell--tie { background: #eee; }
@keyframes place { from { transform: scale(.2); } to { transform: scale(1); } }
`

// ensurePlayerCookie returns the player id, issuing one when the request has none.
func ensurePlayerCookie(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookie); err == nil && c.Value != "" {
		return c.Value
	}
	v := uuid.NewString()
	http.SetCookie(w, &http.Cookie{Name: playerCookie, Value: v, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	return v
}
