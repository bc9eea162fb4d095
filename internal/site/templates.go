package site

import "html/template"

// Templates are deliberately plain scaffolding; navigation and theming are
// out of scope here.

const baseCSS = `
body { max-width: 42rem; margin: 2rem auto; padding: 0 1rem; font-family: system-ui, sans-serif; line-height: 1.6; }
.draft-banner { background: #fef9c3; border-left: 4px solid #eab308; padding: 1rem; margin-bottom: 2rem; }
.unsupported-block { color: #991b1b; }
.comment { background: #f9fafb; border-radius: 8px; padding: .75rem; margin: .5rem 0; }
.comment .meta { font-size: .85rem; color: #6b7280; }
.comment-thread { border-left: 2px solid #bfdbfe; margin-left: 1rem; padding-left: 1rem; }
.highlight-excerpt { background: #f3f4f6; padding: .5rem; border-radius: 6px; font-size: .9rem; }
.bold { font-weight: 700; } .italic { font-style: italic; }
.strikethrough { text-decoration: line-through; } .underline { text-decoration: underline; }
.code { font-family: monospace; background: #f3f4f6; padding: 0 .2rem; }
`

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.SiteTitle}}</title>
<style>` + baseCSS + `</style>
</head>
<body>
<h1>{{.SiteTitle}}</h1>
<ul>
{{range .Posts}}
<li><a href="/{{.Slug}}">{{.Title}}</a>{{if not .Published.IsZero}} <small>{{.Published.Format "Jan 02, 2006"}}</small>{{end}}</li>
{{end}}
</ul>
</body>
</html>
`))

var postTemplate = template.Must(template.New("post").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Page.Title}}</title>
<meta property="og:title" content="{{.Page.Title}}">
<style>` + baseCSS + `</style>
</head>
<body>
<article>
<h1>{{.Page.Title}}</h1>
{{if not .Page.Published.IsZero}}<div class="meta">{{.Page.Published.Format "Jan 02, 2006"}}</div>{{end}}
<section>
{{.Content}}
</section>
<p><a href="/">&larr; Go home</a></p>
</article>
</body>
</html>
`))

var draftTemplate = template.Must(template.New("draft").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Page.Title}}</title>
<meta name="robots" content="noindex, nofollow">
<style>` + baseCSS + `</style>
</head>
<body>
<div class="draft-banner"><strong>Draft Preview:</strong> This is a preview of a draft post. Comments and feedback are welcome.</div>
<article>
<h1>{{.Page.Title}}</h1>
{{range .Blocks}}
<div class="block" data-block-id="{{.ID}}">
{{.HTML}}
{{if .Segments}}
<div class="highlight-excerpt">{{range .Segments}}{{if .Highlighted}}<mark style="background:{{.Color}}40">{{.Text}}</mark>{{else}}{{.Text}}{{end}}{{end}}</div>
{{end}}
{{if .Comments}}
<div class="comment-thread">
{{range .Comments}}
<div class="comment">
<div class="meta">{{.AuthorName}} &middot; {{.CreatedAt.Format "Jan 02, 2006 15:04"}}</div>
<div>{{.ContentHTML}}</div>
{{range .Replies}}
<div class="comment">
<div class="meta">{{.AuthorName}} &middot; {{.CreatedAt.Format "Jan 02, 2006 15:04"}}</div>
<div>{{.ContentHTML}}</div>
</div>
{{end}}
</div>
{{end}}
</div>
{{end}}
</div>
{{end}}
</article>
</body>
</html>
`))
