package article

import (
	"bytes"
	"html/template"
)

var pageTemplate = template.Must(template.New("article").Parse(`<html>
  <head>
    <title>{{.Title}}</title>
    <style>
      body { font-family: Arial, sans-serif; margin: 40px; line-height: 1.6; }
      h1 { color: #2c3e50; border-bottom: 2px solid #3498db; padding-bottom: 10px; }
      .category { color: #7f8c8d; font-style: italic; }
      .content { margin-top: 20px; }
    </style>
  </head>
  <body>
    <h1>{{.Title}}</h1>
    <p class="category">Category: {{.Category}}</p>
    <div class="content">
      <p>{{.Content}}</p>
    </div>
    <hr>
    <p><em>Shared from Men's Health Platform</em></p>
  </body>
</html>
`))

// RenderHTML renders a printable page. Article fields are escaped.
func RenderHTML(a Article) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, a); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
