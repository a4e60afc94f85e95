package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/KoryJCampbell/modelcard/internal/card"
	"github.com/KoryJCampbell/modelcard/internal/schema"
)

// markdownConverter renders GFM. Raw HTML in card values is not passed
// through.
var markdownConverter = goldmark.New(goldmark.WithExtensions(extension.GFM))

const htmlHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.5; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.25rem 0.5rem; text-align: left; }
h2 { border-bottom: 1px solid #ddd; }
</style>
</head>
<body>
<main>
`

const htmlFoot = `</main>
</body>
</html>
`

// HTML renders c by converting its Markdown rendering, so both formats
// share section order, field order and the placeholder policy.
func HTML(c *card.Card, s *schema.Schema) ([]byte, error) {
	var body bytes.Buffer
	if err := markdownConverter.Convert([]byte(Markdown(c, s)), &body); err != nil {
		return nil, fmt.Errorf("render: html convert: %w", err)
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, htmlHead, html.EscapeString("Model Card: "+title(c)))
	out.Write(body.Bytes())
	out.WriteString(htmlFoot)
	return out.Bytes(), nil
}
