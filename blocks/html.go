package blocks

import (
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"
)

var funcs = template.FuncMap{
	"css":            styleAttr,
	"isTitle":        is[TitleSection],
	"isDescription":  is[DescriptionSection],
	"isIngredients":  is[IngredientsSection],
	"isDirections":   is[DirectionsSection],
	"isCookingTime":  is[CookingTimeSection],
	"isNutrition":    is[NutritionSection],
	"isImage":        is[ImageSection],
	"isCustomHeader": is[CustomHeaderSection],
	"isCustomText":   is[CustomTextSection],
}

const pageText = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<article class="recipe">
{{range .Sections}}{{template "section" .}}
{{end}}</article>
</body>
</html>
`

const sectionText = `{{with .Section}}{{if isTitle .}}<h1 style="{{css .Style}}">{{.Title}}</h1>
{{- else if isDescription .}}<p class="description" style="{{css .Style}}">{{.Description}}</p>
{{- else if isIngredients .}}<ul class="ingredients" style="{{css .Style}}">{{range .Items}}<li>{{.Quantity}} {{.Unit}} {{.Name}}</li>{{end}}</ul>
{{- else if isDirections .}}<ol class="directions" style="{{css .Style}}">{{range .Steps}}<li value="{{.Step}}">{{.Instruction}}</li>{{end}}</ol>
{{- else if isCookingTime .}}<dl class="cooking-time" style="{{css .Style}}"><dt>Prep</dt><dd>{{.PrepMinutes}} min</dd><dt>Cook</dt><dd>{{.CookMinutes}} min</dd><dt>Total</dt><dd>{{.TotalMinutes}} min</dd></dl>
{{- else if isNutrition .}}<dl class="nutrition" style="{{css .Style}}"><dt>Calories</dt><dd>{{.Calories}}</dd><dt>Protein</dt><dd>{{.Protein}} g</dd><dt>Carbs</dt><dd>{{.Carbs}} g</dd><dt>Fat</dt><dd>{{.Fat}} g</dd></dl>
{{- else if isImage .}}{{if .Missing}}<figure class="image missing"></figure>{{else}}<img src="{{.URL}}" alt="" style="{{css .Style}}">{{end}}
{{- else if isCustomHeader .}}<h2 style="{{css .Style}}">{{.Text}}</h2>
{{- else if isCustomText .}}<p class="custom" style="{{css .Style}}">{{.Text}}</p>
{{- else}}<div class="unknown-block">Unknown Block: {{.Type}}</div>{{end}}{{end}}`

var pageTmpl = template.Must(template.Must(
	template.New("page").Funcs(funcs).Parse(pageText),
).New("section").Parse(sectionText))

func is[T Section](s Section) bool {
	_, ok := s.(T)
	return ok
}

func styleAttr(style map[string]string) template.CSS {
	if len(style) == 0 {
		return ""
	}
	keys := make([]string, 0, len(style))
	for k := range style {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		v := style[k]
		if strings.ContainsAny(k+v, ";{}<>\"") {
			continue
		}
		fmt.Fprintf(&b, "%s:%s;", cssName(k), v)
	}
	return template.CSS(b.String())
}

// cssName turns fontSize into font-size.
func cssName(k string) string {
	var b strings.Builder
	for i, r := range k {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// WriteHTML renders a layout as a standalone HTML page.
func WriteHTML(w io.Writer, title string, sections []Rendered) error {
	return pageTmpl.ExecuteTemplate(w, "page", struct {
		Title    string
		Sections []Rendered
	}{Title: title, Sections: sections})
}
