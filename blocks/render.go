package blocks

import (
	"recipeshare_backend/models"
)

// Section is the rendered form of one block. The concrete types below form a
// closed set; Render produces UnknownSection for anything it does not know.
type Section interface {
	section()
}

type TitleSection struct {
	Title string            `json:"title"`
	Style map[string]string `json:"style,omitempty"`
}

type DescriptionSection struct {
	Description string            `json:"description"`
	Style       map[string]string `json:"style,omitempty"`
}

type IngredientsSection struct {
	Items []models.Ingredient `json:"items"`
	Style map[string]string   `json:"style,omitempty"`
}

type DirectionsSection struct {
	Steps []models.Direction `json:"steps"`
	Style map[string]string  `json:"style,omitempty"`
}

type CookingTimeSection struct {
	models.CookingTime
	Style map[string]string `json:"style,omitempty"`
}

type NutritionSection struct {
	models.Nutrition
	Style map[string]string `json:"style,omitempty"`
}

type ImageSection struct {
	Index   int               `json:"index"`
	Key     string            `json:"key,omitempty"`
	URL     string            `json:"url,omitempty"`
	Missing bool              `json:"missing"`
	Style   map[string]string `json:"style,omitempty"`
}

type CustomHeaderSection struct {
	Text  string            `json:"text"`
	Style map[string]string `json:"style,omitempty"`
}

type CustomTextSection struct {
	Text  string            `json:"text"`
	Style map[string]string `json:"style,omitempty"`
}

// UnknownSection stands in for a block whose type is outside the vocabulary.
type UnknownSection struct {
	Type    Type   `json:"type"`
	Message string `json:"message"`
}

func (TitleSection) section()        {}
func (DescriptionSection) section()  {}
func (IngredientsSection) section()  {}
func (DirectionsSection) section()   {}
func (CookingTimeSection) section()  {}
func (NutritionSection) section()    {}
func (ImageSection) section()        {}
func (CustomHeaderSection) section() {}
func (CustomTextSection) section()   {}
func (UnknownSection) section()      {}

// Rendered pairs a block with its section.
type Rendered struct {
	ID      string  `json:"id"`
	Type    Type    `json:"type"`
	Known   bool    `json:"known"`
	Section Section `json:"data"`
}

// ImageURLFunc maps a stored image key to a URL a client can load.
type ImageURLFunc func(key string) string

// Render maps each block to its section in order. Unknown block types render
// as placeholders so a single bad block never takes down the page.
func Render(r *models.Recipe, list []Block, imageURL ImageURLFunc) []Rendered {
	out := make([]Rendered, 0, len(list))
	for _, b := range list {
		sec := renderBlock(r, b, imageURL)
		_, unknown := sec.(UnknownSection)
		out = append(out, Rendered{ID: b.ID, Type: b.Type, Known: !unknown, Section: sec})
	}
	return out
}

func renderBlock(r *models.Recipe, b Block, imageURL ImageURLFunc) Section {
	cfg := b.Config
	if cfg == nil {
		cfg = Config{}
	}
	style := cfg.Style()

	switch b.Type {
	case TypeTitle:
		return TitleSection{Title: r.Title, Style: style}
	case TypeDescription:
		return DescriptionSection{Description: r.Description, Style: style}
	case TypeIngredients:
		items := r.Ingredients
		if items == nil {
			items = []models.Ingredient{}
		}
		return IngredientsSection{Items: items, Style: style}
	case TypeDirections:
		steps := r.Directions
		if steps == nil {
			steps = []models.Direction{}
		}
		return DirectionsSection{Steps: steps, Style: style}
	case TypeCookingTime:
		return CookingTimeSection{CookingTime: r.CookingTime, Style: style}
	case TypeNutrition:
		return NutritionSection{Nutrition: r.Nutrition, Style: style}
	case TypeImage:
		idx, ok := cfg.Int(KeyImageIndex)
		if !ok {
			idx = 0
		}
		sec := ImageSection{Index: idx, Style: style}
		if idx < 0 || idx >= len(r.Images) {
			sec.Missing = true
			return sec
		}
		sec.Key = r.Images[idx]
		if imageURL != nil {
			sec.URL = imageURL(sec.Key)
		}
		return sec
	case TypeCustomHeader:
		return CustomHeaderSection{Text: cfg.String(KeyText), Style: style}
	case TypeCustomText:
		return CustomTextSection{Text: cfg.String(KeyText), Style: style}
	default:
		return UnknownSection{Type: b.Type, Message: "Unknown Block"}
	}
}

// Layout picks the blocks a recipe is displayed with: the fixed default for
// external recipes or when nothing usable is stored, else the stored list.
func Layout(r *models.Recipe) ([]Block, Format) {
	if r.External {
		return Default(), FormatEmpty
	}
	list, format := DecodeFormat(r.Template)
	if len(list) == 0 {
		return Default(), format
	}
	return list, format
}
