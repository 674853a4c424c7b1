// Package blocks implements recipe layout templates: an ordered list of typed
// blocks, their stored string form, and the mapping from blocks to renderable
// sections.
package blocks

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type Type string

const (
	TypeTitle        Type = "title"
	TypeDescription  Type = "description"
	TypeIngredients  Type = "ingredients"
	TypeDirections   Type = "directions"
	TypeCookingTime  Type = "cookingTime"
	TypeNutrition    Type = "nutrition"
	TypeImage        Type = "image"
	TypeCustomHeader Type = "customHeader"
	TypeCustomText   Type = "customText"
)

var types = []Type{
	TypeTitle,
	TypeDescription,
	TypeIngredients,
	TypeDirections,
	TypeCookingTime,
	TypeNutrition,
	TypeImage,
	TypeCustomHeader,
	TypeCustomText,
}

// Types returns the block vocabulary in canonical order.
func Types() []Type {
	out := make([]Type, len(types))
	copy(out, types)
	return out
}

func (t Type) Known() bool {
	for _, k := range types {
		if k == t {
			return true
		}
	}
	return false
}

// Config keys understood by the renderer.
const (
	KeyImageIndex = "imageIndex"
	KeyText       = "text"
	KeyStyle      = "style"
)

// Config is the free-form per-block configuration.
type Config map[string]any

// Int reads key as an integer. JSON numbers arrive as float64, so those are
// accepted when they carry no fraction.
func (c Config) Int(key string) (int, bool) {
	switch v := c[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func (c Config) String(key string) string {
	switch v := c[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Style flattens the "style" entry into string values. Non-scalar entries are
// dropped.
func (c Config) Style() map[string]string {
	raw, ok := c[KeyStyle].(map[string]any)
	if !ok || len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch tv := v.(type) {
		case string:
			out[k] = tv
		case float64, bool, int:
			out[k] = fmt.Sprint(tv)
		}
	}
	return out
}

// Block is one layout unit. ID only lives in memory; it is never stored.
type Block struct {
	ID     string `json:"id"`
	Type   Type   `json:"type"`
	Config Config `json:"config"`
}

// New returns a block of the given type with a fresh ID and empty config.
func New(t Type) Block {
	return Block{ID: uuid.NewString(), Type: t, Config: Config{}}
}

// Default is the fixed layout used for external recipes and for recipes that
// carry no template of their own.
func Default() []Block {
	img := New(TypeImage)
	img.Config[KeyImageIndex] = 0
	return []Block{
		New(TypeTitle),
		img,
		New(TypeDescription),
		New(TypeCookingTime),
		New(TypeIngredients),
		New(TypeDirections),
		New(TypeNutrition),
	}
}
