package domain

import (
	"crypto/md5"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}){1,2}$`)

// ErrInvalidColor is returned when a visual tag color is not a hex color code.
var ErrInvalidColor = errors.New("color must be a hex color code (#RGB or #RRGGBB)")

// TagPalette is the fixed set of colors default visual tags are drawn from.
var TagPalette = []string{
	"#007BFF", // Electric Blue
	"#28A745", // Emerald Green
	"#FFC107", // Sunflower Yellow
	"#DC3545", // Crimson Red
	"#6F42C1", // Royal Purple
	"#FD7E14", // Bright Orange
	"#20C997", // Teal
	"#E83E8C", // Hot Pink
	"#17A2B8", // Cyan
	"#6610F2", // Indigo
	"#8CC63F", // Lime Green
	"#FF00FF", // Magenta
	"#FFD700", // Gold
	"#FF7F50", // Coral
	"#40E0D0", // Turquoise
	"#00BFFF", // Deep Sky Blue
	"#FF5522", // Orange
	"#FA8072", // Salmon
	"#8A2BE2", // Violet
}

// VisualTag is the display badge of a node type.
type VisualTag struct {
	Acronym string `json:"acronym" yaml:"acronym"`
	Color   string `json:"color" yaml:"color"`
}

// NewVisualTag validates the color and creates a tag.
func NewVisualTag(acronym, color string) (VisualTag, error) {
	if !hexColorPattern.MatchString(color) {
		return VisualTag{}, fmt.Errorf("visual tag %q: %w, got %q", acronym, ErrInvalidColor, color)
	}
	return VisualTag{Acronym: acronym, Color: color}, nil
}

// DefaultVisualTag derives the tag of a node type from its name.
// The acronym is the uppercased first letter of each underscore-separated word.
// The color is picked from TagPalette by the md5 of the name, so it is stable.
func DefaultVisualTag(typeName string) VisualTag {
	var acronym strings.Builder
	for _, word := range strings.Split(typeName, "_") {
		if word == "" {
			continue
		}
		r, _ := utf8.DecodeRuneInString(word)
		acronym.WriteRune(unicode.ToUpper(r))
	}

	sum := md5.Sum([]byte(typeName))
	idx := new(big.Int).Mod(new(big.Int).SetBytes(sum[:]), big.NewInt(int64(len(TagPalette))))

	// Palette colors always match the pattern.
	return VisualTag{Acronym: acronym.String(), Color: TagPalette[idx.Int64()]}
}
