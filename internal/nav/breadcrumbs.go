package nav

// Crumb represents a breadcrumb entry.
type Crumb struct {
	Label  string
	Active bool
}

// gameLabels maps game identifiers to their display names.
var gameLabels = map[string]string{
	"brawlstars":   "Brawl Stars",
	"clashroyale":  "Clash Royale",
	"clashofclans": "Clash of Clans",
}

// categoryLabels maps subcategory identifiers to their display names.
var categoryLabels = map[string]string{
	"all":        "Общее",
	"akcii":      "Акции",
	"gems":       "Гемы",
	"geroi":      "Герои",
	"evolutions": "Эволюции",
	"emoji":      "Эмодзи",
	"etapnye":    "Этапные",
	"karty":      "Карты",
	"oformlenie": "Оформление",
}

// GameLabel returns the display name for a game identifier, falling back to
// the identifier itself.
func GameLabel(game string) string {
	if label, ok := gameLabels[game]; ok {
		return label
	}
	return game
}

// CategoryLabel returns the display name for a subcategory identifier,
// falling back to the identifier itself.
func CategoryLabel(sub string) string {
	if label, ok := categoryLabels[sub]; ok {
		return label
	}
	return sub
}

// Breadcrumbs builds the breadcrumb trail as a pure function of the active
// game and subcategory. The deepest crumb is marked active.
func Breadcrumbs(game, subcategory string) []Crumb {
	crumbs := []Crumb{{Label: "Главная", Active: game == ""}}
	if game == "" {
		return crumbs
	}
	crumbs = append(crumbs, Crumb{Label: GameLabel(game), Active: subcategory == ""})
	if subcategory != "" {
		crumbs = append(crumbs, Crumb{Label: CategoryLabel(subcategory), Active: true})
	}
	return crumbs
}

// Trail derives the breadcrumb trail from a navigation snapshot.
func (s State) Trail() []Crumb {
	return Breadcrumbs(s.ActiveGame, s.ActiveSubcategory)
}
