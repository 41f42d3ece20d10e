package domain

// Known game identifiers (top-level catalog partitions).
const (
	GameBrawlStars   = "brawlstars"
	GameClashRoyale  = "clashroyale"
	GameClashOfClans = "clashofclans"
)

// Games lists the supported game identifiers in display order.
var Games = []string{GameBrawlStars, GameClashRoyale, GameClashOfClans}

// Category describes a second-level catalog partition within a game.
type Category struct {
	Subcategory string
	Name        string
	Emoji       string
}

// gameCategories mirrors the category layout of the bot side, keyed by game.
var gameCategories = map[string][]Category{
	GameBrawlStars: {
		{Subcategory: "akcii", Name: "Акции", Emoji: "🔥"},
		{Subcategory: "gems", Name: "Гемы", Emoji: "💎"},
	},
	GameClashRoyale: {
		{Subcategory: "akcii", Name: "Акции", Emoji: "🔥"},
		{Subcategory: "gems", Name: "Гемы", Emoji: "💎"},
		{Subcategory: "geroi", Name: "Герои", Emoji: "🦸"},
		{Subcategory: "evolutions", Name: "Эволюции", Emoji: "⚡"},
		{Subcategory: "emoji", Name: "Эмодзи", Emoji: "😀"},
		{Subcategory: "etapnye", Name: "Этапные", Emoji: "📈"},
		{Subcategory: "karty", Name: "Карты", Emoji: "🃏"},
	},
	GameClashOfClans: {
		{Subcategory: "akcii", Name: "Акции", Emoji: "🔥"},
		{Subcategory: "gems", Name: "Гемы", Emoji: "💎"},
		{Subcategory: "oformlenie", Name: "Оформление", Emoji: "🏠"},
	},
}

// CategoriesFor returns the category list displayed for the given game.
func CategoriesFor(game string) []Category {
	cats := gameCategories[game]
	out := make([]Category, len(cats))
	copy(out, cats)
	return out
}

// KnownGame reports whether the identifier names a supported game.
func KnownGame(game string) bool {
	_, ok := gameCategories[game]
	return ok
}

// SpecialSearchCategories lists the subcategories whose products are reached
// through a dedicated category page when navigating from a search result.
var SpecialSearchCategories = []string{"akcii", "gems", "bp"}

// IsSpecialSearchCategory reports whether opening a search result in this
// subcategory should land on its category page rather than the general list.
func IsSpecialSearchCategory(sub string) bool {
	for _, s := range SpecialSearchCategories {
		if s == sub {
			return true
		}
	}
	return false
}
