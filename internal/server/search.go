package server

import (
	"sort"
	"strings"

	"github.com/maks2008271/supercell-shop/internal/domain"
)

const maxSearchResults = 20

// Scoring weights for search relevance.
const (
	scoreNameMatch   = 100
	scoreNamePrefix  = 50
	scoreDescMatch   = 30
	scoreGameKeyword = 40
	scoreSubcategory = 25
)

// gameKeywords maps query fragments, Russian spellings included, to the game
// they refer to.
var gameKeywords = map[string]string{
	"brawl":  domain.GameBrawlStars,
	"браул":  domain.GameBrawlStars,
	"бравл":  domain.GameBrawlStars,
	"clash":  domain.GameClashRoyale,
	"клеш":   domain.GameClashRoyale,
	"royale": domain.GameClashRoyale,
	"рояль":  domain.GameClashRoyale,
	"coc":    domain.GameClashOfClans,
	"кок":    domain.GameClashOfClans,
	"clans":  domain.GameClashOfClans,
}

// subcategoryKeywords maps query fragments to the subcategory identifiers and
// names they should boost.
var subcategoryKeywords = map[string][]string{
	"гем":   {"gems", "гемы"},
	"gem":   {"gems", "гемы"},
	"пасс":  {"bp", "pass"},
	"pass":  {"bp", "pass"},
	"акци":  {"akcii", "акция"},
	"скидк": {"akcii", "скидка"},
}

type scoredProduct struct {
	product domain.Product
	score   int
}

// Rank scores every product against the query and returns matches ordered by
// relevance, strongest first, capped at maxSearchResults.
func Rank(products []domain.Product, query string) []domain.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []domain.Product{}
	}

	scored := make([]scoredProduct, 0, len(products))
	for _, p := range products {
		if s := relevance(p, q); s > 0 {
			scored = append(scored, scoredProduct{product: p, score: s})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if len(scored) > maxSearchResults {
		scored = scored[:maxSearchResults]
	}
	out := make([]domain.Product, 0, len(scored))
	for _, s := range scored {
		out = append(out, s.product)
	}
	return out
}

func relevance(p domain.Product, q string) int {
	name := strings.ToLower(p.Name)
	desc := strings.ToLower(p.Description)
	game := strings.ToLower(p.Game)
	sub := strings.ToLower(p.Subcategory)

	score := 0
	if strings.Contains(name, q) {
		score += scoreNameMatch
		if strings.HasPrefix(name, q) {
			score += scoreNamePrefix
		}
	}
	if desc != "" && strings.Contains(desc, q) {
		score += scoreDescMatch
	}
	for keyword, gameID := range gameKeywords {
		if strings.Contains(q, keyword) && game == gameID {
			score += scoreGameKeyword
		}
	}
	for keyword, subcats := range subcategoryKeywords {
		if !strings.Contains(q, keyword) {
			continue
		}
		for _, s := range subcats {
			if sub == s || strings.Contains(name, s) {
				score += scoreSubcategory
				break
			}
		}
	}
	return score
}
