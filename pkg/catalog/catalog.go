package catalog

import (
	"strings"

	"oasyspark/pkg/models"
)

// AllChains is the chain filter value that matches every game.
const AllChains = "All"

var games = []models.Game{
	{
		ID:          "1",
		Title:       "My Crypto Heroes",
		Description: "歴史上のヒーローを集めて育てる、世界No.1の実績を持つブロックチェーンゲーム。",
		Category:    "RPG",
		Chain:       models.ChainMCHVerse,
		ImageURL:    "https://www.mycryptoheroes.net/_nuxt/img/keyvisual.146f6b2.webp",
		Link:        "https://www.mycryptoheroes.net/",
		Tags:        []string{"RPG", "Strategy", "History"},
		IsHot:       true,
	},
	{
		ID:          "3",
		Title:       "Brave Frontier Heroes",
		Description: "ブレイブフロンティアのドット絵とゲーム性を継承したブロックチェーンRPG。",
		Category:    "RPG",
		Chain:       models.ChainHomeVerse,
		ImageURL:    "https://rsc.bravefrontierheroes.com/static/lp/img/top/i_top_logo_BFH_JP.png",
		Link:        "https://bravefrontierheroes.com/ja",
		Tags:        []string{"RPG", "Pixel Art"},
		IsHot:       true,
	},
	{
		ID:          "5",
		Title:       "OasChoice Racing",
		Description: "Oasysチェーン上のハイスピードレーシングゲーム。NFTカーで最速を目指せ。",
		Category:    "Racing",
		Chain:       models.ChainHomeVerse,
		ImageURL:    "https://picsum.photos/400/300?random=5",
		Tags:        []string{"Racing", "Action"},
	},
}

// Games returns a copy of the catalog.
func Games() []models.Game {
	out := make([]models.Game, len(games))
	for i, g := range games {
		g.Tags = append([]string(nil), g.Tags...)
		out[i] = g
	}
	return out
}

// Query filters the catalog. Empty fields match everything.
type Query struct {
	Search string
	Chain  string
}

// Filter returns the games whose title or category contains the search term
// (case insensitive) and whose chain matches.
func Filter(list []models.Game, q Query) []models.Game {
	term := strings.ToLower(strings.TrimSpace(q.Search))
	out := []models.Game{}
	for _, g := range list {
		if q.Chain != "" && q.Chain != AllChains && string(g.Chain) != q.Chain {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(g.Title), term) &&
			!strings.Contains(strings.ToLower(g.Category), term) {
			continue
		}
		out = append(out, g)
	}
	return out
}

// Chains lists the chain filter options: AllChains first, then each chain in
// the order it first appears.
func Chains(list []models.Game) []string {
	seen := make(map[models.ChainType]bool)
	out := []string{AllChains}
	for _, g := range list {
		if !seen[g.Chain] {
			seen[g.Chain] = true
			out = append(out, string(g.Chain))
		}
	}
	return out
}

// Trending returns up to n hot games.
func Trending(list []models.Game, n int) []models.Game {
	out := []models.Game{}
	for _, g := range list {
		if len(out) >= n {
			break
		}
		if g.IsHot {
			out = append(out, g)
		}
	}
	return out
}
