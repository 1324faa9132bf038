package recommend

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testMovies() []Movie {
	return []Movie{
		{MovieID: 1, Title: "Cult Gem", Year: 1994, Genres: []string{"Drama"}, RatingCount: 3, RatingMean: 5.0},
		{MovieID: 2, Title: "Blockbuster", Year: 1994, Genres: []string{"Action", "Sci-Fi"}, RatingCount: 9999, RatingMean: 4.2},
		{MovieID: 3, Title: "Solid Western", Year: 1969, Genres: []string{"Western"}, RatingCount: 500, RatingMean: 4.0},
		{MovieID: 4, Title: "Forgettable", Year: 1994, Genres: []string{"Comedy"}, RatingCount: 50, RatingMean: 2.0},
	}
}

func TestPopularity(t *testing.T) {
	assert.InDelta(t, 4.2*math.Log10(10000), Popularity(4.2, 9999), 1e-9)
	assert.Equal(t, 0.0, Popularity(5.0, 0), "零评分人气为零")
	assert.Equal(t, 0.0, Popularity(5.0, -3), "负评分数按零处理")
}

func TestTopKOrdering(t *testing.T) {
	c := NewCatalog(testMovies())
	got := c.TopK(2, Filter{})

	assert.Len(t, got, 2)
	// 大量评分的高分片压过评分稀少的满分片
	assert.Equal(t, "Blockbuster", got[0].Title)
	assert.True(t, got[0].Popularity >= got[1].Popularity)
}

func TestTopKFilters(t *testing.T) {
	c := NewCatalog(testMovies())

	year := 1994
	got := c.TopK(10, Filter{Year: &year})
	assert.Len(t, got, 3)
	for _, r := range got {
		assert.Equal(t, 1994, r.Year)
	}

	got = c.TopK(10, Filter{Genre: "sci"})
	assert.Len(t, got, 1)
	assert.Equal(t, "Blockbuster", got[0].Title, "类型匹配不区分大小写且按子串")
}

func TestTopKFallback(t *testing.T) {
	c := NewCatalog(testMovies())

	// 无匹配时回退到未过滤榜单,目录非空就不返回空
	got := c.TopK(2, Filter{Genre: "musical"})
	assert.Len(t, got, 2)
	assert.Equal(t, "Blockbuster", got[0].Title)

	got = c.TopK(0, Filter{})
	assert.Len(t, got, 1, "k<=0 视为 1")
}

func TestCatalogEmpty(t *testing.T) {
	assert.Nil(t, NewCatalog(nil).TopK(5, Filter{}))

	var c *Catalog
	assert.Equal(t, 0, c.Len())
	assert.Nil(t, c.TopK(5, Filter{}))
}
