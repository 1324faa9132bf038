// Package recommend 实现基于人气的电影榜单：加载时按
// mean_rating * log10(rating_count+1) 排一次序，之后只读。
package recommend

import (
	"math"
	"sort"
	"strings"
)

// Movie 是目录中的一个条目。
type Movie struct {
	MovieID     int      `json:"movie_id"`
	Title       string   `json:"title"`
	Year        int      `json:"year"`
	Genres      []string `json:"genres"`
	RatingCount int      `json:"rating_count"`
	RatingMean  float64  `json:"rating_mean"`
}

// Recommendation 是返回给调用方的一行推荐。
type Recommendation struct {
	MovieID    int      `json:"movie_id"`
	Title      string   `json:"title"`
	Year       int      `json:"year"`
	Genres     []string `json:"genres"`
	Popularity float64  `json:"popularity"`
}

// Catalog 持有按人气排好序的电影目录。排序在构造时完成一次，
// 之后并发只读。
type Catalog struct {
	ranked []scoredMovie
}

type scoredMovie struct {
	Movie
	popularity float64
}

// NewCatalog 计算人气得分并排序。输入切片不会被修改。
func NewCatalog(movies []Movie) *Catalog {
	ranked := make([]scoredMovie, 0, len(movies))
	for _, m := range movies {
		ranked = append(ranked, scoredMovie{Movie: m, popularity: Popularity(m.RatingMean, m.RatingCount)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].popularity > ranked[j].popularity
	})
	return &Catalog{ranked: ranked}
}

// Popularity 人气得分：平均分按评分数的对数加权,评分很少的片子不会只靠高均分冲顶。
func Popularity(mean float64, count int) float64 {
	if count < 0 {
		count = 0
	}
	return mean * math.Log10(float64(count)+1)
}

// Len 返回目录大小。
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.ranked)
}

// Filter 描述 TopK 的筛选条件。Year 为 nil 表示不过滤年份；
// Genre 为空表示不过滤类型。
type Filter struct {
	Year  *int
	Genre string
}

// TopK 返回前 k 条推荐。先按精确年份与大小写无关的类型子串过滤；
// 过滤后为空时回退到未过滤榜单,目录非空时永远不会返回空结果。
func (c *Catalog) TopK(k int, f Filter) []Recommendation {
	if c == nil || len(c.ranked) == 0 {
		return nil
	}
	if k <= 0 {
		k = 1
	}
	matched := c.collect(k, f)
	if len(matched) == 0 {
		matched = c.collect(k, Filter{})
	}
	return matched
}

func (c *Catalog) collect(k int, f Filter) []Recommendation {
	genre := strings.ToLower(strings.TrimSpace(f.Genre))
	out := make([]Recommendation, 0, k)
	for _, m := range c.ranked {
		if f.Year != nil && m.Year != *f.Year {
			continue
		}
		if genre != "" && !matchesGenre(m.Genres, genre) {
			continue
		}
		out = append(out, Recommendation{
			MovieID:    m.MovieID,
			Title:      m.Title,
			Year:       m.Year,
			Genres:     m.Genres,
			Popularity: m.popularity,
		})
		if len(out) == k {
			break
		}
	}
	return out
}

func matchesGenre(genres []string, want string) bool {
	for _, g := range genres {
		if strings.Contains(strings.ToLower(g), want) {
			return true
		}
	}
	return false
}
