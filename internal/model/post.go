// Package model はドメインモデルを定義する。
package model

import "time"

// Post はブログ記事を表す。
type Post struct {
	ID          string
	UserID      string
	Title       string
	Slug        string
	Description string
	Category    Category
	Content     string
	ImageURL    string
	IsFeatured  bool
	Visits      int
	// Translations は言語コードをキーとする翻訳マップ。JSONBカラムに保存する。
	Translations map[string]PostTranslation
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PostTranslation は記事の言語別翻訳を表す。
type PostTranslation struct {
	Title       string `json:"title"`
	Description string `json:"desc"`
	Content     string `json:"content"`
}

// PostWithAuthor は記事と著者の表示用フィールドを結合したモデル。
// usersテーブルとJOINして取得される。
type PostWithAuthor struct {
	Post
	AuthorUsername string
	AuthorImageURL string
	AuthorClerkID  string
}

// Category は記事カテゴリを表す。固定の集合のみ有効。
type Category string

const (
	CategoryApplication  Category = "application"
	CategoryService      Category = "service"
	CategoryProducts     Category = "products"
	CategoryDistributors Category = "distributors"
	CategoryNews         Category = "news"
)

// DefaultCategory はカテゴリ未指定時のデフォルト値。
const DefaultCategory = CategoryApplication

// ValidCategories は有効なカテゴリの一覧を返す。
func ValidCategories() []Category {
	return []Category{
		CategoryApplication,
		CategoryService,
		CategoryProducts,
		CategoryDistributors,
		CategoryNews,
	}
}

// IsValidCategory はカテゴリが固定集合に含まれるかを判定する。
func IsValidCategory(c Category) bool {
	for _, v := range ValidCategories() {
		if c == v {
			return true
		}
	}
	return false
}

// PostSort は記事一覧のソート種別を表す。
type PostSort string

const (
	// PostSortNewest は作成日時の降順（デフォルト）。
	PostSortNewest PostSort = "newest"
	// PostSortOldest は作成日時の昇順。
	PostSortOldest PostSort = "oldest"
	// PostSortPopular は訪問数の降順。
	PostSortPopular PostSort = "popular"
	// PostSortTrending は直近7日間の記事を訪問数の降順で返す。
	PostSortTrending PostSort = "trending"
)

// PostListQuery は記事一覧の検索条件を表す。
type PostListQuery struct {
	Page         int
	Limit        int
	Category     Category
	AuthorUserID string
	Search       string
	FeaturedOnly bool
	Sort         PostSort
}
