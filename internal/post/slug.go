package post

import "strings"

// Slugify はタイトルからURLスラッグを生成する。
// 小文字に正規化し、空白の連続をハイフン1つに置き換える。
// 空白以外の文字（記号や非ASCII文字を含む）はそのまま保持するため、
// 日本語等のタイトルもそのままスラッグになる。
// 空白のみのタイトルでは空文字列を返す（呼び出し側でフォールバックする）。
func Slugify(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), "-")
}
