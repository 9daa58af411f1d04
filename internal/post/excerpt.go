package post

import (
	"strings"

	"golang.org/x/net/html"
)

// excerptMaxLength は本文から生成する説明文の最大文字数（rune数）。
const excerptMaxLength = 160

// Excerpt はHTML本文からプレーンテキストの抜粋を生成する。
// タグを除去し、空白を正規化した上で先頭excerptMaxLength文字を返す。
// 説明文が未指定の記事の一覧表示とSEOメタタグに使用する。
func Excerpt(rawHTML string) string {
	text := extractText(rawHTML)
	runes := []rune(text)
	if len(runes) <= excerptMaxLength {
		return text
	}
	return strings.TrimSpace(string(runes[:excerptMaxLength])) + "…"
}

// extractText はHTMLからテキストノードのみを取り出して結合する。
// script/style内のテキストは無視する。
func extractText(rawHTML string) string {
	node, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		// パース不能な入力はそのままタグ無しテキストとして扱う
		return strings.Join(strings.Fields(rawHTML), " ")
	}

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)

	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
