package web

import (
	"bytes"
	"strings"

	"github.com/hitoshi/inkwell/internal/model"
	"golang.org/x/net/html"
)

// injectPostMeta はSPAシェルの<head>へ記事のメタタグを注入し、
// <title>を記事タイトルに差し替える。クローラがJavaScriptを実行せずに
// 記事のタイトルと概要を取得できるようにする。
func injectPostMeta(shell []byte, post *model.PostWithAuthor, canonicalURL string) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(shell))
	if err != nil {
		return nil, err
	}

	head := findElement(doc, "head")
	if head == nil {
		return shell, nil
	}

	if title := findElement(head, "title"); title != nil {
		setText(title, post.Title)
	}

	metas := [][2]string{
		{"description", post.Description},
		{"author", post.AuthorUsername},
	}
	for _, m := range metas {
		if m[1] != "" {
			head.AppendChild(metaNode("name", m[0], m[1]))
		}
	}

	ogs := [][2]string{
		{"og:type", "article"},
		{"og:title", post.Title},
		{"og:description", post.Description},
		{"og:url", canonicalURL},
		{"og:image", post.ImageURL},
	}
	for _, m := range ogs {
		if m[1] != "" {
			head.AppendChild(metaNode("property", m[0], m[1]))
		}
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// findElement は指定タグの最初の要素を深さ優先で探す。
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// setText は要素の子を単一のテキストノードに置き換える。
func setText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// metaNode は<meta>要素を生成する。keyAttrは name または property。
func metaNode(keyAttr, key, content string) *html.Node {
	return &html.Node{
		Type: html.ElementNode,
		Data: "meta",
		Attr: []html.Attribute{
			{Key: keyAttr, Val: key},
			{Key: "content", Val: strings.TrimSpace(content)},
		},
	}
}
