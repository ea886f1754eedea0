package service

import (
	"strings"
	"testing"
)

func TestRenderMarkdownSanitizesScripts(t *testing.T) {
	rendered, err := RenderMarkdown("# 标题\n\n<script>alert(1)</script>\n\n**粗体**")
	if err != nil {
		t.Fatalf("render markdown: %v", err)
	}
	if strings.Contains(rendered, "<script>") {
		t.Fatalf("expected script to be stripped, got %q", rendered)
	}
	if !strings.Contains(rendered, "<strong>粗体</strong>") {
		t.Fatalf("expected emphasis to render, got %q", rendered)
	}
	if !strings.Contains(rendered, "<h1") {
		t.Fatalf("expected heading to render, got %q", rendered)
	}
}
