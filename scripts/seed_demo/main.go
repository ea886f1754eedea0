package main

import (
	"context"
	"fmt"
	"log"

	"github.com/funcsikk/internal/config"
	"github.com/funcsikk/internal/db"
	"github.com/funcsikk/internal/service"
	"gorm.io/gorm"
)

type demoPost struct {
	slug     string
	title    string
	category string
	content  string
	isPublic bool
}

var demoPosts = []demoPost{
	{slug: "hello-sikk", title: "Hello Sikk", category: "", content: "# Hello\n\n公开的欢迎笔记。", isPublic: true},
	{slug: "xss-basics", title: "XSS 基础", category: "CTF/Web", content: "## Reflected XSS\n\n`<script>` 注入示例。"},
	{slug: "sqli-union", title: "UNION 注入", category: "CTF/Web", content: "## UNION SELECT\n\n列数探测。"},
	{slug: "heap-tcache", title: "tcache poisoning", category: "CTF/Pwn", content: "## tcache\n\nglibc 2.31。"},
	{slug: "diary-draft", title: "草稿", category: "Notes", content: "仅自己可见。"},
}

// 演示数据生成器
func main() {
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成演示数据...")

	token, err := seedDemo(db.DB, "reader@example.com")
	if err != nil {
		log.Fatal("生成演示数据失败:", err)
	}

	fmt.Println("演示数据生成完成！")
	fmt.Printf("文章: %d 篇\n", len(demoPosts))
	fmt.Println("CTF 分类分享链接: /share/category/" + token)
	fmt.Println("已邀请: reader@example.com (访问 CTF/Pwn)")
}

// seedDemo 创建分类、笔记与分享配置，重复执行时跳过已存在的数据
func seedDemo(gdb *gorm.DB, invitee string) (string, error) {
	categories := service.NewCategoryService(gdb)
	posts := service.NewPostService(gdb)
	shares := service.NewShareService(gdb)

	ids := make(map[string]uint)
	for _, path := range []string{"CTF/Web", "CTF/Pwn", "Notes"} {
		segments := db.SplitCategoryPath(path)
		chain, err := categories.ResolvePath(context.Background(), path)
		if err != nil {
			return "", err
		}

		var parentID *uint
		for i, name := range segments {
			key := db.JoinCategoryPath(segments[:i+1])
			id, ok := ids[key]
			switch {
			case ok:
			case i < len(chain):
				id = chain[i].ID
			default:
				category, err := categories.Create(service.CategoryInput{Name: name, ParentID: parentID})
				if err != nil {
					return "", fmt.Errorf("create category %s: %w", key, err)
				}
				id = category.ID
			}
			ids[key] = id
			parentID = &id
		}
	}

	for _, item := range demoPosts {
		if _, err := posts.GetBySlug(item.slug); err == nil {
			continue
		}
		if _, err := posts.Create(service.PostInput{
			Slug:     item.slug,
			Title:    item.title,
			Content:  item.content,
			Category: item.category,
			IsPublic: item.isPublic,
		}); err != nil {
			return "", fmt.Errorf("create post %s: %w", item.slug, err)
		}
	}

	enabled, include := true, true
	share, err := shares.UpdatePublicLink(service.CategoryTarget(ids["CTF"]), service.PublicLinkInput{
		Enabled:              &enabled,
		IncludeSubcategories: &include,
	})
	if err != nil {
		return "", err
	}

	if _, err := shares.Invite(service.CategoryTarget(ids["CTF/Pwn"]), service.InviteInput{Email: invitee}); err != nil {
		return "", err
	}

	return *share.PublicToken, nil
}
