package service

import (
	"errors"
	"testing"

	"github.com/funcsikk/internal/db"
)

func TestPostService_CreateNormalizesInput(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb)

	post, err := svc.Create(PostInput{Title: "  SQL Injection 정리 ", Category: "/CTF//Web/", Content: "본문"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.Slug != "sql-injection-정리" {
		t.Fatalf("unexpected slug %q", post.Slug)
	}
	if post.Category != "CTF/Web" {
		t.Fatalf("unexpected category %q", post.Category)
	}

	if _, err := svc.Create(PostInput{Title: "dup", Slug: post.Slug}); !errors.Is(err, ErrPostExists) {
		t.Fatalf("expected ErrPostExists, got %v", err)
	}
	if _, err := svc.Create(PostInput{Title: ""}); !errors.Is(err, ErrPostInvalid) {
		t.Fatalf("expected ErrPostInvalid, got %v", err)
	}
	if _, err := svc.Create(PostInput{Title: "bad", Slug: "has space"}); !errors.Is(err, ErrPostInvalid) {
		t.Fatalf("expected ErrPostInvalid for slug, got %v", err)
	}
}

func TestPostService_UpdateAndDelete(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb)
	shares := NewShareService(gdb)

	post, err := svc.Create(PostInput{Slug: "draft", Title: "Draft"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	other, err := svc.Create(PostInput{Slug: "other", Title: "Other"})
	if err != nil {
		t.Fatalf("create other: %v", err)
	}

	updated, err := svc.Update(post.ID, PostInput{Slug: "final", Title: "Final", IsPublic: true})
	if err != nil {
		t.Fatalf("update post: %v", err)
	}
	if updated.Slug != "final" || !updated.IsPublic {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	if _, err := svc.Update(post.ID, PostInput{Slug: other.Slug, Title: "x"}); !errors.Is(err, ErrPostExists) {
		t.Fatalf("expected ErrPostExists, got %v", err)
	}
	if _, err := svc.Update(999, PostInput{Title: "x"}); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}

	if _, err := shares.Invite(PostTarget(post.ID), InviteInput{Email: "carol@example.com"}); err != nil {
		t.Fatalf("invite: %v", err)
	}
	if err := svc.Delete(post.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}
	var invitationCount int64
	gdb.Unscoped().Model(&db.Invitation{}).Count(&invitationCount)
	if invitationCount != 0 {
		t.Fatalf("expected invitations to be removed with the post, got %d", invitationCount)
	}
	if err := svc.Delete(post.ID); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestPostService_ListByCategoryPath(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb)

	inputs := []PostInput{
		{Slug: "root-note", Title: "Root", Category: "CTF"},
		{Slug: "web-note", Title: "Web", Category: "CTF/Web"},
		{Slug: "xss-note", Title: "XSS", Category: "CTF/Web/XSS"},
		{Slug: "lookalike", Title: "Lookalike", Category: "CTFx"},
	}
	for _, input := range inputs {
		if _, err := svc.Create(input); err != nil {
			t.Fatalf("create %s: %v", input.Slug, err)
		}
	}

	direct, err := svc.ListByCategoryPath("CTF/Web", false)
	if err != nil {
		t.Fatalf("list direct: %v", err)
	}
	if len(direct) != 1 || direct[0].Slug != "web-note" {
		t.Fatalf("unexpected direct posts: %+v", direct)
	}

	subtree, err := svc.ListByCategoryPath("CTF", true)
	if err != nil {
		t.Fatalf("list subtree: %v", err)
	}
	if len(subtree) != 3 {
		t.Fatalf("expected 3 posts in subtree, got %+v", subtree)
	}

	list, err := svc.List(PostFilter{Category: "CTF/Web", Page: 1, PerPage: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Total != 2 || list.TotalPages != 2 || len(list.Posts) != 1 {
		t.Fatalf("unexpected pagination: total=%d pages=%d posts=%d", list.Total, list.TotalPages, len(list.Posts))
	}
}
