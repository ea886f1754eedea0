package service

import (
	"errors"
	"testing"
	"time"

	"github.com/funcsikk/internal/db"
)

func createSharePost(t *testing.T, svc *PostService, slug string) *db.Post {
	t.Helper()
	post, err := svc.Create(PostInput{Slug: slug, Title: slug})
	if err != nil {
		t.Fatalf("create post %s: %v", slug, err)
	}
	return post
}

func TestShareService_EnablePublicLinkCreatesConfigLazily(t *testing.T) {
	gdb := setupServiceTestDB(t)
	posts := NewPostService(gdb)
	shares := NewShareService(gdb)
	post := createSharePost(t, posts, "lazy")

	if _, err := shares.Get(PostTarget(post.ID)); !errors.Is(err, ErrShareNotFound) {
		t.Fatalf("expected no share before first write, got %v", err)
	}

	expiresAt := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	share, err := shares.EnablePublicLink(PostTarget(post.ID), &expiresAt)
	if err != nil {
		t.Fatalf("enable link: %v", err)
	}
	if !share.PublicEnabled || share.PublicToken == nil || !ValidShareToken(*share.PublicToken) {
		t.Fatalf("unexpected share: %+v", share)
	}

	firstToken := *share.PublicToken
	again, err := shares.EnablePublicLink(PostTarget(post.ID), nil)
	if err != nil {
		t.Fatalf("enable link again: %v", err)
	}
	if *again.PublicToken != firstToken {
		t.Fatal("re-enabling must keep the existing token")
	}
	if again.PublicExpiresAt != nil {
		t.Fatal("expected expiry to be cleared")
	}

	regenerated, err := shares.RegenerateToken(PostTarget(post.ID))
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if *regenerated.PublicToken == firstToken {
		t.Fatal("expected a new token")
	}

	var count int64
	gdb.Model(&db.ShareConfig{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly one share config, got %d", count)
	}
}

func TestShareService_ReinviteUpdatesExistingRow(t *testing.T) {
	gdb := setupServiceTestDB(t)
	posts := NewPostService(gdb)
	shares := NewShareService(gdb)
	post := createSharePost(t, posts, "invite")
	target := PostTarget(post.ID)

	first, err := shares.Invite(target, InviteInput{Email: "Alice@Example.com"})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if first.Email != "alice@example.com" || first.Status != db.InvitationPending {
		t.Fatalf("unexpected invitation: %+v", first)
	}

	if _, err := shares.RevokeInvitation(first.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	expiresAt := time.Date(2031, 6, 1, 0, 0, 0, 0, time.UTC)
	second, err := shares.Invite(target, InviteInput{Email: "alice@example.com", ExpiresAt: &expiresAt})
	if err != nil {
		t.Fatalf("re-invite: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected re-invite to reuse row %d, got %d", first.ID, second.ID)
	}
	if second.Status != db.InvitationPending || second.ExpiresAt == nil {
		t.Fatalf("expected reactivated invitation with expiry, got %+v", second)
	}

	invitations, err := shares.ListInvitations(target)
	if err != nil {
		t.Fatalf("list invitations: %v", err)
	}
	if len(invitations) != 1 {
		t.Fatalf("expected one invitation, got %d", len(invitations))
	}

	if _, err := shares.Invite(target, InviteInput{Email: "not-an-email"}); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestShareService_DisableSharingDeletesConfigAndInvitations(t *testing.T) {
	gdb := setupServiceTestDB(t)
	posts := NewPostService(gdb)
	shares := NewShareService(gdb)
	post := createSharePost(t, posts, "disable")
	target := PostTarget(post.ID)

	if _, err := shares.EnablePublicLink(target, nil); err != nil {
		t.Fatalf("enable link: %v", err)
	}
	invitation, err := shares.Invite(target, InviteInput{Email: "bob@example.com"})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}

	if err := shares.DisableSharing(target); err != nil {
		t.Fatalf("disable sharing: %v", err)
	}

	var shareCount, invitationCount int64
	gdb.Unscoped().Model(&db.ShareConfig{}).Count(&shareCount)
	gdb.Unscoped().Model(&db.Invitation{}).Count(&invitationCount)
	if shareCount != 0 || invitationCount != 0 {
		t.Fatalf("expected hard delete, got shares=%d invitations=%d", shareCount, invitationCount)
	}

	if err := shares.DisableSharing(target); !errors.Is(err, ErrShareNotFound) {
		t.Fatalf("expected ErrShareNotFound, got %v", err)
	}
	if err := shares.DeleteInvitation(invitation.ID); !errors.Is(err, ErrInvitationNotFound) {
		t.Fatalf("expected ErrInvitationNotFound, got %v", err)
	}

	// 关闭后可以重新开启，唯一索引不应被旧记录占用
	if _, err := shares.EnablePublicLink(target, nil); err != nil {
		t.Fatalf("re-enable after disable: %v", err)
	}
}

func TestShareService_TargetValidation(t *testing.T) {
	gdb := setupServiceTestDB(t)
	shares := NewShareService(gdb)

	if _, err := shares.EnablePublicLink(PostTarget(42), nil); !errors.Is(err, ErrShareTargetNotFound) {
		t.Fatalf("expected ErrShareTargetNotFound, got %v", err)
	}
	if _, err := shares.EnablePublicLink(ShareTarget{Kind: "page", ID: 1}, nil); !errors.Is(err, ErrShareTargetInvalid) {
		t.Fatalf("expected ErrShareTargetInvalid, got %v", err)
	}

	category, err := NewCategoryService(gdb).Create(CategoryInput{Name: "CTF"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if _, err := shares.SetIncludeSubcategories(category.ID, true); !errors.Is(err, ErrShareNotFound) {
		t.Fatalf("expected ErrShareNotFound before sharing, got %v", err)
	}
	if _, err := shares.EnablePublicLink(CategoryTarget(category.ID), nil); err != nil {
		t.Fatalf("enable category link: %v", err)
	}
	share, err := shares.SetIncludeSubcategories(category.ID, true)
	if err != nil {
		t.Fatalf("set include subcategories: %v", err)
	}
	if share.CategoryID == nil || *share.CategoryID != category.ID || !share.IncludeSubcategories || !share.PublicEnabled {
		t.Fatalf("unexpected category share: %+v", share)
	}
}

func TestShareService_UpdatePublicLinkNeverCreatesOnDisable(t *testing.T) {
	gdb := setupServiceTestDB(t)
	shares := NewShareService(gdb)

	category, err := NewCategoryService(gdb).Create(CategoryInput{Name: "CTF"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	target := CategoryTarget(category.ID)

	disabled, include := false, false
	if _, err := shares.UpdatePublicLink(target, PublicLinkInput{Enabled: &disabled, IncludeSubcategories: &include}); !errors.Is(err, ErrShareNotFound) {
		t.Fatalf("expected ErrShareNotFound, got %v", err)
	}
	if _, err := shares.DisablePublicLink(target); !errors.Is(err, ErrShareNotFound) {
		t.Fatalf("expected ErrShareNotFound from DisablePublicLink, got %v", err)
	}

	var count int64
	gdb.Model(&db.ShareConfig{}).Count(&count)
	if count != 0 {
		t.Fatalf("disable requests must not create share settings, got %d rows", count)
	}

	enabled := true
	include = true
	share, err := shares.UpdatePublicLink(target, PublicLinkInput{Enabled: &enabled, IncludeSubcategories: &include})
	if err != nil {
		t.Fatalf("enable with subcategories: %v", err)
	}
	if !share.PublicEnabled || !share.IncludeSubcategories || share.PublicToken == nil {
		t.Fatalf("expected enabled subtree share, got %+v", share)
	}

	share, err = shares.UpdatePublicLink(target, PublicLinkInput{Enabled: &disabled})
	if err != nil {
		t.Fatalf("disable existing share: %v", err)
	}
	if share.PublicEnabled || !share.IncludeSubcategories || share.PublicToken == nil {
		t.Fatalf("disable must only clear the switch, got %+v", share)
	}
}

func TestShareService_UpdatePublicLinkRejectsSubcategoriesOnPosts(t *testing.T) {
	gdb := setupServiceTestDB(t)
	shares := NewShareService(gdb)

	post, err := NewPostService(gdb).Create(PostInput{Slug: "solo", Title: "Solo"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	enabled, include := true, true
	if _, err := shares.UpdatePublicLink(PostTarget(post.ID), PublicLinkInput{Enabled: &enabled, IncludeSubcategories: &include}); !errors.Is(err, ErrShareTargetInvalid) {
		t.Fatalf("expected ErrShareTargetInvalid, got %v", err)
	}

	var count int64
	gdb.Model(&db.ShareConfig{}).Count(&count)
	if count != 0 {
		t.Fatalf("rejected update must not write, got %d rows", count)
	}
}
