package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"estate_crm_backend/internal/shared/query"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestMemoryListSearchesNameAndPhoneLiterally(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	for _, p := range []CreateLeadParams{
		{Name: "Asha Rao", Phone: "98000 00001", PhoneKey: "+919800000001"},
		{Name: "Ravi (VIP)", Phone: "98000 00002", PhoneKey: "+919800000002"},
		{Name: "Meera", Phone: "(415) 555-0100", PhoneKey: "+14155550100"},
	} {
		if _, err := repo.Create(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	leads, total, err := repo.List(ctx, ListParams{Search: "RAO", Page: query.NewPage(1, 10)})
	if err != nil || total != 1 || leads[0].Name != "Asha Rao" {
		t.Fatalf("unexpected name search result %v total=%d err=%v", leads, total, err)
	}

	leads, total, _ = repo.List(ctx, ListParams{Search: "98000 0", Page: query.NewPage(1, 10)})
	if total != 2 || len(leads) != 2 {
		t.Fatalf("expected phone search to match 2, got %d", total)
	}

	leads, total, _ = repo.List(ctx, ListParams{Search: "+1415", Page: query.NewPage(1, 10)})
	if total != 1 || leads[0].Name != "Meera" {
		t.Fatalf("expected normalized phone search to match Meera, got %d", total)
	}

	_, total, _ = repo.List(ctx, ListParams{Search: "(VIP", Page: query.NewPage(1, 10)})
	if total != 1 {
		t.Fatalf("expected regex metacharacters to match literally, got %d", total)
	}
}

func TestMemoryListPaginatesInInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	for i := 0; i < 25; i++ {
		if _, err := repo.Create(ctx, CreateLeadParams{Name: fmt.Sprintf("Lead %02d", i), Phone: fmt.Sprintf("%d", i), PhoneKey: fmt.Sprintf("+1415555%04d", i)}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	page3, total, _ := repo.List(ctx, ListParams{Page: query.NewPage(3, 10)})
	if total != 25 || len(page3) != 5 {
		t.Fatalf("expected 5 of 25 on page 3, got %d of %d", len(page3), total)
	}
	if page3[0].Name != "Lead 20" {
		t.Fatalf("expected page to start at Lead 20, got %s", page3[0].Name)
	}

	beyond, _, _ := repo.List(ctx, ListParams{Page: query.NewPage(9, 10)})
	if len(beyond) != 0 || beyond == nil {
		t.Fatalf("expected empty non-nil page, got %v", beyond)
	}

	negative, total, err := repo.List(ctx, ListParams{Page: query.Page{Page: -1, Limit: 10}})
	if err != nil || total != 25 || len(negative) != 0 {
		t.Fatalf("expected empty page for a negative offset, got %d items err=%v", len(negative), err)
	}
}

func TestMemoryPhoneUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	first, _ := repo.Create(ctx, CreateLeadParams{Name: "A", Phone: "1", PhoneKey: "+1"})
	second, _ := repo.Create(ctx, CreateLeadParams{Name: "B", Phone: "2", PhoneKey: "+2"})

	if _, err := repo.Create(ctx, CreateLeadParams{Name: "C", Phone: "+1", PhoneKey: "+1"}); !errors.Is(err, ErrDuplicatePhone) {
		t.Fatalf("expected duplicate on create, got %v", err)
	}

	phone, key := "+1", "+1"
	if _, err := repo.Update(ctx, second.ID, UpdateLeadParams{Phone: &phone, PhoneKey: &key}); !errors.Is(err, ErrDuplicatePhone) {
		t.Fatalf("expected duplicate on update, got %v", err)
	}

	if err := repo.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Update(ctx, second.ID, UpdateLeadParams{Phone: &phone, PhoneKey: &key}); err != nil {
		t.Fatalf("expected freed phone to be reusable, got %v", err)
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	lead, _ := repo.Create(ctx, CreateLeadParams{Name: "A", Phone: "1", PhoneKey: "+1"})
	updated, _ := repo.AppendDocument(ctx, lead.ID, "https://x/1.pdf")
	updated.Documents[0] = "mutated"

	stored, _ := repo.GetByID(ctx, lead.ID)
	if stored.Documents[0] != "https://x/1.pdf" {
		t.Fatal("expected caller mutations not to reach the store")
	}
}

func TestBuildLeadListWhere(t *testing.T) {
	where, args := buildLeadListWhere(ListParams{})
	if where != "TRUE" || len(args) != 0 {
		t.Fatalf("unexpected unfiltered clause %q %v", where, args)
	}

	where, args = buildLeadListWhere(ListParams{Search: "50%"})
	if len(args) != 1 || args[0] != `%50\%%` {
		t.Fatalf("unexpected args %v", args)
	}
	if where == "TRUE" {
		t.Fatal("expected a search clause")
	}
}

func TestBuildLeadFilter(t *testing.T) {
	if len(buildLeadFilter(ListParams{})) != 0 {
		t.Fatal("expected empty filter without search")
	}

	filter := buildLeadFilter(ListParams{Search: "a+b"})
	or, ok := filter["$or"].(bson.A)
	if !ok || len(or) != 3 {
		t.Fatalf("expected $or over name, phone and phone key, got %v", filter)
	}
	nameClause := or[0].(bson.M)["name"].(bson.Regex)
	if nameClause.Pattern != `a\+b` || nameClause.Options != "i" {
		t.Fatalf("unexpected regex %+v", nameClause)
	}
}
