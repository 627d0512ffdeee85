package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	paymentdomain "github.com/smallbiznis/reelgate/internal/payment/domain"
	"github.com/smallbiznis/reelgate/internal/payment/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gorm.DB, paymentdomain.Repository) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&paymentdomain.EventRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db, repository.Provide()
}

func newRecord(t *testing.T, eventID string) *paymentdomain.EventRecord {
	t.Helper()

	node, err := snowflake.NewNode(9)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return &paymentdomain.EventRecord{
		ID:              node.Generate(),
		Provider:        "stripe",
		ProviderEventID: eventID,
		EventType:       paymentdomain.EventTypeCheckoutCompleted,
		UserID:          "user-1",
		Credits:         5,
		Payload:         datatypes.JSON([]byte(`{"id":"` + eventID + `"}`)),
		ReceivedAt:      time.Now().UTC(),
	}
}

func TestInsertEventReportsOwnership(t *testing.T) {
	db, repo := setup(t)
	ctx := context.Background()

	inserted, err := repo.InsertEvent(ctx, db, newRecord(t, "evt_1"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !inserted {
		t.Fatal("first insert must own the event")
	}

	inserted, err = repo.InsertEvent(ctx, db, newRecord(t, "evt_1"))
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if inserted {
		t.Fatal("second insert of the same event id must not own it")
	}
}

func TestFindEventReturnsStoredRecord(t *testing.T) {
	db, repo := setup(t)
	ctx := context.Background()

	record := newRecord(t, "evt_1")
	if _, err := repo.InsertEvent(ctx, db, record); err != nil {
		t.Fatalf("insert: %v", err)
	}

	stored, err := repo.FindEvent(ctx, db, "stripe", "evt_1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored == nil {
		t.Fatal("expected stored record")
	}
	if stored.ID != record.ID {
		t.Fatalf("expected id %d, got %d", record.ID, stored.ID)
	}
	if stored.ProcessedAt != nil {
		t.Fatal("fresh record must not be marked processed")
	}
}

func TestFindEventMissingIsNil(t *testing.T) {
	db, repo := setup(t)

	stored, err := repo.FindEvent(context.Background(), db, "stripe", "evt_missing")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored != nil {
		t.Fatalf("expected nil for unknown event, got %+v", stored)
	}
}

func TestMarkProcessedStampsRecord(t *testing.T) {
	db, repo := setup(t)
	ctx := context.Background()

	record := newRecord(t, "evt_1")
	if _, err := repo.InsertEvent(ctx, db, record); err != nil {
		t.Fatalf("insert: %v", err)
	}

	processedAt := time.Now().UTC()
	if err := repo.MarkProcessed(ctx, db, record.ID, processedAt); err != nil {
		t.Fatalf("mark processed: %v", err)
	}

	stored, err := repo.FindEvent(ctx, db, "stripe", "evt_1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored == nil || stored.ProcessedAt == nil {
		t.Fatal("expected processed_at to be stamped")
	}
}
