package placement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/thenexusengine/tne_mediation/internal/mediation"
)

var placementColumns = []string{"placement_id", "network", "format", "config", "enabled", "updated_at"}

func TestPostgresSource_Load(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT placement_id, network, format, config, enabled, updated_at FROM mediation_placements WHERE enabled = true").
		WillReturnRows(sqlmock.NewRows(placementColumns).
			AddRow("home", "google", "banner", "pub-1|unit-1|2", true, now).
			AddRow("reward", "ogury", "rewarded_video", "asset|unit", true, now))

	got, err := NewPostgresSource(db).Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 placements, got %d", len(got))
	}
	if got["reward"].Format != mediation.FormatRewardedVideo {
		t.Errorf("Expected rewarded_video, got %s", got["reward"].Format)
	}
	if got["home"].Fields().SizeToken() != "2" {
		t.Errorf("Expected size token 2, got %s", got["home"].Fields().SizeToken())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestPostgresSource_LoadError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT placement_id").WillReturnError(errors.New("relation does not exist"))

	c := NewCatalog(NewPostgresSource(db), time.Minute)
	if err := c.Refresh(context.Background()); err == nil {
		t.Error("Expected refresh error")
	}
	if c.Ready() {
		t.Error("Expected catalog not ready")
	}
}

func TestPostgresSource_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	source := NewPostgresSource(db)

	mock.ExpectQuery("SELECT placement_id").WithArgs("home").
		WillReturnRows(sqlmock.NewRows(placementColumns).AddRow("home", "mopub", "banner", "unit", false, time.Now()))
	p, err := source.Get(context.Background(), "home")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.Enabled {
		t.Error("Expected disabled placement")
	}

	mock.ExpectQuery("SELECT placement_id").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(placementColumns))
	if _, err := source.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestPostgresSource_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	source := NewPostgresSource(db)
	p := &Placement{ID: "home", Network: "google", Format: mediation.FormatBanner, Config: "pub|unit", Enabled: true}

	mock.ExpectExec("INSERT INTO mediation_placements").
		WithArgs("home", "google", "banner", "pub|unit", true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := source.Save(context.Background(), p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := source.Save(context.Background(), &Placement{ID: "x"}); err == nil {
		t.Error("Expected validation error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}
