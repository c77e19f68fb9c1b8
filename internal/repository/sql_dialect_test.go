package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/bookstore-next/internal/models"

	"gorm.io/gorm"
)

func TestBuildLikeConditionByDialect(t *testing.T) {
	condition, argCount := buildLikeConditionByDialect("sqlite", []string{"name", " ", "contact_email"})
	if argCount != 2 {
		t.Fatalf("arg count want 2 got %d", argCount)
	}
	if condition != "name LIKE ? OR contact_email LIKE ?" {
		t.Fatalf("unexpected sqlite condition: %s", condition)
	}

	condition, _ = buildLikeConditionByDialect("postgres", []string{"name"})
	if condition != "name ILIKE ?" {
		t.Fatalf("postgres should use ILIKE, got %s", condition)
	}
}

func TestDBDialectNameFallback(t *testing.T) {
	if got := dbDialectName(nil); got != "sqlite" {
		t.Fatalf("nil db should fallback to sqlite, got %s", got)
	}
}

func TestRepeatLikeArgs(t *testing.T) {
	args := repeatLikeArgs("%abc%", 3)
	if len(args) != 3 || args[2] != "%abc%" {
		t.Fatalf("unexpected like args: %#v", args)
	}
}

func TestApplyPaginationClampsPageSize(t *testing.T) {
	db := openRepositoryTestDB(t)
	for i := 0; i < 3; i++ {
		createTestProduct(t, db, fmt.Sprintf("Paged %d", i), 1)
	}

	var page []models.Product
	if err := applyPagination(db.Model(&models.Product{}).Order("id asc"), 2, 2).Find(&page).Error; err != nil {
		t.Fatalf("paged query failed: %v", err)
	}
	if len(page) != 1 {
		t.Fatalf("second page want 1 row got %d", len(page))
	}

	var all []models.Product
	if err := applyPagination(db.Model(&models.Product{}), 0, 0).Find(&all).Error; err != nil {
		t.Fatalf("unpaged query failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("unpaged want 3 rows got %d", len(all))
	}

	var clamped []models.Product
	stmt := applyPagination(db.Session(&gorm.Session{DryRun: true}).Model(&models.Product{}), 1, maxPageSize*10).Find(&clamped).Statement
	if !strings.Contains(stmt.SQL.String(), "LIMIT") || stmt.Vars[len(stmt.Vars)-1] != maxPageSize {
		t.Fatalf("page size should clamp to %d, sql=%s vars=%v", maxPageSize, stmt.SQL.String(), stmt.Vars)
	}
}
