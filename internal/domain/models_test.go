package domain

import (
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	if (AuditLog{}).TableName() != "audit_logs" {
		t.Fatalf("AuditLog.TableName() = %q", (AuditLog{}).TableName())
	}
	if (ShareLink{}).TableName() != "share_links" {
		t.Fatalf("ShareLink.TableName() = %q", (ShareLink{}).TableName())
	}
	if (SiteSetting{}).TableName() != "site_settings" {
		t.Fatalf("SiteSetting.TableName() = %q", (SiteSetting{}).TableName())
	}
}

func TestEnums_Valid(t *testing.T) {
	for _, a := range []AuditAction{ActionCreate, ActionUpdate, ActionDelete} {
		if !a.Valid() {
			t.Fatalf("%q should be valid", a)
		}
	}
	if AuditAction("create").Valid() || AuditAction("").Valid() {
		t.Fatalf("unknown actions must be invalid")
	}
	for _, r := range []ResourceType{ResourceWhitelistedEmails, ResourceSiteSettings, ResourceCVReferences, ResourceShareLinks, ResourceCVVersions} {
		if !r.Valid() {
			t.Fatalf("%q should be valid", r)
		}
	}
	if ResourceType("users").Valid() {
		t.Fatalf("unknown resource types must be invalid")
	}
}

func TestShareLink_Expired(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	past, future := now.Add(-time.Minute), now.Add(time.Minute)

	if (ShareLink{}).Expired(now) {
		t.Fatalf("link without expiry must not expire")
	}
	if !(ShareLink{ExpiresAt: &past}).Expired(now) {
		t.Fatalf("past expiry should be expired")
	}
	if !(ShareLink{ExpiresAt: &now}).Expired(now) {
		t.Fatalf("expiry equal to now should be expired")
	}
	if (ShareLink{ExpiresAt: &future}).Expired(now) {
		t.Fatalf("future expiry should not be expired")
	}
}

func TestMigrations_ColumnsAndConstraints(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&AuditLog{}, &ShareLink{}, &SiteSetting{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()

	for _, col := range []string{"user_email", "user_id", "action", "resource_type", "resource_id", "details", "ip_address", "user_agent"} {
		if !m.HasColumn(&AuditLog{}, col) {
			t.Fatalf("audit_logs missing column %s", col)
		}
	}
	if !m.HasIndex(&AuditLog{}, "idx_audit_resource") {
		t.Fatalf("expected index idx_audit_resource on audit_logs")
	}

	// The action check constraint rejects unknown values.
	bad := &AuditLog{ID: "a1", UserEmail: "a@b.c", Action: "PATCH", ResourceType: ResourceShareLinks}
	if err := db.Create(bad).Error; err == nil {
		t.Fatalf("expected check constraint failure for unknown action")
	}

	ok := &AuditLog{ID: "a2", UserEmail: "a@b.c", Action: ActionCreate, ResourceType: ResourceShareLinks}
	if err := db.Create(ok).Error; err != nil {
		t.Fatalf("insert audit log: %v", err)
	}
	var got AuditLog
	if err := db.First(&got, "id = ?", "a2").Error; err != nil {
		t.Fatalf("read back: %v", err)
	}
	if got.UserID != nil || got.ResourceID != nil || got.Details != nil || got.IPAddress != nil || got.UserAgent != nil {
		t.Fatalf("unset optional fields must read back as NULL: %+v", got)
	}

	// Share-link tokens are unique.
	if err := db.Create(&ShareLink{ID: "s1", Token: "t", CreatedBy: "a@b.c"}).Error; err != nil {
		t.Fatalf("insert share link: %v", err)
	}
	if err := db.Create(&ShareLink{ID: "s2", Token: "t", CreatedBy: "a@b.c"}).Error; err == nil {
		t.Fatalf("expected unique violation on share_links.token")
	}
}
