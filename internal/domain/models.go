// Package domain defines the persistence models for the portfolio admin
// backend: the append-only audit log, share links, and site settings. These
// types are mapped with GORM.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// AuditAction is the kind of mutation an audit entry records.
type AuditAction string

const (
	ActionCreate AuditAction = "CREATE"
	ActionUpdate AuditAction = "UPDATE"
	ActionDelete AuditAction = "DELETE"
)

// Valid reports whether a is one of the known actions.
func (a AuditAction) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// ResourceType names the table an audited mutation touched.
type ResourceType string

const (
	ResourceWhitelistedEmails ResourceType = "whitelisted_emails"
	ResourceSiteSettings      ResourceType = "site_settings"
	ResourceCVReferences      ResourceType = "cv_references"
	ResourceShareLinks        ResourceType = "share_links"
	ResourceCVVersions        ResourceType = "cv_versions"
)

// Valid reports whether r is one of the known resource types.
func (r ResourceType) Valid() bool {
	switch r {
	case ResourceWhitelistedEmails, ResourceSiteSettings, ResourceCVReferences,
		ResourceShareLinks, ResourceCVVersions:
		return true
	}
	return false
}

// AuditLog is one append-only record of an admin mutation. Rows are inserted
// once and never updated or deleted by the application.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserEmail: email of the admin who made the change.
//   - UserID: optional identity-provider subject.
//   - Action / ResourceType: what happened to which kind of resource.
//   - ResourceID: optional identifier of the affected row.
//   - Details: optional JSON document describing the change.
//   - IPAddress / UserAgent: request metadata, when a request was available.
type AuditLog struct {
	ID           string       `json:"id"            gorm:"type:char(36);primaryKey"`
	UserEmail    string       `json:"user_email"    gorm:"type:varchar(320);not null;index"`
	UserID       *string      `json:"user_id"       gorm:"type:varchar(255)"`
	Action       AuditAction  `json:"action"        gorm:"type:varchar(16);not null;check:action IN ('CREATE','UPDATE','DELETE')"`
	ResourceType ResourceType `json:"resource_type" gorm:"type:varchar(32);not null;index:idx_audit_resource,priority:1"`
	ResourceID   *string      `json:"resource_id"   gorm:"type:varchar(255);index:idx_audit_resource,priority:2"`
	Details      *string      `json:"details"       gorm:"type:text"`
	IPAddress    *string      `json:"ip_address"    gorm:"type:varchar(64)"`
	UserAgent    *string      `json:"user_agent"    gorm:"type:varchar(500)"`
	CreatedAt    time.Time    `json:"created_at"    gorm:"index"`
}

// TableName returns the database table name for AuditLog.
func (AuditLog) TableName() string { return "audit_logs" }

// ShareLink is a revocable, optionally expiring public link to the CV.
type ShareLink struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	Token     string         `json:"token"      gorm:"type:varchar(64);not null;uniqueIndex"`
	Label     string         `json:"label"      gorm:"type:varchar(255);not null;default:''"`
	CreatedBy string         `json:"created_by" gorm:"type:varchar(320);not null"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
	CreatedAt time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for ShareLink.
func (ShareLink) TableName() string { return "share_links" }

// Expired reports whether the link has an expiry at or before now.
func (s ShareLink) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// SiteSetting is a key/value pair shown on the public site (contact email,
// location, and similar).
type SiteSetting struct {
	Key       string    `json:"key"        gorm:"type:varchar(64);primaryKey"`
	Value     string    `json:"value"      gorm:"type:text;not null"`
	UpdatedBy string    `json:"updated_by" gorm:"type:varchar(320);not null;default:''"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for SiteSetting.
func (SiteSetting) TableName() string { return "site_settings" }
