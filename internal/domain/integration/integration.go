package integration

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartstore/backend/internal/domain/shared"
)

// Platform is an external sales or messaging channel
type Platform string

const (
	PlatformWooCommerce Platform = "WOOCOMMERCE"
	PlatformWhatsApp    Platform = "WHATSAPP"
	PlatformFacebook    Platform = "FACEBOOK"
	PlatformInstagram   Platform = "INSTAGRAM"
)

// ParsePlatform parses a platform name case-insensitively
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := requiredCredentials[p]; ok {
		return p, nil
	}
	return "", shared.InvalidInput("Unsupported platform: " + s)
}

// Credential keys
const (
	CredStoreURL       = "store_url"
	CredConsumerKey    = "consumer_key"
	CredConsumerSecret = "consumer_secret"
	CredPhoneNumberID  = "phone_number_id"
	CredAccessToken    = "access_token"
	CredCatalogID      = "catalog_id"
	CredAppSecret      = "app_secret"
)

var requiredCredentials = map[Platform][]string{
	PlatformWooCommerce: {CredStoreURL, CredConsumerKey, CredConsumerSecret},
	PlatformWhatsApp:    {CredPhoneNumberID, CredAccessToken},
	PlatformFacebook:    {CredCatalogID, CredAccessToken},
	PlatformInstagram:   {CredCatalogID, CredAccessToken},
}

// Credentials are platform secrets keyed by credential name
type Credentials map[string]string

// Get returns a credential value
func (c Credentials) Get(key string) string {
	return c[key]
}

// Validate checks the credentials required by the platform
func (c Credentials) Validate(p Platform) error {
	required, ok := requiredCredentials[p]
	if !ok {
		return shared.InvalidInput("Unsupported platform: " + string(p))
	}
	for _, key := range required {
		if strings.TrimSpace(c[key]) == "" {
			return shared.InvalidInput("Missing credential: " + key)
		}
	}
	if p == PlatformWooCommerce {
		u, err := url.Parse(c[CredStoreURL])
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return shared.InvalidInput("store_url must be an absolute http(s) URL")
		}
	}
	return nil
}

// Status is the state of an integration
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusError    Status = "ERROR"
)

// SyncKind is a kind of synchronisation
type SyncKind string

const (
	SyncProducts SyncKind = "PRODUCTS"
	SyncStock    SyncKind = "STOCK"
	SyncOrders   SyncKind = "ORDERS"
)

var supportedSyncs = map[Platform][]SyncKind{
	PlatformWooCommerce: {SyncProducts, SyncStock, SyncOrders},
	PlatformFacebook:    {SyncProducts},
	PlatformInstagram:   {SyncProducts},
}

// ParseSyncKind parses a sync kind case-insensitively
func ParseSyncKind(s string) (SyncKind, error) {
	k := SyncKind(strings.ToUpper(strings.TrimSpace(s)))
	switch k {
	case SyncProducts, SyncStock, SyncOrders:
		return k, nil
	}
	return "", shared.InvalidInput("Unsupported sync kind: " + s)
}

// Supports reports whether the platform supports a sync kind
func (p Platform) Supports(kind SyncKind) bool {
	for _, k := range supportedSyncs[p] {
		if k == kind {
			return true
		}
	}
	return false
}

// Integration connects a tenant to an external platform
type Integration struct {
	shared.TenantAggregateRoot
	Platform     Platform          `gorm:"size:20;not null"`
	Name         string            `gorm:"size:100;not null"`
	Status       Status            `gorm:"size:20;not null"`
	Credentials  Credentials       `gorm:"serializer:json;type:jsonb"`
	Settings     map[string]string `gorm:"serializer:json;type:jsonb"`
	LastSyncedAt *time.Time        `gorm:""`
	LastSync     *SyncResult       `gorm:"serializer:json;type:jsonb"`
	LastError    string            `gorm:"size:1000"`
	DeletedAt    gorm.DeletedAt    `gorm:"index"`
}

// TableName returns the table name for GORM
func (Integration) TableName() string {
	return "integrations"
}

// NewIntegration creates an active integration after validating credentials
func NewIntegration(tenantID uuid.UUID, platform Platform, name string, creds Credentials, settings map[string]string) (*Integration, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return nil, shared.InvalidInput("Integration name must be 1-100 characters")
	}
	if err := creds.Validate(platform); err != nil {
		return nil, err
	}
	if settings == nil {
		settings = map[string]string{}
	}
	return &Integration{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Platform:            platform,
		Name:                name,
		Status:              StatusActive,
		Credentials:         creds,
		Settings:            settings,
	}, nil
}

// Update changes name, settings and optionally credentials
func (i *Integration) Update(name string, creds Credentials, settings map[string]string) error {
	if name = strings.TrimSpace(name); name != "" {
		if len(name) > 100 {
			return shared.InvalidInput("Integration name must be 1-100 characters")
		}
		i.Name = name
	}
	if creds != nil {
		merged := Credentials{}
		for k, v := range i.Credentials {
			merged[k] = v
		}
		for k, v := range creds {
			merged[k] = v
		}
		if err := merged.Validate(i.Platform); err != nil {
			return err
		}
		i.Credentials = merged
	}
	if settings != nil {
		if cursor, ok := i.Settings[settingOrdersCursor]; ok {
			if _, set := settings[settingOrdersCursor]; !set {
				settings[settingOrdersCursor] = cursor
			}
		}
		i.Settings = settings
	}
	i.Touch()
	return nil
}

// Setting keys
const (
	// SettingStorefrontURL is the public shop the pushed products link to
	SettingStorefrontURL = "storefront_url"
	settingOrdersCursor  = "orders_synced_at"
)

// OrdersCursor returns the creation time of the newest pulled order, or the
// zero time before the first order sync
func (i *Integration) OrdersCursor() time.Time {
	t, err := time.Parse(time.RFC3339, i.Settings[settingOrdersCursor])
	if err != nil {
		return time.Time{}
	}
	return t
}

// AdvanceOrdersCursor moves the order cursor forward; it never moves back
func (i *Integration) AdvanceOrdersCursor(t time.Time) {
	if t.IsZero() || !t.After(i.OrdersCursor()) {
		return
	}
	if i.Settings == nil {
		i.Settings = map[string]string{}
	}
	i.Settings[settingOrdersCursor] = t.UTC().Format(time.RFC3339)
}

// SetActive enables or disables the integration
func (i *Integration) SetActive(active bool) {
	if active {
		i.Status = StatusActive
		i.LastError = ""
	} else {
		i.Status = StatusInactive
	}
	i.Touch()
}

// IsActive reports whether the integration may be used
func (i *Integration) IsActive() bool {
	return i.Status == StatusActive || i.Status == StatusError
}

// RecordSync stores the outcome of a sync run
func (i *Integration) RecordSync(result *SyncResult) {
	i.LastSync = result
	if result.Status == SyncStatusFailed {
		i.Status = StatusError
		i.LastError = result.Error
	} else {
		t := result.FinishedAt
		i.LastSyncedAt = &t
		i.Status = StatusActive
		i.LastError = ""
	}
	i.Touch()
}

// RecordError stores a connection or sync failure
func (i *Integration) RecordError(err error) {
	i.Status = StatusError
	i.LastError = err.Error()
	i.Touch()
}
