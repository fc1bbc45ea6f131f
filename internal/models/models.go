package models

import (
	"time"

	"github.com/lib/pq"
)

// Template is a greeting card template
type Template struct {
	ID             string         `json:"id" db:"id"`
	Title          string         `json:"title" db:"title"`
	Category       string         `json:"category" db:"category"`
	HTMLContent    string         `json:"htmlContent" db:"html_content"`
	CSSContent     string         `json:"cssContent" db:"css_content"`
	JSContent      string         `json:"jsContent" db:"js_content"`
	PreviewURL     string         `json:"previewUrl" db:"preview_url"`
	Status         bool           `json:"status" db:"status"`
	IsPremium      bool           `json:"isPremium" db:"is_premium"`
	FestivalTag    string         `json:"festivalTag" db:"festival_tag"`
	Tags           pq.StringArray `json:"tags" db:"tags"`
	CategoryIconID *string        `json:"categoryIconId,omitempty" db:"category_icon_id"`
	CategoryIcon   *CategoryIcon  `json:"categoryIcon,omitempty" db:"-"`
	UsageCount     int            `json:"usageCount" db:"usage_count"`
	Likes          int            `json:"likes" db:"likes"`
	Favorites      int            `json:"favorites" db:"favorites"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time      `json:"updatedAt" db:"updated_at"`
}

// TemplatePatch carries the fields of a partial template update.
// Nil fields are left untouched.
type TemplatePatch struct {
	Title          *string   `json:"title"`
	Category       *string   `json:"category"`
	HTMLContent    *string   `json:"htmlContent"`
	CSSContent     *string   `json:"cssContent"`
	JSContent      *string   `json:"jsContent"`
	PreviewURL     *string   `json:"previewUrl"`
	Status         *bool     `json:"status"`
	IsPremium      *bool     `json:"isPremium"`
	FestivalTag    *string   `json:"festivalTag"`
	Tags           *[]string `json:"tags"`
	CategoryIconID *string   `json:"categoryIconId"`
}

// TemplateFilter narrows template listings
type TemplateFilter struct {
	Category   string
	Search     string
	ActiveOnly bool
	SortField  string
	Ascending  bool
	Limit      int
	Offset     int
}

// TemplatePage is a page of templates plus pagination metadata
type TemplatePage struct {
	Data           []Template     `json:"data"`
	Page           int            `json:"page"`
	Limit          int            `json:"limit,omitempty"`
	TotalPages     int            `json:"totalPages"`
	TotalItems     int            `json:"totalItems"`
	HasMore        bool           `json:"hasMore"`
	Categories     map[string]int `json:"categories,omitempty"`
	TotalTemplates int            `json:"totalTemplates,omitempty"`
}

// CategoryIcon is the icon shown for a template category
type CategoryIcon struct {
	ID           string    `json:"id" db:"id"`
	Category     string    `json:"category" db:"category"`
	CategoryIcon string    `json:"categoryIcon" db:"category_icon"`
	IconType     string    `json:"iconType" db:"icon_type"`
	ResourceName string    `json:"resourceName" db:"resource_name"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// CategoryIconPatch carries the fields of a partial icon update
type CategoryIconPatch struct {
	CategoryIcon *string `json:"categoryIcon"`
	IconType     *string `json:"iconType"`
	ResourceName *string `json:"resourceName"`
}

// Icon types
const (
	IconTypeURL      = "URL"
	IconTypeResource = "RESOURCE"
)

// User is an app installation, identified by its device id
type User struct {
	ID                   string          `json:"id" db:"id"`
	DeviceID             string          `json:"deviceId" db:"device_id"`
	UID                  *string         `json:"uid,omitempty" db:"uid"`
	DisplayName          string          `json:"displayName" db:"display_name"`
	Email                string          `json:"email" db:"email"`
	ProfilePhoto         string          `json:"profilePhoto" db:"profile_photo"`
	PreferredTheme       string          `json:"preferredTheme" db:"preferred_theme"`
	PreferredLanguage    string          `json:"preferredLanguage" db:"preferred_language"`
	Timezone             string          `json:"timezone" db:"timezone"`
	AllowFestivalPush    bool            `json:"-" db:"allow_festival_push"`
	AllowPersonalPush    bool            `json:"-" db:"allow_personal_push"`
	PushPreferences      PushPreferences `json:"pushPreferences" db:"-"`
	LastOnline           time.Time       `json:"lastOnline" db:"last_online"`
	Created              time.Time       `json:"created" db:"created"`
	LastActiveTemplate   *string         `json:"lastActiveTemplate,omitempty" db:"last_active_template"`
	LastActionOnTemplate *string         `json:"lastActionOnTemplate,omitempty" db:"last_action_on_template"`
	RecentTemplatesUsed  pq.StringArray  `json:"recentTemplatesUsed" db:"recent_templates_used"`
	Likes                pq.StringArray  `json:"likes" db:"likes"`
	Favorites            pq.StringArray  `json:"favorites" db:"favorites"`
	Categories           []CategoryVisit `json:"categories" db:"-"`
}

// PushPreferences controls which notifications a user receives
type PushPreferences struct {
	AllowFestivalPush bool `json:"allowFestivalPush"`
	AllowPersonalPush bool `json:"allowPersonalPush"`
}

// CategoryVisit aggregates a user's visits to one category
type CategoryVisit struct {
	Category   string    `json:"category" db:"category"`
	VisitCount int       `json:"visitCount" db:"visit_count"`
	VisitDate  time.Time `json:"visitDate" db:"visit_date"`
	Source     string    `json:"source" db:"source"`
}

// Visit sources
const (
	SourceDirect   = "direct"
	SourceTemplate = "template"
)

// Template actions recorded on a user
const (
	ActionView   = "VIEW"
	ActionLike   = "LIKE"
	ActionUnlike = "UNLIKE"
	ActionFav    = "FAV"
	ActionUnfav  = "UNFAV"
	ActionShare  = "SHARE"
)

// EngagementLog is a single template interaction
type EngagementLog struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"userId" db:"user_id"`
	TemplateID string    `json:"templateId" db:"template_id"`
	Action     string    `json:"action" db:"action"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// ProfileUpdate is the set of profile fields a user may change
type ProfileUpdate struct {
	DisplayName       *string          `json:"displayName"`
	Email             *string          `json:"email"`
	ProfilePhoto      *string          `json:"profilePhoto"`
	PreferredTheme    *string          `json:"preferredTheme"`
	PreferredLanguage *string          `json:"preferredLanguage"`
	Timezone          *string          `json:"timezone"`
	PushPreferences   *PushPreferences `json:"pushPreferences"`
}

// CoinsAccount holds a device's coin balance and unlock state
type CoinsAccount struct {
	ID                  string     `json:"id" db:"id"`
	DeviceID            string     `json:"deviceId" db:"device_id"`
	Coins               int        `json:"coins" db:"coins"`
	IsUnlocked          bool       `json:"isUnlocked" db:"is_unlocked"`
	UnlockTimestamp     *time.Time `json:"unlockTimestamp,omitempty" db:"unlock_timestamp"`
	UnlockDuration      int        `json:"unlockDuration" db:"unlock_duration"`
	UnlockSignature     *string    `json:"-" db:"unlock_signature"`
	LastRewardTimestamp *time.Time `json:"lastRewardTimestamp,omitempty" db:"last_reward_timestamp"`
	CreatedAt           time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time  `json:"updatedAt" db:"updated_at"`
}

// UnlockExpiry returns when the current unlock ends, or nil when locked
func (a *CoinsAccount) UnlockExpiry() *time.Time {
	if !a.IsUnlocked || a.UnlockTimestamp == nil {
		return nil
	}
	expiry := a.UnlockTimestamp.AddDate(0, 0, a.UnlockDuration)
	return &expiry
}

// RemainingTime returns the unlock time left at now
func (a *CoinsAccount) RemainingTime(now time.Time) time.Duration {
	expiry := a.UnlockExpiry()
	if expiry == nil || !now.Before(*expiry) {
		return 0
	}
	return expiry.Sub(now)
}

// RewardRecord is one credited ad reward
type RewardRecord struct {
	ID          string    `json:"id" db:"id"`
	AccountID   string    `json:"-" db:"account_id"`
	AdUnitID    string    `json:"adUnitId" db:"ad_unit_id"`
	AdName      string    `json:"adName" db:"ad_name"`
	CoinsEarned int       `json:"coinsEarned" db:"coins_earned"`
	DeviceInfo  string    `json:"deviceInfo" db:"device_info"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
}

// AdUnit is a configured AdMob ad unit
type AdUnit struct {
	ID          string    `json:"id" db:"id"`
	AdUnitCode  string    `json:"adUnitCode" db:"ad_unit_code"`
	AdName      string    `json:"adName" db:"ad_name"`
	AdType      string    `json:"adType" db:"ad_type"`
	Status      bool      `json:"status" db:"status"`
	Impressions int       `json:"impressions" db:"impressions"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// AdUnitInput is the body of an ad unit create. Status defaults to active.
type AdUnitInput struct {
	AdUnitCode string `json:"adUnitCode"`
	AdName     string `json:"adName"`
	AdType     string `json:"adType"`
	Status     *bool  `json:"status"`
}

// AdUnitPatch carries the fields of a partial ad unit update
type AdUnitPatch struct {
	AdName *string `json:"adName"`
	AdType *string `json:"adType"`
	Status *bool   `json:"status"`
}

// Ad types
const (
	AdTypeRewarded     = "Rewarded"
	AdTypeBanner       = "Banner"
	AdTypeInterstitial = "Interstitial"
	AdTypeNative       = "Native"
	AdTypeAppOpen      = "AppOpen"
)

// Plan is the coin economy configuration sent to clients
type Plan struct {
	RequiredCoins         int `json:"requiredCoins"`
	CoinsPerReward        int `json:"coinsPerReward"`
	DefaultUnlockDuration int `json:"defaultUnlockDuration"`
	RewardCooldown        int `json:"rewardCooldown"`
}

// CoinsEvent is published whenever a device balance changes
type CoinsEvent struct {
	DeviceID   string     `json:"deviceId"`
	Coins      int        `json:"coins"`
	IsUnlocked bool       `json:"isUnlocked"`
	Expiry     *time.Time `json:"unlockExpiry,omitempty"`
	Reason     string     `json:"reason"`
	At         time.Time  `json:"at"`
}

// TopCategory is a scored category in a recommendation response
type TopCategory struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
	Weight   int     `json:"weight"`
}

// Recommendations is the recommendation payload returned to clients
type Recommendations struct {
	Templates     []Template    `json:"templates"`
	TopCategories []TopCategory `json:"topCategories"`
	IsDefault     bool          `json:"isDefault"`
	Error         bool          `json:"error,omitempty"`
	LastUpdated   time.Time     `json:"lastUpdated"`
}

// SharedWish is a personalized card reachable by its short code
type SharedWish struct {
	ID             string         `json:"id" db:"id"`
	ShortCode      string         `json:"shortCode" db:"short_code"`
	TemplateID     *string        `json:"templateId" db:"template_id"`
	Template       *Template      `json:"template,omitempty" db:"-"`
	RecipientName  string         `json:"recipientName" db:"recipient_name"`
	SenderName     string         `json:"senderName" db:"sender_name"`
	CustomizedHTML string         `json:"customizedHtml" db:"customized_html"`
	CSSContent     string         `json:"cssContent" db:"css_content"`
	JSContent      string         `json:"jsContent" db:"js_content"`
	PreviewURL     string         `json:"previewUrl" db:"preview_url"`
	Views          int            `json:"views" db:"views"`
	UniqueViews    int            `json:"uniqueViews" db:"unique_views"`
	ViewerIPs      pq.StringArray `json:"-" db:"viewer_ips"`
	Referrer       string         `json:"referrer" db:"referrer"`
	DeviceInfo     string         `json:"deviceInfo" db:"device_info"`
	SharedVia      string         `json:"sharedVia" db:"shared_via"`
	ShareCount     int            `json:"shareCount" db:"share_count"`
	LastSharedAt   *time.Time     `json:"lastSharedAt,omitempty" db:"last_shared_at"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time      `json:"updatedAt" db:"updated_at"`
}

// SharedWishInput is the body of a wish create
type SharedWishInput struct {
	TemplateID     string `json:"templateId"`
	RecipientName  string `json:"recipientName"`
	SenderName     string `json:"senderName"`
	CustomizedHTML string `json:"customizedHtml"`
	CSSContent     string `json:"cssContent"`
	JSContent      string `json:"jsContent"`
}

// WishViewer identifies who opened a shared wish
type WishViewer struct {
	IP        string
	Referrer  string
	UserAgent string
}

// ShareEvent records one re-share of a wish
type ShareEvent struct {
	ID        string    `json:"-" db:"id"`
	WishID    string    `json:"-" db:"wish_id"`
	Platform  string    `json:"platform" db:"platform"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// WishAnalytics summarizes the reach of a shared wish
type WishAnalytics struct {
	ShortCode         string         `json:"shortCode"`
	Views             int            `json:"views"`
	UniqueViews       int            `json:"uniqueViews"`
	ShareCount        int            `json:"shareCount"`
	LastSharedAt      *time.Time     `json:"lastSharedAt"`
	ShareHistory      []ShareEvent   `json:"shareHistory"`
	ConversionRate    float64        `json:"conversionRate"`
	PlatformBreakdown map[string]int `json:"platformBreakdown"`
}
