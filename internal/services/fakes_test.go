package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/brandonhuynh1/eventwish-api/internal/models"
	"github.com/brandonhuynh1/eventwish-api/internal/repository"
	"github.com/lib/pq"
)

// fakeTemplates is an in-memory TemplateRepository
type fakeTemplates struct {
	mu      sync.Mutex
	byID    map[string]*models.Template
	listErr error
}

func newFakeTemplates(templates ...models.Template) *fakeTemplates {
	f := &fakeTemplates{byID: map[string]*models.Template{}}
	for i := range templates {
		t := templates[i]
		f.byID[t.ID] = &t
	}
	return f
}

func (f *fakeTemplates) matching(filter models.TemplateFilter) []models.Template {
	var out []models.Template
	for _, t := range f.byID {
		if filter.ActiveOnly && !t.Status {
			continue
		}
		if filter.Category != "" && t.Category != filter.Category {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if filter.Ascending {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (f *fakeTemplates) List(_ context.Context, filter models.TemplateFilter) ([]models.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := f.matching(filter)
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []models.Template{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	if out == nil {
		out = []models.Template{}
	}
	return out, nil
}

func (f *fakeTemplates) Count(_ context.Context, filter models.TemplateFilter) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.matching(filter)), nil
}

func (f *fakeTemplates) CategoryCounts(_ context.Context, activeOnly bool) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[string]int{}
	for _, t := range f.matching(models.TemplateFilter{ActiveOnly: activeOnly}) {
		counts[t.Category]++
	}
	return counts, nil
}

func (f *fakeTemplates) GetByID(_ context.Context, id string) (*models.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTemplates) Create(_ context.Context, t *models.Template) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	f.byID[t.ID] = &cp
	return nil
}

func (f *fakeTemplates) Update(_ context.Context, id string, patch models.TemplatePatch) (*models.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Category != nil {
		t.Category = *patch.Category
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.Tags != nil {
		t.Tags = pq.StringArray(*patch.Tags)
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTemplates) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeTemplates) AdjustCounter(_ context.Context, id, field string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	var counter *int
	switch field {
	case "usageCount":
		counter = &t.UsageCount
	case "likes":
		counter = &t.Likes
	case "favorites":
		counter = &t.Favorites
	}
	*counter += delta
	if *counter < 0 {
		*counter = 0
	}
	return nil
}

// fakeIcons is an in-memory CategoryIconRepository
type fakeIcons struct {
	byCategory map[string]*models.CategoryIcon
}

func newFakeIcons(icons ...models.CategoryIcon) *fakeIcons {
	f := &fakeIcons{byCategory: map[string]*models.CategoryIcon{}}
	for i := range icons {
		icon := icons[i]
		f.byCategory[icon.Category] = &icon
	}
	return f
}

func (f *fakeIcons) List(context.Context) ([]models.CategoryIcon, error) {
	out := []models.CategoryIcon{}
	for _, icon := range f.byCategory {
		out = append(out, *icon)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (f *fakeIcons) GetByCategory(_ context.Context, category string) (*models.CategoryIcon, error) {
	icon, ok := f.byCategory[category]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *icon
	return &cp, nil
}

func (f *fakeIcons) GetByID(_ context.Context, id string) (*models.CategoryIcon, error) {
	for _, icon := range f.byCategory {
		if icon.ID == id {
			cp := *icon
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeIcons) Create(_ context.Context, icon *models.CategoryIcon) error {
	if _, ok := f.byCategory[icon.Category]; ok {
		return repository.ErrDuplicate
	}
	cp := *icon
	f.byCategory[icon.Category] = &cp
	return nil
}

func (f *fakeIcons) Update(_ context.Context, category string, patch models.CategoryIconPatch) (*models.CategoryIcon, error) {
	icon, ok := f.byCategory[category]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if patch.CategoryIcon != nil {
		icon.CategoryIcon = *patch.CategoryIcon
	}
	if patch.IconType != nil {
		icon.IconType = *patch.IconType
	}
	if patch.ResourceName != nil {
		icon.ResourceName = *patch.ResourceName
	}
	cp := *icon
	return &cp, nil
}

func (f *fakeIcons) Delete(_ context.Context, category string) error {
	if _, ok := f.byCategory[category]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byCategory, category)
	return nil
}

// fakeUsers is an in-memory UserRepository
type fakeUsers struct {
	mu          sync.Mutex
	byDevice    map[string]*models.User
	visits      map[string][]models.CategoryVisit
	engagements []models.EngagementLog
	getErr      error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byDevice: map[string]*models.User{}, visits: map[string][]models.CategoryVisit{}}
}

func (f *fakeUsers) byID(id string) *models.User {
	for _, u := range f.byDevice {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (f *fakeUsers) GetByDeviceID(_ context.Context, deviceID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byDevice[deviceID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	cp.Categories = append([]models.CategoryVisit{}, f.visits[u.ID]...)
	cp.Likes = append(pq.StringArray{}, u.Likes...)
	cp.Favorites = append(pq.StringArray{}, u.Favorites...)
	cp.RecentTemplatesUsed = append(pq.StringArray{}, u.RecentTemplatesUsed...)
	return &cp, nil
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byDevice[u.DeviceID]; ok {
		return repository.ErrDuplicate
	}
	cp := *u
	f.byDevice[u.DeviceID] = &cp
	return nil
}

func (f *fakeUsers) Touch(_ context.Context, userID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.byID(userID)
	if u == nil {
		return repository.ErrNotFound
	}
	u.LastOnline = at
	return nil
}

func (f *fakeUsers) Categories(_ context.Context, userID string) ([]models.CategoryVisit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.CategoryVisit{}, f.visits[userID]...), nil
}

func (f *fakeUsers) VisitCategory(_ context.Context, userID, category, source string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	visits := f.visits[userID]
	for i := range visits {
		if visits[i].Category == category {
			visits[i].VisitCount++
			visits[i].VisitDate = at
			visits[i].Source = source
			return nil
		}
	}
	f.visits[userID] = append(visits, models.CategoryVisit{Category: category, VisitCount: 1, VisitDate: at, Source: source})
	return nil
}

func (f *fakeUsers) RecordView(_ context.Context, userID, templateID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.byID(userID)
	if u == nil {
		return repository.ErrNotFound
	}
	recent := pq.StringArray{templateID}
	for _, id := range u.RecentTemplatesUsed {
		if id != templateID {
			recent = append(recent, id)
		}
	}
	if len(recent) > repository.MaxRecentTemplates {
		recent = recent[:repository.MaxRecentTemplates]
	}
	u.RecentTemplatesUsed = recent
	u.LastActiveTemplate = &templateID
	action := models.ActionView
	u.LastActionOnTemplate = &action
	u.LastOnline = at
	return nil
}

func toggle(set pq.StringArray, id string, add bool) (pq.StringArray, bool) {
	for i, v := range set {
		if v == id {
			if add {
				return set, false
			}
			return append(set[:i:i], set[i+1:]...), true
		}
	}
	if add {
		return append(set, id), true
	}
	return set, false
}

func (f *fakeUsers) ApplyEngagement(_ context.Context, userID, templateID, action string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.byID(userID)
	if u == nil {
		return false, repository.ErrNotFound
	}

	changed := true
	switch action {
	case models.ActionLike:
		u.Likes, changed = toggle(u.Likes, templateID, true)
	case models.ActionUnlike:
		u.Likes, changed = toggle(u.Likes, templateID, false)
	case models.ActionFav:
		u.Favorites, changed = toggle(u.Favorites, templateID, true)
	case models.ActionUnfav:
		u.Favorites, changed = toggle(u.Favorites, templateID, false)
	}
	u.LastActiveTemplate = &templateID
	u.LastActionOnTemplate = &action
	f.engagements = append(f.engagements, models.EngagementLog{UserID: userID, TemplateID: templateID, Action: action, CreatedAt: at})
	return changed, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.byDevice[u.DeviceID]
	if !ok {
		return repository.ErrNotFound
	}
	cp := *u
	cp.Categories = nil
	cp.RecentTemplatesUsed = existing.RecentTemplatesUsed
	f.byDevice[u.DeviceID] = &cp
	return nil
}

// fakeCoins is an in-memory CoinsRepository
type fakeCoins struct {
	mu       sync.Mutex
	accounts map[string]*models.CoinsAccount
	rewards  []models.RewardRecord
}

func newFakeCoins() *fakeCoins {
	return &fakeCoins{accounts: map[string]*models.CoinsAccount{}}
}

func (f *fakeCoins) ensure(deviceID string) *models.CoinsAccount {
	acc, ok := f.accounts[deviceID]
	if !ok {
		acc = &models.CoinsAccount{ID: "acc-" + deviceID, DeviceID: deviceID, UnlockDuration: 30}
		f.accounts[deviceID] = acc
	}
	return acc
}

func (f *fakeCoins) GetOrCreate(_ context.Context, deviceID string) (*models.CoinsAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *f.ensure(deviceID)
	return &cp, nil
}

func (f *fakeCoins) Mutate(_ context.Context, deviceID string, create bool, fn repository.AccountMutation) (*models.CoinsAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var acc *models.CoinsAccount
	if create {
		acc = f.ensure(deviceID)
	} else if existing, ok := f.accounts[deviceID]; ok {
		acc = existing
	} else {
		return nil, repository.ErrNotFound
	}

	working := *acc
	record, err := fn(&working)
	if err != nil {
		return nil, err
	}
	*acc = working
	if record != nil {
		record.AccountID = acc.ID
		f.rewards = append(f.rewards, *record)
	}
	cp := *acc
	return &cp, nil
}

func (f *fakeCoins) RewardHistory(_ context.Context, accountID string, limit int) ([]models.RewardRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.RewardRecord{}
	for i := len(f.rewards) - 1; i >= 0 && len(out) < limit; i-- {
		if f.rewards[i].AccountID == accountID {
			out = append(out, f.rewards[i])
		}
	}
	return out, nil
}

// fakeAdUnits is an in-memory AdUnitRepository
type fakeAdUnits struct {
	mu     sync.Mutex
	byCode map[string]*models.AdUnit
}

func newFakeAdUnits(units ...models.AdUnit) *fakeAdUnits {
	f := &fakeAdUnits{byCode: map[string]*models.AdUnit{}}
	for i := range units {
		u := units[i]
		f.byCode[u.AdUnitCode] = &u
	}
	return f
}

func (f *fakeAdUnits) List(context.Context) ([]models.AdUnit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.AdUnit{}
	for _, u := range f.byCode {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeAdUnits) find(id string) *models.AdUnit {
	for _, u := range f.byCode {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (f *fakeAdUnits) GetByID(_ context.Context, id string) (*models.AdUnit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.find(id)
	if u == nil {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeAdUnits) GetByCode(_ context.Context, code string) (*models.AdUnit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byCode[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeAdUnits) Create(_ context.Context, unit *models.AdUnit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byCode[unit.AdUnitCode]; ok {
		return repository.ErrDuplicate
	}
	cp := *unit
	f.byCode[unit.AdUnitCode] = &cp
	return nil
}

func (f *fakeAdUnits) Update(_ context.Context, id string, patch models.AdUnitPatch) (*models.AdUnit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.find(id)
	if u == nil {
		return nil, repository.ErrNotFound
	}
	if patch.AdName != nil {
		u.AdName = *patch.AdName
	}
	if patch.AdType != nil {
		u.AdType = *patch.AdType
	}
	if patch.Status != nil {
		u.Status = *patch.Status
	}
	cp := *u
	return &cp, nil
}

func (f *fakeAdUnits) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.find(id)
	if u == nil {
		return repository.ErrNotFound
	}
	delete(f.byCode, u.AdUnitCode)
	return nil
}

func (f *fakeAdUnits) IncrementImpressions(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.find(id)
	if u == nil {
		return repository.ErrNotFound
	}
	u.Impressions++
	return nil
}

// fakeCache is an in-memory Cache and Publisher
type fakeCache struct {
	mu        sync.Mutex
	entries   map[string]cacheEntry
	published map[string][]string
	err       error
}

type cacheEntry struct {
	value interface{}
	ttl   time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]cacheEntry{}, published: map[string][]string{}}
}

func (c *fakeCache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return false, c.err
	}
	e, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	if recs, ok := dest.(*models.Recommendations); ok {
		*recs = *(e.value.(*models.Recommendations))
	}
	return true, nil
}

func (c *fakeCache) SetJSON(_ context.Context, key string, v interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.entries[key] = cacheEntry{value: v, ttl: ttl}
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *fakeCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}

func (c *fakeCache) Publish(_ context.Context, channel string, message interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	switch m := message.(type) {
	case []byte:
		c.published[channel] = append(c.published[channel], string(m))
	case string:
		c.published[channel] = append(c.published[channel], m)
	}
	return nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// recordingInvalidator captures recommendation invalidations
type recordingInvalidator struct {
	mu      sync.Mutex
	devices []string
}

func (r *recordingInvalidator) InvalidateUser(_ context.Context, deviceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices = append(r.devices, deviceID)
}

// fakeWishes is an in-memory SharedWishRepository
type fakeWishes struct {
	mu        sync.Mutex
	byCode    map[string]*models.SharedWish
	shares    []models.ShareEvent
	createErr []error
}

func newFakeWishes() *fakeWishes {
	return &fakeWishes{byCode: map[string]*models.SharedWish{}}
}

func (f *fakeWishes) Create(_ context.Context, w *models.SharedWish) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.createErr) > 0 {
		err := f.createErr[0]
		f.createErr = f.createErr[1:]
		return err
	}
	if _, ok := f.byCode[w.ShortCode]; ok {
		return repository.ErrDuplicate
	}
	cp := *w
	f.byCode[w.ShortCode] = &cp
	return nil
}

func (f *fakeWishes) GetByShortCode(_ context.Context, shortCode string) (*models.SharedWish, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.byCode[shortCode]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (f *fakeWishes) RecordView(_ context.Context, shortCode string, viewer models.WishViewer) (*models.SharedWish, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.byCode[shortCode]
	if !ok {
		return nil, repository.ErrNotFound
	}
	w.Views++
	seen := viewer.IP == ""
	for _, ip := range w.ViewerIPs {
		if ip == viewer.IP {
			seen = true
		}
	}
	if !seen {
		w.UniqueViews++
		w.ViewerIPs = append(w.ViewerIPs, viewer.IP)
	}
	if w.Referrer == "" {
		w.Referrer = viewer.Referrer
	}
	if w.DeviceInfo == "" {
		w.DeviceInfo = viewer.UserAgent
	}
	cp := *w
	return &cp, nil
}

func (f *fakeWishes) RecordShare(_ context.Context, shortCode string, ev *models.ShareEvent) (*models.SharedWish, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.byCode[shortCode]
	if !ok {
		return nil, repository.ErrNotFound
	}
	at := ev.Timestamp
	w.SharedVia = ev.Platform
	w.ShareCount++
	w.LastSharedAt = &at
	ev.WishID = w.ID
	f.shares = append(f.shares, *ev)
	cp := *w
	return &cp, nil
}

func (f *fakeWishes) ShareHistory(_ context.Context, wishID string) ([]models.ShareEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.ShareEvent{}
	for _, ev := range f.shares {
		if ev.WishID == wishID {
			out = append(out, ev)
		}
	}
	return out, nil
}
