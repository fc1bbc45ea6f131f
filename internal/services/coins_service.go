package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/brandonhuynh1/eventwish-api/internal/config"
	"github.com/brandonhuynh1/eventwish-api/internal/models"
	"github.com/brandonhuynh1/eventwish-api/internal/repository"
	"github.com/rs/zerolog"
)

// Event reasons published on the coins channel
const (
	ReasonReward = "reward"
	ReasonUnlock = "unlock"
	ReasonReport = "report"
	ReasonExpire = "expired"
)

// CoinsChannel is the pub/sub channel carrying a device's balance events
func CoinsChannel(deviceID string) string {
	return "coins:" + deviceID
}

// Balance is a device's coin state as returned to clients
type Balance struct {
	Coins         int         `json:"coins"`
	IsUnlocked    bool        `json:"isUnlocked"`
	RemainingTime int64       `json:"remainingTime"`
	UnlockExpiry  *time.Time  `json:"unlockExpiry"`
	LastReward    *time.Time  `json:"lastReward"`
	Plan          models.Plan `json:"plan"`
}

// RewardInput describes a rewarded ad the client finished watching
type RewardInput struct {
	Amount     int
	AdUnitID   string
	AdName     string
	DeviceInfo json.RawMessage
}

// UnlockResult is the outcome of spending coins on an unlock
type UnlockResult struct {
	IsUnlocked     bool       `json:"isUnlocked"`
	UnlockDuration int        `json:"unlockDuration"`
	RemainingTime  int64      `json:"remainingTime"`
	UnlockExpiry   *time.Time `json:"unlockExpiry"`
	Timestamp      int64      `json:"timestamp"`
	Signature      string     `json:"signature"`
	Coins          int        `json:"coins"`
}

// UnlockValidation is the verdict on a client held unlock
type UnlockValidation struct {
	Valid         bool      `json:"valid"`
	Expired       bool      `json:"expired"`
	UnlockExpiry  time.Time `json:"unlockExpiry"`
	RemainingTime int64     `json:"remainingTime"`
}

// CoinsService handles ad rewards and coin unlocks
type CoinsService struct {
	accounts  repository.CoinsRepository
	adUnits   repository.AdUnitRepository
	publisher Publisher
	plan      models.Plan
	secret    []byte
	onEvent   func(reason string)
	now       func() time.Time
	logger    zerolog.Logger
}

// NewCoinsService creates a new coins service
func NewCoinsService(accounts repository.CoinsRepository, adUnits repository.AdUnitRepository, publisher Publisher, cfg config.CoinsConfig, logger zerolog.Logger) *CoinsService {
	return &CoinsService{
		accounts:  accounts,
		adUnits:   adUnits,
		publisher: publisher,
		plan: models.Plan{
			RequiredCoins:         cfg.RequiredCoins,
			CoinsPerReward:        cfg.CoinsPerReward,
			DefaultUnlockDuration: cfg.DefaultUnlockDuration,
			RewardCooldown:        cfg.RewardCooldownSeconds,
		},
		secret: []byte(cfg.SignatureSecret),
		now:    time.Now,
		logger: logger.With().Str("service", "coins").Logger(),
	}
}

// Plan returns the coin economy settings
func (s *CoinsService) Plan() models.Plan {
	return s.plan
}

// OnEvent registers a hook called for every published balance event
func (s *CoinsService) OnEvent(fn func(reason string)) {
	s.onEvent = fn
}

// ServerTime is the clock unlocks are measured against
func (s *CoinsService) ServerTime() time.Time {
	return s.now()
}

func (s *CoinsService) balance(acc *models.CoinsAccount, now time.Time) *Balance {
	return &Balance{
		Coins:         acc.Coins,
		IsUnlocked:    acc.IsUnlocked,
		RemainingTime: acc.RemainingTime(now).Milliseconds(),
		UnlockExpiry:  acc.UnlockExpiry(),
		LastReward:    acc.LastRewardTimestamp,
		Plan:          s.plan,
	}
}

func unlockExpired(acc *models.CoinsAccount, now time.Time) bool {
	expiry := acc.UnlockExpiry()
	return acc.IsUnlocked && (expiry == nil || !now.Before(*expiry))
}

func clearUnlock(acc *models.CoinsAccount) {
	acc.IsUnlocked = false
	acc.UnlockTimestamp = nil
	acc.UnlockSignature = nil
}

// GetCoins returns the balance, creating the account on first use and
// clearing an unlock that has run out
func (s *CoinsService) GetCoins(ctx context.Context, deviceID string) (*Balance, error) {
	deviceID, err := ValidateDeviceID(deviceID)
	if err != nil {
		return nil, err
	}

	acc, err := s.accounts.GetOrCreate(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if unlockExpired(acc, now) {
		acc, err = s.accounts.Mutate(ctx, deviceID, false, func(acc *models.CoinsAccount) (*models.RewardRecord, error) {
			if unlockExpired(acc, now) {
				clearUnlock(acc)
			}
			return nil, nil
		})
		if err != nil {
			return nil, err
		}
		s.logger.Info().Str("deviceId", deviceID).Msg("Unlock expired")
		s.publish(ctx, acc, ReasonExpire, now)
	}

	return s.balance(acc, now), nil
}

// History returns the most recent rewards credited to a device
func (s *CoinsService) History(ctx context.Context, deviceID string, limit int) ([]models.RewardRecord, error) {
	deviceID, err := ValidateDeviceID(deviceID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	acc, err := s.accounts.GetOrCreate(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return s.accounts.RewardHistory(ctx, acc.ID, limit)
}

// AddCoins credits a rewarded ad. Rewards closer together than the plan's
// cooldown are refused with a CooldownError.
func (s *CoinsService) AddCoins(ctx context.Context, deviceID string, in RewardInput) (*Balance, error) {
	deviceID, err := ValidateDeviceID(deviceID)
	if err != nil {
		return nil, err
	}
	in.AdUnitID = strings.TrimSpace(in.AdUnitID)
	if in.Amount <= 0 || in.AdUnitID == "" {
		return nil, invalidf("Device ID, amount, and adUnitId are required")
	}
	if in.Amount > s.plan.CoinsPerReward {
		return nil, invalidf("A single reward cannot exceed %d coins", s.plan.CoinsPerReward)
	}

	unit, err := s.adUnits.GetByCode(ctx, in.AdUnitID)
	if err != nil {
		return nil, notFound(err, "Ad unit")
	}
	if unit.AdType != models.AdTypeRewarded {
		return nil, invalidf("Only rewarded ads can give coins")
	}
	if !unit.Status {
		return nil, invalidf("Ad unit is inactive")
	}

	adName := in.AdName
	if adName == "" {
		adName = unit.AdName
	}
	deviceInfo := "{}"
	if len(in.DeviceInfo) > 0 && json.Valid(in.DeviceInfo) {
		deviceInfo = string(in.DeviceInfo)
	}

	now := s.now()
	cooldown := time.Duration(s.plan.RewardCooldown) * time.Second
	acc, err := s.accounts.Mutate(ctx, deviceID, true, func(acc *models.CoinsAccount) (*models.RewardRecord, error) {
		if last := acc.LastRewardTimestamp; last != nil {
			if since := now.Sub(*last); since < cooldown {
				return nil, &CooldownError{Wait: cooldown - since}
			}
		}

		acc.Coins += in.Amount
		acc.LastRewardTimestamp = &now
		return &models.RewardRecord{
			AdUnitID:    in.AdUnitID,
			AdName:      adName,
			CoinsEarned: in.Amount,
			DeviceInfo:  deviceInfo,
			Timestamp:   now,
		}, nil
	})
	if err != nil {
		if errors.Is(err, ErrCooldown) {
			s.logger.Warn().Str("deviceId", deviceID).Msg("Suspicious reward activity: claimed reward too quickly")
		}
		return nil, err
	}

	if err := s.adUnits.IncrementImpressions(ctx, unit.ID); err != nil {
		s.logger.Warn().Err(err).Str("adUnit", unit.AdUnitCode).Msg("Failed to count impression")
	}

	s.logger.Info().Str("deviceId", deviceID).Int("amount", in.Amount).Int("coins", acc.Coins).Msg("Coins added")
	s.publish(ctx, acc, ReasonReward, now)
	return s.balance(acc, now), nil
}

// Unlock spends the required coins and unlocks premium content for
// durationDays, or the plan default when durationDays is not positive
func (s *CoinsService) Unlock(ctx context.Context, deviceID string, durationDays int) (*UnlockResult, error) {
	deviceID, err := ValidateDeviceID(deviceID)
	if err != nil {
		return nil, err
	}
	if durationDays <= 0 {
		durationDays = s.plan.DefaultUnlockDuration
	}

	// Signatures carry millisecond timestamps
	now := s.now().Truncate(time.Millisecond)
	var signature string

	acc, err := s.accounts.Mutate(ctx, deviceID, false, func(acc *models.CoinsAccount) (*models.RewardRecord, error) {
		if acc.Coins < s.plan.RequiredCoins {
			return nil, &InsufficientCoinsError{Required: s.plan.RequiredCoins, Current: acc.Coins}
		}

		acc.Coins -= s.plan.RequiredCoins
		acc.IsUnlocked = true
		acc.UnlockTimestamp = &now
		acc.UnlockDuration = durationDays
		signature = SignUnlock(s.secret, deviceID, now.UnixMilli(), durationDays)
		acc.UnlockSignature = &signature
		return nil, nil
	})
	if err != nil {
		return nil, notFound(err, "Coins record")
	}

	s.logger.Info().Str("deviceId", deviceID).Int("days", durationDays).Msg("Feature unlocked")
	s.publish(ctx, acc, ReasonUnlock, now)

	return &UnlockResult{
		IsUnlocked:     true,
		UnlockDuration: durationDays,
		RemainingTime:  acc.RemainingTime(now).Milliseconds(),
		UnlockExpiry:   acc.UnlockExpiry(),
		Timestamp:      now.UnixMilli(),
		Signature:      signature,
		Coins:          acc.Coins,
	}, nil
}

// ValidateUnlock checks a client held unlock against its signature and the
// server clock
func (s *CoinsService) ValidateUnlock(deviceID string, timestampMs int64, durationDays int, signature string) (*UnlockValidation, error) {
	if deviceID == "" || timestampMs <= 0 || durationDays <= 0 || signature == "" {
		return nil, invalidf("Missing required parameters")
	}
	if !VerifyUnlock(s.secret, deviceID, timestampMs, durationDays, signature) {
		s.logger.Warn().Str("deviceId", deviceID).Msg("Invalid unlock signature")
		return nil, ErrInvalidSignature
	}

	now := s.now()
	expiry := time.UnixMilli(timestampMs).UTC().AddDate(0, 0, durationDays)
	expired := now.After(expiry)

	var remaining int64
	if !expired {
		remaining = expiry.Sub(now).Milliseconds()
	}
	return &UnlockValidation{
		Valid:         !expired,
		Expired:       expired,
		UnlockExpiry:  expiry,
		RemainingTime: remaining,
	}, nil
}

// ReportUnlock records an unlock the client granted itself and returns the
// server signature for it
func (s *CoinsService) ReportUnlock(ctx context.Context, deviceID string, timestampMs int64, durationDays int) (string, error) {
	if deviceID == "" || timestampMs <= 0 || durationDays <= 0 {
		return "", invalidf("Missing required parameters")
	}
	deviceID, err := ValidateDeviceID(deviceID)
	if err != nil {
		return "", err
	}

	signature := SignUnlock(s.secret, deviceID, timestampMs, durationDays)
	unlockedAt := time.UnixMilli(timestampMs).UTC()

	acc, err := s.accounts.Mutate(ctx, deviceID, true, func(acc *models.CoinsAccount) (*models.RewardRecord, error) {
		acc.IsUnlocked = true
		acc.UnlockTimestamp = &unlockedAt
		acc.UnlockDuration = durationDays
		acc.UnlockSignature = &signature
		return nil, nil
	})
	if err != nil {
		return "", err
	}

	s.logger.Info().Str("deviceId", deviceID).Int("days", durationDays).Msg("Client unlock reported")
	s.publish(ctx, acc, ReasonReport, s.now())
	return signature, nil
}

// publish sends a balance event. Subscribers are best effort.
func (s *CoinsService) publish(ctx context.Context, acc *models.CoinsAccount, reason string, at time.Time) {
	payload, err := json.Marshal(models.CoinsEvent{
		DeviceID:   acc.DeviceID,
		Coins:      acc.Coins,
		IsUnlocked: acc.IsUnlocked,
		Expiry:     acc.UnlockExpiry(),
		Reason:     reason,
		At:         at,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode coins event")
		return
	}
	if s.onEvent != nil {
		s.onEvent(reason)
	}
	if err := s.publisher.Publish(ctx, CoinsChannel(acc.DeviceID), payload); err != nil {
		s.logger.Warn().Err(err).Str("deviceId", acc.DeviceID).Msg("Failed to publish coins event")
	}
}

// CurrentEvent is the balance snapshot sent when a subscriber connects.
// It never clears an expired unlock, so connecting does not publish.
func (s *CoinsService) CurrentEvent(ctx context.Context, deviceID string) (*models.CoinsEvent, error) {
	deviceID, err := ValidateDeviceID(deviceID)
	if err != nil {
		return nil, err
	}

	acc, err := s.accounts.GetOrCreate(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ev := &models.CoinsEvent{
		DeviceID:   deviceID,
		Coins:      acc.Coins,
		IsUnlocked: acc.IsUnlocked,
		Expiry:     acc.UnlockExpiry(),
		Reason:     "snapshot",
		At:         now,
	}
	if unlockExpired(acc, now) {
		ev.IsUnlocked = false
		ev.Expiry = nil
	}
	return ev, nil
}
