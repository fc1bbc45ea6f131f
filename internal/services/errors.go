package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/brandonhuynh1/eventwish-api/internal/repository"
)

var (
	ErrNotFound          = repository.ErrNotFound
	ErrConflict          = repository.ErrDuplicate
	ErrInvalidInput      = errors.New("invalid input")
	ErrForbidden         = errors.New("forbidden")
	ErrInsufficientCoins = errors.New("not enough coins")
	ErrCooldown          = errors.New("reward cooldown active")
	ErrInvalidSignature  = errors.New("invalid signature")
)

// ValidationError is a client input problem with a user facing message
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is makes errors.Is(err, ErrInvalidInput) match
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

func invalidf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError names the missing resource
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// notFound replaces a bare repository miss with a named one
func notFound(err error, resource string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Resource: resource}
	}
	return err
}

// CooldownError is returned when a reward is claimed too soon
type CooldownError struct {
	Wait time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("reward cooldown active, wait %ds", e.WaitSeconds())
}

func (e *CooldownError) Is(target error) bool { return target == ErrCooldown }

// WaitSeconds rounds the remaining wait up to whole seconds
func (e *CooldownError) WaitSeconds() int {
	return int(math.Ceil(e.Wait.Seconds()))
}

// InsufficientCoinsError reports the balance shortfall for an unlock
type InsufficientCoinsError struct {
	Required int
	Current  int
}

func (e *InsufficientCoinsError) Error() string {
	return fmt.Sprintf("not enough coins: have %d, need %d", e.Current, e.Required)
}

func (e *InsufficientCoinsError) Is(target error) bool { return target == ErrInsufficientCoins }
