package services

import (
	"regexp"
	"strings"
)

var deviceIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._\-:]+$`)

// ValidateDeviceID checks a device id and returns it trimmed
func ValidateDeviceID(deviceID string) (string, error) {
	trimmed := strings.TrimSpace(deviceID)
	switch {
	case trimmed == "":
		return "", invalidf("Device ID is required")
	case len(trimmed) < 8:
		return "", invalidf("Device ID must be at least 8 characters long")
	case len(trimmed) > 64:
		return "", invalidf("Device ID cannot exceed 64 characters")
	case !deviceIDPattern.MatchString(deviceID):
		return "", invalidf("Device ID contains invalid characters")
	}
	return trimmed, nil
}

// ValidateCategory checks an optional category name. An empty name is allowed.
func ValidateCategory(category string) (string, error) {
	if category == "" {
		return "", nil
	}
	trimmed := strings.TrimSpace(category)
	switch {
	case len(trimmed) < 2:
		return "", invalidf("Category must be at least 2 characters long")
	case len(trimmed) > 50:
		return "", invalidf("Category cannot exceed 50 characters")
	}
	return trimmed, nil
}
