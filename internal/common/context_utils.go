package common

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const (
	UserNameKey    contextKey = "user_name"
	HouseholdIDKey contextKey = "household_id"
)

// GetUserNameFromContext extracts the acting user's display name from the
// request context. Audit records always need an author, so an unset value
// comes back as "system" rather than failing the mutation.
func GetUserNameFromContext(ctx context.Context) string {
	userName, ok := ctx.Value(UserNameKey).(string)
	if !ok || userName == "" {
		return "system"
	}
	return userName
}

// GetHouseholdIDFromContext extracts the household ID from the request context
func GetHouseholdIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	householdID, ok := ctx.Value(HouseholdIDKey).(uuid.UUID)
	return householdID, ok
}

// ValidateUUID validates UUID format
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, fmt.Errorf("%s is required: %w", fieldName, ErrInvalidArgument)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s is not a valid UUID: %w", fieldName, ErrInvalidArgument)
	}

	return id, nil
}

// ValidateRequiredString validates required string fields
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required: %w", fieldName, ErrInvalidArgument)
	}
	return nil
}

// ValidatePaginationParams validates pagination parameters
func ValidatePaginationParams(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50 // Default
	}
	if limit > 1000 {
		limit = 1000 // Maximum
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
