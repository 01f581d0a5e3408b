package shared

import (
	"strconv"
	"strings"

	"facilitydesk/shared/constant"

	"github.com/rs/zerolog/log"
)

const cacheKeySeparator = ":"

func ConvertStringToBool(value string) *bool {
	if value == "" {
		return nil
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Error().Err(err).Msg("failed to convert string to bool")

		return nil
	}

	return &boolValue
}

// IsTrue reports whether value parses as a true boolean; anything else is false.
func IsTrue(value string) bool {
	b := ConvertStringToBool(value)

	return b != nil && *b
}

// ParseID parses a server-assigned identifier. Identifiers are positive.
func ParseID(value string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}

// BuildCacheKey joins a prefix and its parts, skipping empty parts.
func BuildCacheKey(prefix string, parts ...string) string {
	key := prefix

	for _, part := range parts {
		if part == constant.Empty {
			continue
		}

		key += cacheKeySeparator + part
	}

	return key
}
