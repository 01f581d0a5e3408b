package base64

import (
	stdBase64 "encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	dataURLPrefix   = "data:"
	base64Separator = ";base64,"
)

var ErrNotDataURL = errors.New("value is not a base64 data URL")

func GetContentType(file string) string {
	start := len(dataURLPrefix)
	end := strings.Index(file, base64Separator)

	if !strings.HasPrefix(file, dataURLPrefix) || end == -1 || end < start {
		return ""
	}

	return file[start:end]
}

// IsDataURL reports whether value looks like data:<mime>;base64,<payload>.
func IsDataURL(value string) bool {
	return GetContentType(value) != ""
}

// Decode splits a data URL into its content type and decoded payload.
func Decode(value string) (contentType string, data []byte, err error) {
	contentType = GetContentType(value)
	if contentType == "" {
		return "", nil, ErrNotDataURL
	}

	payload := value[strings.Index(value, base64Separator)+len(base64Separator):]

	data, err = stdBase64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode base64: %w", err)
	}

	return contentType, data, nil
}
