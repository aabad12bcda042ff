package tools

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	apperrors "github.com/linearmcp/linear-mcp/internal/errors"
)

func requiredString(req mcp.CallToolRequest, key string) (string, error) {
	value := strings.TrimSpace(optionalString(req, key))
	if value == "" {
		return "", apperrors.NewValidationError(fmt.Sprintf("%s is required", key))
	}
	return value, nil
}

func optionalString(req mcp.CallToolRequest, key string) string {
	switch v := req.GetArguments()[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// optionalNumber accepts JSON numbers and numeric strings.
func optionalNumber(req mcp.CallToolRequest, key string) (*float64, error) {
	raw, ok := req.GetArguments()[key]
	if !ok || raw == nil {
		return nil, nil
	}

	var value float64
	switch v := raw.(type) {
	case float64:
		value = v
	case int:
		value = float64(v)
	case int64:
		value = float64(v)
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("%s must be a number", key))
		}
		value = parsed
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("%s must be a number", key))
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("%s must be a number", key))
	}
	return &value, nil
}

func optionalInt(req mcp.CallToolRequest, key string) (*int, error) {
	value, err := optionalNumber(req, key)
	if err != nil || value == nil {
		return nil, err
	}
	if *value != math.Trunc(*value) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("%s must be a whole number", key))
	}
	n := int(*value)
	return &n, nil
}

// optionalStrings accepts an array of strings or a comma separated string.
func optionalStrings(req mcp.CallToolRequest, key string) []string {
	var values []string
	switch v := req.GetArguments()[key].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				values = append(values, s)
			}
		}
	case []string:
		values = v
	case string:
		values = strings.Split(v, ",")
	}

	out := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
