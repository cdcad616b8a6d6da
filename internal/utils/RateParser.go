package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ParseRate parses "<limit>/<n><unit>" such as "45/1m" into the number of
// events and the window length.
func ParseRate(s string) (int, time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected rate format: %s", s)
	}
	limit, err := strconv.Atoi(parts[0])
	if err != nil || limit <= 0 {
		return 0, 0, fmt.Errorf("unexpected rate format: %s", s)
	}

	timeStr := parts[1]
	if len(timeStr) < 2 {
		return 0, 0, fmt.Errorf("unexpected time format: %s", timeStr)
	}
	unit := timeStr[len(timeStr)-1]
	numPart := timeStr[:len(timeStr)-1]
	value, err := strconv.Atoi(numPart)
	if err != nil || value <= 0 {
		return 0, 0, fmt.Errorf("unexpected time format: %s", timeStr)
	}
	var window time.Duration
	switch unit {
	case 's':
		window = time.Duration(value) * time.Second
	case 'm':
		window = time.Duration(value) * time.Minute
	case 'h':
		window = time.Duration(value) * time.Hour
	default:
		return 0, 0, fmt.Errorf("unexpected time unit: %s", string(unit))
	}
	return limit, window, nil
}

// NewRateLimiter builds a token bucket from a rate string. An empty string
// means unlimited.
func NewRateLimiter(s string) (*rate.Limiter, error) {
	if strings.TrimSpace(s) == "" {
		return rate.NewLimiter(rate.Inf, 0), nil
	}
	limit, window, err := ParseRate(s)
	if err != nil {
		return nil, err
	}
	return rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit), nil
}
