package inventory

import (
	"strconv"

	"github.com/sfms-dev/facility_bot/internal/apperr"
)

func insufficient(name string, left, want int) error {
	return apperr.WithMetadata(apperr.CodeInsufficientStock, "not enough "+name+" in stock", map[string]string{
		"item":      name,
		"available": strconv.Itoa(left),
		"requested": strconv.Itoa(want),
	})
}

func notFoundItem(name string) error {
	return apperr.WithMetadata(apperr.CodeNotFound, "equipment not found", map[string]string{"item": name})
}

func itoa64(n int64) string { return strconv.FormatInt(n, 10) }
