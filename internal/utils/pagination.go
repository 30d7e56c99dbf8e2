// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import (
	"fmt"
	"strconv"
)

// ParseIntDefault converts a query value to an int. An empty string yields
// def; anything else must be a base-10 integer.
//
// Example:
//
//	n, _ := utils.ParseIntDefault("42", 1) // 42
//	n, _ = utils.ParseIntDefault("", 10)   // 10
//	_, err := utils.ParseIntDefault("x", 5) // err != nil
func ParseIntDefault(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return n, nil
}
