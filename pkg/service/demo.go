package service

import (
	"context"
	"fmt"
)

// NewDemoRegistry builds a Registry with the three simulated
// business-service stubs used by the sample scenarios: hospital,
// restaurant, and theater booking. These exist only to give example
// scripts something to Call — a real deployment registers its own
// Funcs against a Registry built with NewRegistry.
func NewDemoRegistry() *Registry {
	r := NewRegistry()
	r.Register("hospital.book", hospitalBook)
	r.Register("restaurant.reserve", restaurantReserve)
	r.Register("theater.book", theaterBook)
	return r
}

func hospitalBook(ctx context.Context, args []Value, call CallContext) Value {
	department := argString(args, 0, "general")
	return map[string]any{
		"confirmation": fmt.Sprintf("HOSP-%s-%04d", abbreviate(department), len(call.SessionID)%10000),
		"department":   department,
		"status":       "booked",
	}
}

func restaurantReserve(ctx context.Context, args []Value, call CallContext) Value {
	partySize := argString(args, 0, "2")
	return map[string]any{
		"confirmation": fmt.Sprintf("REST-%04d", len(partySize)*137%10000),
		"party_size":   partySize,
		"status":       "reserved",
	}
}

func theaterBook(ctx context.Context, args []Value, call CallContext) Value {
	showing := argString(args, 0, "evening")
	return map[string]any{
		"confirmation": fmt.Sprintf("THTR-%s", abbreviate(showing)),
		"showing":      showing,
		"status":       "booked",
	}
}

func argString(args []Value, i int, def string) string {
	if i >= len(args) || args[i] == nil {
		return def
	}
	if s, ok := args[i].(string); ok {
		return s
	}
	return fmt.Sprint(args[i])
}

func abbreviate(s string) string {
	if len(s) > 4 {
		return s[:4]
	}
	return s
}
