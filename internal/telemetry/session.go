package telemetry

import (
	"fmt"
	"strings"
)

// SessionType identifies which session of a race weekend to analyse.
// The values match the session names used by the car data API.
type SessionType string

const (
	SessionRace       SessionType = "Race"
	SessionQualifying SessionType = "Qualifying"
	SessionPractice1  SessionType = "Practice 1"
	SessionPractice2  SessionType = "Practice 2"
	SessionPractice3  SessionType = "Practice 3"
)

// ParseSessionType resolves a session name from a flag or config value.
// Accepts full names ("qualifying") and the usual short forms ("Q", "R",
// "FP1".."FP3"), case-insensitively.
func ParseSessionType(s string) (SessionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "race", "r":
		return SessionRace, nil
	case "qualifying", "quali", "q":
		return SessionQualifying, nil
	case "practice 1", "practice1", "fp1", "p1":
		return SessionPractice1, nil
	case "practice 2", "practice2", "fp2", "p2":
		return SessionPractice2, nil
	case "practice 3", "practice3", "fp3", "p3":
		return SessionPractice3, nil
	}
	return "", fmt.Errorf("unknown session type %q (want race, qualifying, or fp1-fp3)", s)
}

// String returns the API-facing session name.
func (t SessionType) String() string { return string(t) }
