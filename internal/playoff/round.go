package playoff

import (
	"fmt"
)

// Round identifies a stage of the postseason. The zero value is the wild card round.
type Round int

const (
	RoundWildCard Round = iota
	RoundDivisional
	RoundConference
	RoundSuperBowl
	RoundComplete
)

// TotalGames is the number of games in a full postseason.
const TotalGames = 13

var roundNames = [...]string{
	RoundWildCard:   "wild_card",
	RoundDivisional: "divisional",
	RoundConference: "conference",
	RoundSuperBowl:  "super_bowl",
	RoundComplete:   "complete",
}

// Rounds lists the playable rounds in order.
var Rounds = []Round{RoundWildCard, RoundDivisional, RoundConference, RoundSuperBowl}

// Valid reports whether r is one of the declared rounds.
func (r Round) Valid() bool {
	return r >= RoundWildCard && r <= RoundComplete
}

// Playable reports whether games are played in r.
func (r Round) Playable() bool {
	return r >= RoundWildCard && r < RoundComplete
}

// Games returns the structural game count of the round.
func (r Round) Games() int {
	switch r {
	case RoundWildCard:
		return 6
	case RoundDivisional:
		return 4
	case RoundConference:
		return 2
	case RoundSuperBowl:
		return 1
	default:
		return 0
	}
}

// Next returns the round that follows r. Complete is terminal.
func (r Round) Next() Round {
	if r >= RoundComplete {
		return RoundComplete
	}
	return r + 1
}

// Code is the short form used in matchup ids.
func (r Round) Code() string {
	switch r {
	case RoundWildCard:
		return "WC"
	case RoundDivisional:
		return "DIV"
	case RoundConference:
		return "CONF"
	case RoundSuperBowl:
		return "SB"
	default:
		return ""
	}
}

func (r Round) String() string {
	if !r.Valid() {
		return fmt.Sprintf("round(%d)", int(r))
	}
	return roundNames[r]
}

// MarshalText encodes the round by name.
func (r Round) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid round %d", int(r))
	}
	return []byte(roundNames[r]), nil
}

// UnmarshalText decodes a round name.
func (r *Round) UnmarshalText(text []byte) error {
	parsed, err := ParseRound(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRound converts a round name into a Round.
func ParseRound(name string) (Round, error) {
	for i, n := range roundNames {
		if n == name {
			return Round(i), nil
		}
	}
	return 0, fmt.Errorf("unknown round %q", name)
}
