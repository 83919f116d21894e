package parser

import "regexp"

// Timestamp format in EverQuest logs: "[Thu Jan 01 00:00:01 2024]"
const timestampLayout = "Mon Jan 02 15:04:05 2006"

// Compiled regex patterns for event detection.
var (
	// Matches the leading "[...]" token. Captures: (1) bracket contents
	timestampPattern = regexp.MustCompile(`^\s*\[([^\]]*)\]`)

	// Matches: "You have entered The Plane of Fear."
	// Captures: (1) zone name, untrimmed
	zonePattern = regexp.MustCompile(`You have entered (.*)`)

	// Matches: "You slash a rat for 50 points of damage."
	// Names are single word tokens, so "a young wolf bites" captures "wolf".
	// Captures: (1) actor, (2) target, (3) amount
	meleePattern = regexp.MustCompile(
		`(?i)(\w+) (?:hit|hits|slash|slashes|pierce|pierces|crush|crushes|bite|bites|claw|claws|punch|punches|kick|kicks) (\w+) for (\d+) points of damage`,
	)

	// Matches: "Goblin is struck by Lightning Bolt for 120 points of damage."
	// Captures: (1) target, (2) spell name, (3) amount
	spellPattern = regexp.MustCompile(
		`(?i)(\w+) is struck by (.+?) for (\d+) points of damage`,
	)

	// Matches either:
	//   "Tester has been healed over time for 30 points of damage."
	//   "Cleric healed Tester for 200 points of damage."
	// Captures: (1) target, (2) amount for heal over time;
	// (3) source, (4) target, (5) amount for direct heals
	healPattern = regexp.MustCompile(
		`(?i)(\w+) has been healed over time for (\d+) points of damage|(\w+) healed (\w+) for (\d+) points of damage`,
	)
)

// missKeywords are lowercase substrings that mark an unmatched line as a miss.
var missKeywords = []string{"miss", "dodge", "parry", "block"}
