package parser

import (
	"testing"
)

// BenchmarkParse_Melee benchmarks parsing a melee hit, the first pattern tried.
func BenchmarkParse_Melee(b *testing.B) {
	line := "[Thu Jan 01 00:00:01 2024] You hit Goblin for 75 points of damage."
	pc := Context{Now: fixedNow}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Parse(line, pc)
	}
}

// BenchmarkParse_Heal benchmarks parsing a direct heal, which falls through two patterns.
func BenchmarkParse_Heal(b *testing.B) {
	line := "[Thu Jan 01 00:00:01 2024] Cleric healed Tester for 200 points of damage."
	pc := Context{Now: fixedNow}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Parse(line, pc)
	}
}

// BenchmarkParse_Miss benchmarks the keyword fallback after every pattern fails.
func BenchmarkParse_Miss(b *testing.B) {
	line := "[Thu Jan 01 00:00:01 2024] A rat tries to bite YOU, but misses!"
	pc := Context{Now: fixedNow}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Parse(line, pc)
	}
}

// BenchmarkParse_NoMatch benchmarks a chat line, the most common case.
func BenchmarkParse_NoMatch(b *testing.B) {
	line := "[Thu Jan 01 00:00:01 2024] Tester tells the group, 'pulling now'"
	pc := Context{Now: fixedNow}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Parse(line, pc)
	}
}

// BenchmarkParse_NoTimestamp benchmarks the early exit for lines without a timestamp.
func BenchmarkParse_NoTimestamp(b *testing.B) {
	line := "This is not an EverQuest log line"
	pc := Context{Now: fixedNow}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Parse(line, pc)
	}
}
