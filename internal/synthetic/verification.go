package synthetic

import (
	"fmt"
	"sort"

	"github.com/okian/playoffs/internal/domain/model"
)

// Frequencies returns, for each league position in the playoff bracket, the
// observed share of each final position. Index j holds final position j+1.
func Frequencies(records []model.Record) map[int][]float64 {
	counts := make(map[int][]int, PlayoffTeams)
	for _, r := range records {
		if r.LeaguePosition < 1 || r.LeaguePosition > PlayoffTeams {
			continue
		}
		if r.FinalPosition < 1 || r.FinalPosition > PlayoffTeams {
			continue
		}
		c, ok := counts[r.LeaguePosition]
		if !ok {
			c = make([]int, PlayoffTeams)
			counts[r.LeaguePosition] = c
		}
		c[r.FinalPosition-1]++
	}

	out := make(map[int][]float64, len(counts))
	for rank, c := range counts {
		total := 0
		for _, n := range c {
			total += n
		}
		shares := make([]float64, PlayoffTeams)
		for j, n := range c {
			shares[j] = float64(n) / float64(total)
		}
		out[rank] = shares
	}
	return out
}

// verifySeasons checks that every season hands out final positions 1..4 to
// its top four league seeds exactly once.
func verifySeasons(records []model.Record) error {
	finals := make(map[int][]int)
	for _, r := range records {
		if r.LeaguePosition <= PlayoffTeams {
			finals[r.Year] = append(finals[r.Year], r.FinalPosition)
		}
	}
	for year, got := range finals {
		if len(got) != PlayoffTeams {
			return fmt.Errorf("season %d has %d playoff teams", year, len(got))
		}
		sort.Ints(got)
		for i, p := range got {
			if p != i+1 {
				return fmt.Errorf("season %d has final positions %v", year, got)
			}
		}
	}
	return nil
}
