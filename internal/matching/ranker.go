// Package matching ranks target catalog search results against a source track.
//
// Every candidate gets a composite score:
//
//	0.5*title + 0.35*artist + 0.15*duration + bonus
//
// where title and artist are [similarity.Ratio] values, duration decays linearly
// from 1 to 0 over a 45 second difference, and bonus is 0.25 for "song" results.
// The best candidate with a playable id is accepted when its score reaches
// 1 - AcceptableFuzz.
package matching

import (
	"math"
	"strconv"
	"strings"

	"github.com/desertthunder/ytmigrate/internal/models"
	"github.com/desertthunder/ytmigrate/internal/similarity"
)

const (
	DefaultAcceptableFuzz = 0.34
	DefaultMaxCandidates  = 5

	titleWeight    = 0.5
	artistWeight   = 0.35
	durationWeight = 0.15
	songBonus      = 0.25

	// seconds of difference at which the duration score reaches zero
	durationWindow = 45.0
)

// Breakdown is the per-field scoring of one candidate.
type Breakdown struct {
	Title     float64
	Artist    float64
	Duration  float64
	TypeBonus float64
	Composite float64
}

// Scores converts the breakdown for the audit log.
func (b Breakdown) Scores() models.Scores {
	return models.Scores(b)
}

// Selection is the outcome of ranking a candidate list.
//
// Candidate and Best describe the running winner even when it fell short of the
// acceptance floor; Candidate is nil when no candidate had a playable id.
type Selection struct {
	Decision  models.Decision
	Best      Breakdown
	Candidate *models.Candidate
	Ranked    int
}

// Ranker selects the best candidate for a source track.
type Ranker struct {
	AcceptableFuzz float64
	MaxCandidates  int
}

// NewRanker returns a ranker with the default fuzz and candidate bound.
func NewRanker() Ranker {
	return Ranker{AcceptableFuzz: DefaultAcceptableFuzz, MaxCandidates: DefaultMaxCandidates}
}

// Threshold is the lowest composite score that is accepted.
func (r Ranker) Threshold() float64 {
	return 1 - r.AcceptableFuzz
}

// Score computes the breakdown of c against src.
func (r Ranker) Score(src models.SourceTrack, c models.Candidate) Breakdown {
	b := Breakdown{
		Title:    similarity.Ratio(c.Title, src.Name),
		Artist:   math.Max(similarity.Ratio(c.ArtistLine(), src.ArtistLine()), 0),
		Duration: durationScore(src.DurationMS, c.Duration),
	}
	if c.ResultType == "song" {
		b.TypeBonus = songBonus
	}
	b.Composite = titleWeight*b.Title + artistWeight*b.Artist + durationWeight*b.Duration + b.TypeBonus
	return b
}

// SelectBest ranks candidates in the order given and returns the accepted match, if any.
//
// Only the first MaxCandidates entries are considered. A candidate becomes the
// running winner only when its score is strictly higher than the current best and
// it has a playable id, so ties keep the earliest candidate.
func (r Ranker) SelectBest(src models.SourceTrack, candidates []models.Candidate) Selection {
	if r.MaxCandidates > 0 && len(candidates) > r.MaxCandidates {
		candidates = candidates[:r.MaxCandidates]
	}

	sel := Selection{Decision: models.NoMatch, Ranked: len(candidates)}
	bestScore := math.Inf(-1)

	for i := range candidates {
		c := candidates[i]
		if c.PlayableID() == "" {
			continue
		}

		b := r.Score(src, c)
		if b.Composite > bestScore {
			bestScore = b.Composite
			sel.Best = b
			sel.Candidate = &c
		}
	}

	if sel.Candidate != nil && bestScore >= r.Threshold() {
		sel.Decision = models.Decision{VideoID: sel.Candidate.PlayableID()}
	}
	return sel
}

// ParseDuration converts an "m:ss" display duration into milliseconds.
//
// Any other shape is unparseable, as is a duration of zero.
func ParseDuration(s string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, false
	}

	minutes, err := strconv.Atoi(parts[0])
	if err != nil || minutes < 0 {
		return 0, false
	}
	seconds, err := strconv.Atoi(parts[1])
	if err != nil || seconds < 0 {
		return 0, false
	}

	ms := (minutes*60 + seconds) * 1000
	if ms == 0 {
		return 0, false
	}
	return ms, true
}

func durationScore(sourceMS int, display string) float64 {
	if sourceMS <= 0 || display == "" {
		return 0
	}
	candidateMS, ok := ParseDuration(display)
	if !ok {
		return 0
	}

	diff := math.Abs(float64(sourceMS-candidateMS)) / 1000
	return math.Max(0, 1-diff/durationWindow)
}
