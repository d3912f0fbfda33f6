package tasks

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmigrate/internal/batch"
	"github.com/desertthunder/ytmigrate/internal/checkpoint"
	"github.com/desertthunder/ytmigrate/internal/formatter"
	"github.com/desertthunder/ytmigrate/internal/matching"
	"github.com/desertthunder/ytmigrate/internal/metrics"
	"github.com/desertthunder/ytmigrate/internal/models"
	"github.com/desertthunder/ytmigrate/internal/repositories"
	"github.com/desertthunder/ytmigrate/internal/retry"
	"github.com/desertthunder/ytmigrate/internal/shared"
	tu "github.com/desertthunder/ytmigrate/internal/testing"
)

var (
	heyJude   = models.SourceTrack{ID: "sp-1", Name: "Hey Jude", Artists: []string{"The Beatles"}, DurationMS: 431000}
	letItBe   = models.SourceTrack{ID: "sp-2", Name: "Let It Be", Artists: []string{"The Beatles"}, DurationMS: 243000}
	obscure   = models.SourceTrack{ID: "sp-3", Name: "Untitled Demo", Artists: []string{"Nobody"}, DurationMS: 100000}
	likedSong = models.SourceTrack{ID: "sp-4", Name: "Yesterday", Artists: []string{"The Beatles"}, DurationMS: 125000}
)

func catalogResults() map[string][]models.Candidate {
	return map[string][]models.Candidate{
		matching.Query(heyJude):   {tu.Song("v-jude", "Hey Jude", "The Beatles", "7:11")},
		matching.Query(letItBe):   {tu.Song("v-let", "Let It Be", "The Beatles", "4:03")},
		matching.Query(likedSong): {tu.Song("v-yest", "Yesterday", "The Beatles", "2:05")},
	}
}

func newSource() *tu.FakeSource {
	return &tu.FakeSource{
		Playlists: []models.PlaylistDescriptor{
			{ID: "pl-road", Name: "Road Trip", Description: "windows down"},
			{ID: "pl-chill", Name: "Chill"},
		},
		Tracks: map[string][]models.SourceTrack{
			"pl-road":  {heyJude, letItBe, obscure},
			"pl-chill": {letItBe},
		},
		Liked: []models.SourceTrack{likedSong},
	}
}

type harness struct {
	source     *tu.FakeSource
	target     *tu.FakeTarget
	statePath  string
	reportPath string
	opts       EngineOpts
}

func newHarness(t *testing.T, source *tu.FakeSource, target *tu.FakeTarget) *harness {
	t.Helper()
	dir := t.TempDir()
	return &harness{
		source:     source,
		target:     target,
		statePath:  filepath.Join(dir, "transfer_state.json"),
		reportPath: filepath.Join(dir, "failures.csv"),
	}
}

// engine opens the checkpoint file fresh, the way every process start does.
func (h *harness) engine(t *testing.T) *Engine {
	t.Helper()
	cp, err := checkpoint.Open(checkpoint.NewFileStore(h.statePath))
	if err != nil {
		t.Fatalf("failed to open checkpoint: %v", err)
	}

	opts := h.opts
	opts.Source = h.source
	opts.Target = h.target
	opts.Checkpoint = cp
	opts.Resolver = matching.Resolver{
		Search: h.target.Search,
		Ranker: matching.NewRanker(),
		Retry:  retry.Policy{Attempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
	}
	opts.Mutator = &batch.Mutator{Target: h.target}
	opts.Reporter = formatter.NewFailureReport(h.reportPath)
	opts.Logger = log.New(&strings.Builder{})
	return NewEngine(opts)
}

func (h *harness) state(t *testing.T) *checkpoint.State {
	t.Helper()
	st, err := checkpoint.NewFileStore(h.statePath).Load()
	if err != nil {
		t.Fatalf("failed to load checkpoint: %v", err)
	}
	return st
}

func TestEngine_Sync(t *testing.T) {
	t.Run("rerun performs no searches and no mutations", func(t *testing.T) {
		h := newHarness(t, newSource(), &tu.FakeTarget{Results: catalogResults()})

		first, err := h.engine(t).Sync(context.Background(), SyncOpts{}, nil)
		if err != nil {
			t.Fatalf("first Sync() error = %v", err)
		}
		if len(first.Playlists) != 3 {
			t.Fatalf("expected Road Trip, Chill and Liked Songs, got %d playlists", len(first.Playlists))
		}

		searches, adds, creates := h.target.SearchCalls, h.target.AddCalls, h.target.CreateCalls
		if searches != 4 {
			t.Errorf("first run searches = %d, want 4 (one per distinct track)", searches)
		}
		if creates != 3 {
			t.Errorf("first run creates = %d, want 3", creates)
		}

		second, err := h.engine(t).Sync(context.Background(), SyncOpts{}, nil)
		if err != nil {
			t.Fatalf("second Sync() error = %v", err)
		}
		if h.target.SearchCalls != searches {
			t.Errorf("rerun issued %d searches", h.target.SearchCalls-searches)
		}
		if h.target.AddCalls != adds {
			t.Errorf("rerun issued %d mutation calls", h.target.AddCalls-adds)
		}
		if h.target.CreateCalls != creates {
			t.Errorf("rerun created %d playlists", h.target.CreateCalls-creates)
		}
		if second.Searches() != 0 {
			t.Errorf("second run Searches() = %d", second.Searches())
		}
		for _, p := range second.Playlists {
			if p.CacheHits != p.Tracks {
				t.Errorf("%s: cache hits %d of %d tracks", p.Playlist.Name, p.CacheHits, p.Tracks)
			}
		}
	})

	t.Run("decisions are checkpointed including no match", func(t *testing.T) {
		h := newHarness(t, newSource(), &tu.FakeTarget{Results: catalogResults()})

		result, err := h.engine(t).Sync(context.Background(), SyncOpts{Include: []string{"Road Trip"}}, nil)
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}

		st := h.state(t)
		if got := st.TrackMap["sp-1"]; got == nil || *got != "v-jude" {
			t.Errorf("track_map[sp-1] = %v, want v-jude", got)
		}
		got, ok := st.TrackMap["sp-3"]
		if !ok || got != nil {
			t.Errorf("track_map[sp-3] should be recorded as null, got %v (present=%v)", got, ok)
		}

		road := result.Playlists[0]
		if len(road.NoMatch) != 1 || road.NoMatch[0] != "untitled demo — nobody" {
			t.Errorf("NoMatch = %v", road.NoMatch)
		}
		if road.Outcome.Attempted != 2 || road.Outcome.Added != 2 || road.Size != 2 {
			t.Errorf("unexpected outcome %+v size %d", road.Outcome, road.Size)
		}
		if st.PlaylistMap["pl-road"] != road.TargetID {
			t.Errorf("playlist_map[pl-road] = %q, want %q", st.PlaylistMap["pl-road"], road.TargetID)
		}
	})

	t.Run("liked songs keep a stable identity", func(t *testing.T) {
		source := newSource()
		h := newHarness(t, source, &tu.FakeTarget{Results: catalogResults()})

		if _, err := h.engine(t).Sync(context.Background(), SyncOpts{Include: []string{"liked songs"}}, nil); err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		liked := h.state(t).PlaylistMap[models.LikedSongsID]
		if liked == "" {
			t.Fatalf("playlist_map has no %s entry", models.LikedSongsID)
		}

		source.Playlists = append(source.Playlists, models.PlaylistDescriptor{ID: "pl-new", Name: "New"})
		if _, err := h.engine(t).Sync(context.Background(), SyncOpts{}, nil); err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		if got := h.state(t).PlaylistMap[models.LikedSongsID]; got != liked {
			t.Errorf("liked songs target changed from %q to %q", liked, got)
		}
		if h.target.Privacy[0] != "PRIVATE" {
			t.Errorf("created playlists should be private, got %q", h.target.Privacy[0])
		}
	})

	t.Run("retry exhaustion aborts the run", func(t *testing.T) {
		target := &tu.FakeTarget{SearchErr: errors.New("HTTP 500")}
		h := newHarness(t, newSource(), target)

		result, err := h.engine(t).Sync(context.Background(), SyncOpts{}, nil)
		if !errors.Is(err, shared.ErrRetryExhausted) {
			t.Fatalf("Sync() error = %v, want ErrRetryExhausted", err)
		}
		if len(result.Playlists) != 1 {
			t.Errorf("run should stop in the first playlist, processed %d", len(result.Playlists))
		}
		if target.SearchCalls != 2 {
			t.Errorf("SearchCalls = %d, want 2 attempts", target.SearchCalls)
		}
		if n := len(h.state(t).TrackMap); n != 0 {
			t.Errorf("no decision should be recorded, got %d", n)
		}
		if len(h.source.TrackCalls) != 1 || h.source.LikedCalls != 0 {
			t.Errorf("later playlists should not be fetched: %v liked=%d", h.source.TrackCalls, h.source.LikedCalls)
		}
	})

	t.Run("listing failure is fatal", func(t *testing.T) {
		source := newSource()
		source.ListErr = shared.ErrServiceUnavailable
		h := newHarness(t, source, &tu.FakeTarget{})

		if _, err := h.engine(t).Sync(context.Background(), SyncOpts{}, nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("Sync() error = %v, want ErrServiceUnavailable", err)
		}
	})

	t.Run("filters that select nothing end cleanly", func(t *testing.T) {
		h := newHarness(t, newSource(), &tu.FakeTarget{Results: catalogResults()})

		result, err := h.engine(t).Sync(context.Background(), SyncOpts{Include: []string{"Does Not Exist"}}, nil)
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		if len(result.Playlists) != 0 || h.target.SearchCalls != 0 || h.target.CreateCalls != 0 {
			t.Errorf("expected no work, got %d playlists", len(result.Playlists))
		}
		if _, err := os.Stat(h.statePath); !os.IsNotExist(err) {
			t.Error("checkpoint should not be written when nothing is selected")
		}
	})

	t.Run("rejected items go to the failure report", func(t *testing.T) {
		target := &tu.FakeTarget{Results: catalogResults(), Reject: map[string]string{"v-let": "STATUS_FAILED"}}
		h := newHarness(t, newSource(), target)

		result, err := h.engine(t).Sync(context.Background(), SyncOpts{Include: []string{"road trip", "chill"}}, nil)
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}

		road := result.Playlists[0]
		if road.Outcome.Added != 1 || len(road.Outcome.Failed) != 1 {
			t.Fatalf("unexpected outcome %+v", road.Outcome)
		}

		f, err := os.Open(h.reportPath)
		if err != nil {
			t.Fatalf("failure report missing: %v", err)
		}
		defer f.Close()
		records, err := csv.NewReader(f).ReadAll()
		if err != nil {
			t.Fatalf("report is not CSV: %v", err)
		}

		// header + one row from Road Trip + one row from Chill
		if len(records) != 3 {
			t.Fatalf("expected 3 records, got %v", records)
		}
		want := []string{"v-let", "let it be — the beatles", "STATUS_FAILED"}
		for _, row := range records[1:] {
			if strings.Join(row, "|") != strings.Join(want, "|") {
				t.Errorf("row = %v, want %v", row, want)
			}
		}
	})

	t.Run("dry run creates and adds nothing", func(t *testing.T) {
		h := newHarness(t, newSource(), &tu.FakeTarget{Results: catalogResults()})

		result, err := h.engine(t).Sync(context.Background(), SyncOpts{DryRun: true}, nil)
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		if h.target.CreateCalls != 0 || h.target.AddCalls != 0 {
			t.Errorf("dry run mutated the target: creates=%d adds=%d", h.target.CreateCalls, h.target.AddCalls)
		}
		if result.Playlists[0].Pending != 2 {
			t.Errorf("Pending = %d, want 2", result.Playlists[0].Pending)
		}
		if len(h.state(t).TrackMap) != 4 {
			t.Errorf("dry run should still checkpoint decisions")
		}
	})

	t.Run("only ids missing from the target are added", func(t *testing.T) {
		target := &tu.FakeTarget{Results: catalogResults()}
		h := newHarness(t, newSource(), target)

		if _, err := h.engine(t).Sync(context.Background(), SyncOpts{Include: []string{"Road Trip"}}, nil); err != nil {
			t.Fatalf("Sync() error = %v", err)
		}

		targetID := h.state(t).PlaylistMap["pl-road"]
		target.Items[targetID] = []string{"v-jude"}

		result, err := h.engine(t).Sync(context.Background(), SyncOpts{Include: []string{"Road Trip"}}, nil)
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		if got := result.Playlists[0].Outcome; got.Attempted != 1 || got.Added != 1 {
			t.Errorf("expected only v-let to be re-added, got %+v", got)
		}
	})

	t.Run("audit log and metrics", func(t *testing.T) {
		db, err := shared.NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()
		if err := shared.RunMigrations(db); err != nil {
			t.Fatalf("failed to migrate: %v", err)
		}

		h := newHarness(t, newSource(), &tu.FakeTarget{Results: catalogResults()})
		m := metrics.New()
		runs := repositories.NewSyncRunRepository(db)
		matches := repositories.NewMatchRepository(db)
		h.opts.Audit = &Audit{Runs: runs, Matches: matches}
		h.opts.Metrics = m

		result, err := h.engine(t).Sync(context.Background(), SyncOpts{}, nil)
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}

		run, err := runs.Get(result.RunID)
		if err != nil {
			t.Fatalf("run not recorded: %v", err)
		}
		if !run.Finished() || run.Playlists() != 3 || run.Added() != 4 {
			t.Errorf("unexpected run totals: playlists=%d added=%d", run.Playlists(), run.Added())
		}

		records, err := matches.List(map[string]any{"run_id": run.ID()})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(records) != result.Searches() {
			t.Errorf("recorded %d decisions for %d searches", len(records), result.Searches())
		}

		path := filepath.Join(t.TempDir(), "ytmigrate.prom")
		if err := m.WriteTextfile(path); err != nil {
			t.Fatalf("WriteTextfile() error = %v", err)
		}
		out := tu.MustReadFile(t, path)
		for _, want := range []string{"ytmigrate_searches_total 4", "ytmigrate_no_match_total 1", "ytmigrate_playlists_created_total 3"} {
			if !strings.Contains(out, want) {
				t.Errorf("metrics missing %q", want)
			}
		}
	})

	t.Run("progress updates are delivered in order", func(t *testing.T) {
		h := newHarness(t, newSource(), &tu.FakeTarget{Results: catalogResults()})

		progress := make(chan ProgressUpdate, 100)
		if _, err := h.engine(t).Sync(context.Background(), SyncOpts{Include: []string{"Road Trip"}}, progress); err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		close(progress)

		var messages []string
		for u := range progress {
			messages = append(messages, u.Message)
		}
		joined := strings.Join(messages, "\n")
		for _, want := range []string{
			"Logged in to Spotify as: Test User (user-1)",
			"Found 2 Spotify playlists + Liked Songs.",
			"=== Processing: Road Trip ===",
			"No good match for: untitled demo — nobody",
			"Attempted: 2, added: 2, failed: 0 to 'Road Trip'.",
			"Playlist now shows 2 items on YT Music.",
		} {
			if !strings.Contains(joined, want) {
				t.Errorf("progress missing %q in:\n%s", want, joined)
			}
		}
	})

	t.Run("full progress channel never blocks", func(t *testing.T) {
		h := newHarness(t, newSource(), &tu.FakeTarget{Results: catalogResults()})

		e := h.engine(t)
		progress := make(chan ProgressUpdate)
		done := make(chan error, 1)
		go func() {
			_, err := e.Sync(context.Background(), SyncOpts{}, progress)
			done <- err
		}()

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Sync() error = %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Sync blocked on an unread progress channel")
		}
	})

	t.Run("cancelled context stops before the next playlist", func(t *testing.T) {
		h := newHarness(t, newSource(), &tu.FakeTarget{Results: catalogResults()})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		result, err := h.engine(t).Sync(ctx, SyncOpts{}, nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Sync() error = %v, want context.Canceled", err)
		}
		if len(result.Playlists) != 0 {
			t.Errorf("no playlist should be processed, got %d", len(result.Playlists))
		}
	})

	t.Run("missing collaborators", func(t *testing.T) {
		if _, err := NewEngine(EngineOpts{}).Sync(context.Background(), SyncOpts{}, nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("Sync() error = %v, want ErrServiceUnavailable", err)
		}
	})
}

func TestEngine_EnsurePlaylist(t *testing.T) {
	t.Run("reuses a playlist with the same normalized title", func(t *testing.T) {
		target := &tu.FakeTarget{Owned: []models.OwnedPlaylist{{ID: "PL-existing", Title: "  road   TRIP "}}}
		e := NewEngine(EngineOpts{Target: target})

		id, created, err := e.EnsurePlaylist(context.Background(), models.PlaylistDescriptor{Name: "Road Trip"})
		if err != nil {
			t.Fatalf("EnsurePlaylist() error = %v", err)
		}
		if id != "PL-existing" || created || target.CreateCalls != 0 {
			t.Errorf("got id=%q created=%v creates=%d", id, created, target.CreateCalls)
		}
	})

	t.Run("creates with truncated title", func(t *testing.T) {
		target := &tu.FakeTarget{}
		e := NewEngine(EngineOpts{Target: target})

		long := strings.Repeat("ä", 200)
		id, created, err := e.EnsurePlaylist(context.Background(), models.PlaylistDescriptor{Name: long, Description: strings.Repeat("d", 2000)})
		if err != nil {
			t.Fatalf("EnsurePlaylist() error = %v", err)
		}
		if id == "" || !created {
			t.Fatalf("expected a created playlist, got %q", id)
		}
		if n := len([]rune(target.Created[0])); n != 150 {
			t.Errorf("title length = %d runes, want 150", n)
		}
	})

	t.Run("create failure", func(t *testing.T) {
		target := &tu.FakeTarget{CreateErr: shared.ErrAPIRequest}
		e := NewEngine(EngineOpts{Target: target})

		if _, _, err := e.EnsurePlaylist(context.Background(), models.PlaylistDescriptor{Name: "x"}); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("EnsurePlaylist() error = %v, want ErrAPIRequest", err)
		}
	})
}

func TestFilterPlaylists(t *testing.T) {
	list := []models.PlaylistDescriptor{
		{ID: "1", Name: "Road Trip"},
		{ID: "2", Name: "Chill"},
		models.LikedSongs(0),
	}

	names := func(pls []models.PlaylistDescriptor) string {
		out := make([]string, len(pls))
		for i, p := range pls {
			out[i] = p.Name
		}
		return strings.Join(out, ",")
	}

	tests := []struct {
		name    string
		include []string
		exclude []string
		want    string
	}{
		{name: "no filters", want: "Road Trip,Chill,Liked Songs"},
		{name: "include", include: []string{"Road Trip"}, want: "Road Trip"},
		{name: "exclude", exclude: []string{"Chill"}, want: "Road Trip,Liked Songs"},
		{name: "normalized names", include: []string{"  road  trip", "LIKED SONGS"}, want: "Road Trip,Liked Songs"},
		{name: "include then exclude", include: []string{"Road Trip", "Chill"}, exclude: []string{"chill"}, want: "Road Trip"},
		{name: "nothing left", include: []string{"Chill"}, exclude: []string{"Chill"}, want: ""},
		{name: "blank include entries ignored", include: []string{"", "  "}, want: "Road Trip,Chill,Liked Songs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := names(FilterPlaylists(list, tt.include, tt.exclude)); got != tt.want {
				t.Errorf("FilterPlaylists() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSyncResult(t *testing.T) {
	r := &SyncResult{
		RunID: "run",
		Playlists: []PlaylistResult{
			{Playlist: models.PlaylistDescriptor{ID: "a", Name: "A"}, Searched: 2, Outcome: models.BatchOutcome{Attempted: 3, Added: 2, Failed: []models.ItemFailure{{VideoID: "x"}}}},
			{Playlist: models.PlaylistDescriptor{ID: "b", Name: "B"}, Searched: 1, Outcome: models.BatchOutcome{Attempted: 1, Added: 1}},
		},
	}

	attempted, added, failed := r.Totals()
	if attempted != 4 || added != 3 || failed != 1 {
		t.Errorf("Totals() = %d, %d, %d", attempted, added, failed)
	}
	if r.Searches() != 3 {
		t.Errorf("Searches() = %d, want 3", r.Searches())
	}

	m := r.Manifest()
	if len(m.Playlists) != 2 || m.Playlists[0].Failed != 1 || m.Playlists[1].Added != 1 {
		t.Errorf("unexpected manifest %+v", m)
	}
}
