package hunt_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/playperu/treasurehunt/internal/hunt"
)

var t0 = time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)

func demoPath() []hunt.Location {
	return []hunt.Location{
		{ID: "S", Code: "START1", IsStart: true},
		{ID: "B", Code: "BRAVO2"},
		{ID: "A", Code: "ALPHA1"},
		{ID: "C", Code: "CHARLIE3"},
		{ID: "E", Code: "END9", IsEnd: true},
	}
}

func startedTeam(t *testing.T) hunt.Team {
	t.Helper()
	team, err := hunt.Start(hunt.Team{ID: "t1"}, t0)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return team
}

func TestStart(t *testing.T) {
	team, err := hunt.Start(hunt.Team{ID: "t1", CurrentStage: 2}, t0)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if team.StartedAt == nil || !team.StartedAt.Equal(t0) {
		t.Errorf("startedAt = %v, want %v", team.StartedAt, t0)
	}
	if team.CurrentStage != 0 {
		t.Errorf("currentStage = %d, want 0", team.CurrentStage)
	}
	if team.Status() != hunt.StatusInProgress {
		t.Errorf("status = %q, want in_progress", team.Status())
	}
}

func TestStartTwiceRejected(t *testing.T) {
	team := startedTeam(t)
	team.CurrentStage = 2

	again, err := hunt.Start(team, t0.Add(time.Hour))

	if !errors.Is(err, hunt.ErrAlreadyStarted) {
		t.Fatalf("err = %v, want ErrAlreadyStarted", err)
	}
	if !reflect.DeepEqual(again, team) {
		t.Errorf("team changed on rejected start:\n got %+v\nwant %+v", again, team)
	}
}

func TestSubmitCode(t *testing.T) {
	path := demoPath()
	team := startedTeam(t)
	team.HintsUsed = 2
	hintAt := t0.Add(time.Minute)
	team.LastHintAt = &hintAt

	next, completed, err := hunt.SubmitCode(team, path, "  bravo2 ", t0.Add(5*time.Minute))

	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if completed {
		t.Error("completed = true after first stage")
	}
	if next.CurrentStage != 1 {
		t.Errorf("currentStage = %d, want 1", next.CurrentStage)
	}
	if next.HintsUsed != 0 || next.LastHintAt != nil {
		t.Errorf("hints not reset: used=%d last=%v", next.HintsUsed, next.LastHintAt)
	}
	if next.FinishedAt != nil {
		t.Errorf("finishedAt set too early")
	}
	if team.CurrentStage != 0 {
		t.Errorf("input team mutated")
	}
}

func TestSubmitCodeTargetsNextStage(t *testing.T) {
	path := demoPath()
	team := startedTeam(t)

	// The start location's own code does not advance the team.
	if _, _, err := hunt.SubmitCode(team, path, "START1", t0); !errors.Is(err, hunt.ErrWrongCode) {
		t.Errorf("start code: err = %v, want ErrWrongCode", err)
	}
	// Neither does a code further along the path.
	if _, _, err := hunt.SubmitCode(team, path, "ALPHA1", t0); !errors.Is(err, hunt.ErrWrongCode) {
		t.Errorf("later code: err = %v, want ErrWrongCode", err)
	}
}

func TestSubmitWrongCodeLeavesTeamUntouched(t *testing.T) {
	path := demoPath()
	team := startedTeam(t)
	team.CurrentStage = 2
	team.HintsUsed = 1
	hintAt := t0.Add(10 * time.Minute)
	team.LastHintAt = &hintAt

	for _, code := range []string{"", "   ", "NOPE", "CHARLIE", "END9"} {
		got, completed, err := hunt.SubmitCode(team, path, code, t0.Add(time.Hour))
		if !errors.Is(err, hunt.ErrWrongCode) {
			t.Errorf("code %q: err = %v, want ErrWrongCode", code, err)
		}
		if completed {
			t.Errorf("code %q: completed = true", code)
		}
		if !reflect.DeepEqual(got, team) {
			t.Errorf("code %q: team changed", code)
		}
	}
}

func TestSubmitCodeFinishes(t *testing.T) {
	path := demoPath()
	team := startedTeam(t)
	team.CurrentStage = 3
	finish := t0.Add(90 * time.Minute)

	next, completed, err := hunt.SubmitCode(team, path, "END9", finish)

	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !completed {
		t.Error("completed = false on last stage")
	}
	if next.CurrentStage != 4 {
		t.Errorf("currentStage = %d, want 4", next.CurrentStage)
	}
	if next.FinishedAt == nil || !next.FinishedAt.Equal(finish) {
		t.Errorf("finishedAt = %v, want %v", next.FinishedAt, finish)
	}
	if !hunt.Completed(next, path) {
		t.Error("Completed = false")
	}
	if next.Status() != hunt.StatusFinished {
		t.Errorf("status = %q, want finished", next.Status())
	}

	// A finished team cannot move past the terminal stage.
	again, _, err := hunt.SubmitCode(next, path, "END9", finish.Add(time.Minute))
	if !errors.Is(err, hunt.ErrAlreadyFinished) {
		t.Errorf("second submit: err = %v, want ErrAlreadyFinished", err)
	}
	if again.CurrentStage != 4 || !again.FinishedAt.Equal(finish) {
		t.Errorf("finished team changed: stage=%d finishedAt=%v", again.CurrentStage, again.FinishedAt)
	}
}

func TestSubmitCodeGuards(t *testing.T) {
	path := demoPath()

	if _, _, err := hunt.SubmitCode(hunt.Team{}, path, "BRAVO2", t0); !errors.Is(err, hunt.ErrNotStarted) {
		t.Errorf("not started: err = %v, want ErrNotStarted", err)
	}
	if _, _, err := hunt.SubmitCode(startedTeam(t), nil, "BRAVO2", t0); !errors.Is(err, hunt.ErrNoPath) {
		t.Errorf("no path: err = %v, want ErrNoPath", err)
	}
}

func TestRequestHint(t *testing.T) {
	team := startedTeam(t)

	for want := 1; want <= hunt.HintsPerLocation; want++ {
		at := t0.Add(time.Duration(want) * hunt.HintCooldown)
		next, n, err := hunt.RequestHint(team, at)
		if err != nil {
			t.Fatalf("hint %d: %v", want, err)
		}
		if n != want || next.HintsUsed != want {
			t.Fatalf("hint number = %d, used = %d, want %d", n, next.HintsUsed, want)
		}
		if next.LastHintAt == nil || !next.LastHintAt.Equal(at) {
			t.Fatalf("lastHintAt = %v, want %v", next.LastHintAt, at)
		}
		team = next
	}

	_, _, err := hunt.RequestHint(team, t0.Add(time.Hour))
	if !errors.Is(err, hunt.ErrHintsExhausted) {
		t.Errorf("fourth hint: err = %v, want ErrHintsExhausted", err)
	}
	if hunt.HintsRemaining(team) != 0 {
		t.Errorf("hints remaining = %d, want 0", hunt.HintsRemaining(team))
	}
	if hunt.NextHintAt(team) != nil {
		t.Errorf("next hint at should be nil when hints are exhausted")
	}
}

func TestRequestHintCooldown(t *testing.T) {
	team := startedTeam(t)
	team, _, err := hunt.RequestHint(team, t0)
	if err != nil {
		t.Fatalf("first hint: %v", err)
	}

	tests := []struct {
		name     string
		elapsed  time.Duration
		wantWait string
		wantOK   bool
	}{
		{"immediately", 0, "3:00", false},
		{"after 55s", 55 * time.Second, "2:05", false},
		{"after 179s", 179 * time.Second, "0:01", false},
		{"after 179.5s", 179*time.Second + 500*time.Millisecond, "0:01", false},
		{"at 180s", 180 * time.Second, "", true},
		{"after 181s", 181 * time.Second, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, n, err := hunt.RequestHint(team, t0.Add(tt.elapsed))
			if tt.wantOK {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if n != 2 {
					t.Errorf("hint number = %d, want 2", n)
				}
				return
			}
			var cd *hunt.CooldownError
			if !errors.As(err, &cd) {
				t.Fatalf("err = %v, want CooldownError", err)
			}
			if cd.Remaining <= 0 {
				t.Errorf("remaining = %v, want positive", cd.Remaining)
			}
			if cd.Wait() != tt.wantWait {
				t.Errorf("wait = %q, want %q", cd.Wait(), tt.wantWait)
			}
			if !reflect.DeepEqual(next, team) {
				t.Errorf("team changed on rejected hint")
			}
		})
	}

	if at := hunt.NextHintAt(team); at == nil || !at.Equal(t0.Add(hunt.HintCooldown)) {
		t.Errorf("next hint at = %v, want %v", at, t0.Add(hunt.HintCooldown))
	}
	if hunt.NextHintAt(startedTeam(t)) != nil {
		t.Error("next hint at should be nil before the first hint")
	}
}

func TestRequestHintGuards(t *testing.T) {
	if _, _, err := hunt.RequestHint(hunt.Team{}, t0); !errors.Is(err, hunt.ErrNotStarted) {
		t.Errorf("not started: err = %v, want ErrNotStarted", err)
	}

	done := startedTeam(t)
	finished := t0.Add(time.Hour)
	done.FinishedAt = &finished
	if _, _, err := hunt.RequestHint(done, t0.Add(2*time.Hour)); !errors.Is(err, hunt.ErrAlreadyFinished) {
		t.Errorf("finished: err = %v, want ErrAlreadyFinished", err)
	}
}

func TestTargetAndGPS(t *testing.T) {
	path := demoPath()
	lat, lng := -12.0464, -77.0300
	path[1].Lat, path[1].Lng = &lat, &lng

	if _, ok := hunt.Target(hunt.Team{}, path); ok {
		t.Error("target before start")
	}

	team := startedTeam(t)
	target, ok := hunt.Target(team, path)
	if !ok || target.ID != "B" {
		t.Fatalf("target = %q (%v), want B", target.ID, ok)
	}
	if _, _, ok := hunt.GPSFor(team, target); ok {
		t.Error("gps revealed without gpsHintEnabled")
	}

	team.GPSHintEnabled = true
	gotLat, gotLng, ok := hunt.GPSFor(team, target)
	if !ok || *gotLat != lat || *gotLng != lng {
		t.Errorf("gps = %v,%v (%v), want %v,%v", gotLat, gotLng, ok, lat, lng)
	}
	if _, _, ok := hunt.GPSFor(team, path[2]); ok {
		t.Error("gps revealed for location without coordinates")
	}
	if hunt.TotalStages(path) != 5 {
		t.Errorf("total stages = %d, want 5", hunt.TotalStages(path))
	}
}
