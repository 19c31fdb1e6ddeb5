package hunt

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// HintCooldown is the minimum wait between two hint requests.
const HintCooldown = 3 * time.Minute

var (
	ErrAlreadyStarted  = errors.New("team has already started")
	ErrNotStarted      = errors.New("team has not started yet")
	ErrAlreadyFinished = errors.New("team has already finished")
	ErrWrongCode       = errors.New("invalid code")
	ErrHintsExhausted  = errors.New("all hints for this stage have been used")
	ErrNoPath          = errors.New("no path assigned to team")
)

// CooldownError rejects a hint request made too soon after the last one.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return "next hint available in " + e.Wait()
}

// Seconds is the remaining wait rounded up to whole seconds.
func (e *CooldownError) Seconds() int {
	return int((e.Remaining + time.Second - 1) / time.Second)
}

// Wait formats the remaining time as m:ss.
func (e *CooldownError) Wait() string {
	s := e.Seconds()
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

func (t Team) Status() Status {
	switch {
	case t.FinishedAt != nil:
		return StatusFinished
	case t.StartedAt != nil:
		return StatusInProgress
	default:
		return StatusNotStarted
	}
}

// NormalizeCode canonicalizes a typed code for comparison with the
// stored uppercase code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Start moves a team from NotStarted to InProgress at stage 0.
// On error t is returned unchanged.
func Start(t Team, now time.Time) (Team, error) {
	if t.StartedAt != nil {
		return t, ErrAlreadyStarted
	}
	t.StartedAt = &now
	t.CurrentStage = 0
	t.HintsUsed = 0
	t.LastHintAt = nil
	return t, nil
}

// SubmitCode unlocks the next stop on path when code matches its code.
// completed is true when the submission reached the final stage.
// On error t is returned unchanged.
func SubmitCode(t Team, path []Location, code string, now time.Time) (next Team, completed bool, err error) {
	target, err := nextTarget(t, path)
	if err != nil {
		return t, false, err
	}
	normalized := NormalizeCode(code)
	if normalized == "" || normalized != target.Code {
		return t, false, ErrWrongCode
	}

	t.CurrentStage++
	t.HintsUsed = 0
	t.LastHintAt = nil
	if t.CurrentStage == TerminalStage(path) {
		t.FinishedAt = &now
		return t, true, nil
	}
	return t, false, nil
}

// RequestHint reveals the next hint for the current target, subject to
// the per-stage limit and the cooldown. It returns the revealed hint's
// number (1-based). On error t is returned unchanged.
func RequestHint(t Team, now time.Time) (next Team, hintNumber int, err error) {
	switch {
	case t.StartedAt == nil:
		return t, 0, ErrNotStarted
	case t.FinishedAt != nil:
		return t, 0, ErrAlreadyFinished
	case t.HintsUsed >= HintsPerLocation:
		return t, 0, ErrHintsExhausted
	}
	if t.LastHintAt != nil {
		if elapsed := now.Sub(*t.LastHintAt); elapsed < HintCooldown {
			return t, 0, &CooldownError{Remaining: HintCooldown - elapsed}
		}
	}

	t.HintsUsed++
	t.LastHintAt = &now
	return t, t.HintsUsed, nil
}

// TotalStages is the number of stages on path, start and end included.
func TotalStages(path []Location) int {
	return len(path)
}

// TerminalStage is the stage index a team reaches when it finishes.
func TerminalStage(path []Location) int {
	return len(path) - 1
}

// Completed reports whether t has reached the end of path.
func Completed(t Team, path []Location) bool {
	return len(path) > 0 && t.CurrentStage == TerminalStage(path) && t.FinishedAt != nil
}

// Target returns the stop the team is currently looking for: the one
// after CurrentStage, since stage 0 is the start where everybody begins.
func Target(t Team, path []Location) (Location, bool) {
	loc, err := nextTarget(t, path)
	return loc, err == nil
}

// NextHintAt returns when the cooldown after the last hint ends, or nil
// if no hint has been requested on this stage or none are left. The time
// may already be in the past; callers compare it with their clock.
func NextHintAt(t Team) *time.Time {
	if t.LastHintAt == nil || t.HintsUsed >= HintsPerLocation {
		return nil
	}
	at := t.LastHintAt.Add(HintCooldown)
	return &at
}

// HintsRemaining is the number of hints still available on this stage.
func HintsRemaining(t Team) int {
	return max(HintsPerLocation-t.HintsUsed, 0)
}

// GPSFor returns loc's coordinates if the team is allowed to see them.
func GPSFor(t Team, loc Location) (lat, lng *float64, ok bool) {
	if !t.GPSHintEnabled || !loc.HasGPS() {
		return nil, nil, false
	}
	return loc.Lat, loc.Lng, true
}

func nextTarget(t Team, path []Location) (Location, error) {
	switch {
	case len(path) == 0:
		return Location{}, ErrNoPath
	case t.StartedAt == nil:
		return Location{}, ErrNotStarted
	case t.FinishedAt != nil || t.CurrentStage+1 >= len(path):
		return Location{}, ErrAlreadyFinished
	}
	return path[t.CurrentStage+1], nil
}
