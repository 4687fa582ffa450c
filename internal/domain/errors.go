package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoMatch is wrapped by every MatchError.
	ErrNoMatch = errors.New("no storm track matches event name")
	// ErrAmbiguous is wrapped by every AmbiguityError.
	ErrAmbiguous = errors.New("several storm tracks match event")
)

// MatchError reports an impact record whose name matches no track and that
// no override accounts for.
type MatchError struct {
	RecordKey
	// Stage is the filter that left no candidates.
	Stage string
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("%s after %s filter: name=%q year=%d asap0_id=%d",
		ErrNoMatch, e.Stage, e.Name, e.Year, e.Asap0ID)
}

func (e *MatchError) Unwrap() error { return ErrNoMatch }

// AmbiguityError reports an impact record with more than one plausible track
// and no tiebreak entry.
type AmbiguityError struct {
	RecordKey
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("%s: name=%q year=%d asap0_id=%d candidates=[%s]",
		ErrAmbiguous, e.Name, e.Year, e.Asap0ID, strings.Join(e.Candidates, ","))
}

func (e *AmbiguityError) Unwrap() error { return ErrAmbiguous }
