package state

import "unicode/utf8"

// Update is a partial change to a job applied to both stores within one
// orchestration step. Nil fields and an empty Status leave the stored value
// untouched.
type Update struct {
	Status    State
	Progress  *int
	Stage     *string
	SourceURI *string
}

// Enter builds the update recorded when a job enters s: its status, fixed
// checkpoint and stage label.
func Enter(s State) Update {
	u := Update{Status: s}
	if p, ok := s.Checkpoint(); ok {
		u.Progress = &p
	}
	if label := s.Label(); label != "" {
		u.Stage = &label
	}
	return u
}

// Fail builds the FAILED update. Progress is left unchanged so both stores
// keep the last known value.
func Fail(cause error) Update {
	stage := "Error: " + Truncate(cause.Error(), MaxStageMessage)
	return Update{Status: Failed, Stage: &stage}
}

// WithSourceURI returns a copy of u that also records the blob location.
func (u Update) WithSourceURI(uri string) Update {
	u.SourceURI = &uri
	return u
}

// IsZero reports whether u changes nothing.
func (u Update) IsZero() bool {
	return u.Status == "" && u.Progress == nil && u.Stage == nil && u.SourceURI == nil
}

// Apply merges u into s using the monotonic progress rule.
func (u Update) Apply(s Snapshot) Snapshot {
	if u.Status != "" {
		s.Status = u.Status
	}
	if u.Progress != nil {
		s.Progress = ClampProgress(s.Progress, *u.Progress)
	}
	if u.Stage != nil {
		s.Stage = *u.Stage
	}
	if u.SourceURI != nil {
		s.SourceURI = *u.SourceURI
	}
	return s
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
