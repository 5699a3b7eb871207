package models

// SessionSnapshot is the archived form of one session. The layout mirrors
// the in-memory model exactly, including the history cap, so a restored
// session is indistinguishable from one that never left memory.
type SessionSnapshot struct {
	Key         string       `json:"key"`
	Controls    Controls     `json:"controls"`
	Instruments []Instrument `json:"instruments"`
}
