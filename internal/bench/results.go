package bench

import "time"

// Results is the outcome of a full harness run.
type Results struct {
	Containers   []string  `json:"containers"    yaml:"containers"`
	Lookups      int       `json:"lookups"       yaml:"lookups"`
	BaseExponent int       `json:"base_exponent" yaml:"base_exponent"`
	Hibernate    bool      `json:"hibernate"     yaml:"hibernate"`
	StartedAt    time.Time `json:"started_at"    yaml:"started_at"`
	Rounds       []Round   `json:"rounds"        yaml:"rounds"`
}

// Round holds the measurements of one key count.
type Round struct {
	Index        int           `json:"index"        yaml:"index"`
	Keys         int           `json:"keys"         yaml:"keys"`
	Measurements []Measurement `json:"measurements" yaml:"measurements"`
}

// Measurement is one container's timings in one round.
type Measurement struct {
	Container       string `json:"container"                  yaml:"container"`
	InsertNs        int64  `json:"insert_ns"                  yaml:"insert_ns"`
	LookupNs        int64  `json:"lookup_ns"                  yaml:"lookup_ns"`
	Size            int    `json:"size"                       yaml:"size"`
	Found           int    `json:"found"                      yaml:"found"`
	HibernatedBytes int    `json:"hibernated_bytes,omitempty" yaml:"hibernated_bytes,omitempty"`
}

// Measurement returns the named container's measurement in the round.
func (r Round) Measurement(container string) (Measurement, bool) {
	for _, m := range r.Measurements {
		if m.Container == container {
			return m, true
		}
	}

	return Measurement{}, false
}
