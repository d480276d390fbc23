package booking

import "strings"

// Filter narrows a dashboard listing before bucketing. Zero value means no
// filtering.
type Filter struct {
	Status Status // exact status match when set
	Search string // case-insensitive substring of client_name
}

// Buckets partitions a professional's appointments by calendar date for
// display. Each appointment lands in exactly one bucket.
type Buckets struct {
	Today  []Appointment `json:"today"`
	Future []Appointment `json:"future"`
	Past   []Appointment `json:"past"`
}

// Bucketize applies the filter and then splits the list into past, today and
// future relative to the given calendar date (YYYY-MM-DD). Only the date is
// compared; time of day never moves an appointment between buckets. Input
// order is preserved, so a (date, time) ordered fetch yields ordered buckets.
func Bucketize(appts []Appointment, today string, f Filter) Buckets {
	var b Buckets

	search := strings.ToLower(f.Search)

	for _, a := range appts {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(a.ClientName), search) {
			continue
		}

		// ISO dates order lexically, so plain string comparison is the
		// calendar comparison.
		switch {
		case a.Date == today:
			b.Today = append(b.Today, a)
		case a.Date > today:
			b.Future = append(b.Future, a)
		default:
			b.Past = append(b.Past, a)
		}
	}

	return b
}
