package ids

import "github.com/segmentio/ksuid"

// New returns a fresh ksuid string. Ksuids are k-sortable, so ids created
// later compare greater, which keeps id-based tie-breaks stable.
func New() string {
	return ksuid.New().String()
}
