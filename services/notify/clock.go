package notify

import (
	"time"
	"univer-backend/lib/timezone"
)

// Clock abstracts "now" so the scheduler's time-window logic can be
// tested deterministically.
type Clock interface {
	Now() time.Time
}

type portalClock struct{}

func (portalClock) Now() time.Time {
	return timezone.Now()
}
