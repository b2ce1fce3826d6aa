package ports

import "time"

// Clock supplies the current time to components that compare against expiries
type Clock interface {
	Now() time.Time
}
