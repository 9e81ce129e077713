package domain

import "fmt"

// OperatingHours is the half-open range [Open, Close) of civil hours the site
// is open.
type OperatingHours struct {
	Open  int `json:"open"`
	Close int `json:"close"`
}

// DefaultOperatingHours is 07:00 to 20:00.
func DefaultOperatingHours() OperatingHours {
	return OperatingHours{Open: 7, Close: 20}
}

func (o OperatingHours) Validate() error {
	if o.Open < 0 || o.Close > 24 || o.Open >= o.Close {
		return fmt.Errorf("%w: open %d close %d", ErrInvalidHours, o.Open, o.Close)
	}
	return nil
}

func (o OperatingHours) Contains(h int) bool {
	return h >= o.Open && h < o.Close
}

func (o OperatingHours) Len() int {
	return o.Close - o.Open
}

func (o OperatingHours) String() string {
	return fmt.Sprintf("%02d:00-%02d:00", o.Open, o.Close)
}
