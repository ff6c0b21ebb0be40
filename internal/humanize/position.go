package humanize

import "github.com/go-vgo/robotgo"

// currentPosition reads the live pointer location.
func currentPosition() (int, int) {
	return robotgo.Location()
}
