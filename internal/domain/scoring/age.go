package scoring

import "time"

// Age returns the age in whole years of someone born on birthdate, as of now.
// The year difference is reduced by one until the birthday has occurred in
// now's year. A zero birthdate yields 0.
func Age(birthdate, now time.Time) int {
	if birthdate.IsZero() {
		return 0
	}
	now = now.In(birthdate.Location())
	age := now.Year() - birthdate.Year()
	if now.Month() < birthdate.Month() ||
		(now.Month() == birthdate.Month() && now.Day() < birthdate.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
