package dateutil

import (
	"fmt"
	"time"
)

// Age calculates the age at a given date
func Age(birthDate, atDate time.Time) int {
	age := atDate.Year() - birthDate.Year()
	if atDate.Month() < birthDate.Month() ||
		(atDate.Month() == birthDate.Month() && atDate.Day() < birthDate.Day()) {
		age--
	}
	return age
}

// AgeAtYearEnd returns the age on 31 December of taxYear, the reference date
// for dependent classification.
func AgeAtYearEnd(birthDate time.Time, taxYear int) int {
	return Age(birthDate, time.Date(taxYear, time.December, 31, 0, 0, 0, 0, birthDate.Location()))
}

// InTaxYear reports whether t falls in the given calendar year.
func InTaxYear(t time.Time, taxYear int) bool {
	return t.Year() == taxYear
}

// MonthKey formats a date as "YYYY-MM"
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// Quarter returns the calendar quarter (1-4) of t.
func Quarter(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

// QuarterKey formats a date as "YYYY-Qn"
func QuarterKey(t time.Time) string {
	return fmt.Sprintf("%d-Q%d", t.Year(), Quarter(t))
}
