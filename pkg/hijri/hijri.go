package hijri

import "time"

// Date is a civil (tabular) Hijri calendar date. The civil calendar is a fixed
// arithmetic approximation of the lunar calendar: 30-year cycles of 19 common
// years (354 days) and 11 leap years (355 days), epoch 1 Muharram 1 AH =
// Friday, 16 July 622 CE (Julian). Official letter numbers must carry the same
// Hijri year everywhere, so one rule is applied consistently and never mixed
// with observational corrections.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

const civilEpochJDN = 1948440

// FromTime converts a Gregorian calendar time to its civil Hijri date.
func FromTime(t time.Time) Date {
	return fromJDN(gregorianJDN(t.Year(), int(t.Month()), t.Day()))
}

// gregorianJDN returns the Julian Day Number for a proleptic Gregorian date.
func gregorianJDN(year, month, day int) int {
	a := (14 - month) / 12
	y := year + 4800 - a
	m := month + 12*a - 3
	return day + (153*m+2)/5 + 365*y + y/4 - y/100 + y/400 - 32045
}

// fromJDN converts a Julian Day Number to a civil Hijri date using the
// standard tabular formula.
func fromJDN(jdn int) Date {
	l := jdn - civilEpochJDN + 10632
	n := (l - 1) / 10631
	l = l - 10631*n + 354
	j := ((10985-l)/5316)*((50*l)/17719) + (l/5670)*((43*l)/15238)
	l = l - ((30-j)/15)*((17719*j)/50) - (j/16)*((15238*j)/43) + 29

	month := (24 * l) / 709
	day := l - (709*month)/24
	year := 30*n + j - 30

	return Date{Year: year, Month: month, Day: day}
}

var romanMonths = [...]string{"I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X", "XI", "XII"}

// RomanMonth renders a Gregorian month as the roman numeral used on official
// Indonesian letterheads.
func RomanMonth(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return romanMonths[m-1]
}
