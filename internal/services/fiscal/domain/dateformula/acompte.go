package dateformula

import "time"

type installment struct {
	day        int
	month      time.Month
	yearOffset int
}

// acompteSchedules lists the four corporate-tax installments for each closing
// window, in payment order.
var acompteSchedules = [4][4]installment{
	// closing 20 Feb .. 19 May
	{{15, time.June, -1}, {15, time.September, -1}, {15, time.December, -1}, {15, time.March, 0}},
	// closing 20 May .. 19 Aug
	{{15, time.September, -1}, {15, time.December, -1}, {15, time.March, 0}, {15, time.June, 0}},
	// closing 20 Aug .. 19 Nov
	{{15, time.December, -1}, {15, time.March, 0}, {15, time.June, 0}, {15, time.September, 0}},
	// closing 20 Nov .. 19 Feb
	{{15, time.March, 0}, {15, time.June, 0}, {15, time.September, 0}, {15, time.December, 0}},
}

// closingWindow classifies a closing date into one of the four installment
// windows. Each window ends on the 19th of its last month inclusive.
func closingWindow(c Closing) int {
	switch x := c.ordinal(); {
	case x >= 220 && x <= 519:
		return 0
	case x >= 520 && x <= 819:
		return 1
	case x >= 820 && x <= 1119:
		return 2
	default:
		return 3
	}
}

func acompte(num int, basis Basis) (time.Time, bool) {
	if num < 1 || num > 4 {
		return time.Time{}, false
	}
	due := acompteSchedules[closingWindow(basis.Closing)][num-1]
	return date(basis.FiscalYear+due.yearOffset, due.month, due.day), true
}
