package bagdrop

import (
	"fmt"
	"strconv"
)

// DefaultButtonText is shown on the trigger control whenever no sequence is
// in flight.
const DefaultButtonText = "Add to Bag"

// Money is an amount in cents.
type Money int64

// Dollars builds a Money from a whole-dollar amount.
func Dollars(d int64) Money { return Money(d * 100) }

// String formats whole amounts as "$130" and fractional ones as "$129.99".
func (m Money) String() string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	if m%100 == 0 {
		return sign + "$" + strconv.FormatInt(int64(m/100), 10)
	}
	return fmt.Sprintf("%s$%d.%02d", sign, m/100, m%100)
}

// Label is the bag summary for count units at unitPrice. It is a pure
// function of its inputs: zero units reads as the default button text.
func Label(count int, unitPrice Money) string {
	switch {
	case count <= 0:
		return DefaultButtonText
	case count == 1:
		return "1 item · " + unitPrice.String()
	default:
		return fmt.Sprintf("%d items · %s", count, Money(count)*unitPrice)
	}
}

// Counter is the bag state shared across sequence runs. It starts at zero
// and has a single writer: the Reset phase of a completed run.
type Counter struct {
	count     int
	label     string
	unitPrice Money
}

// NewCounter returns a zero counter priced at unitPrice.
func NewCounter(unitPrice Money) Counter {
	return Counter{unitPrice: unitPrice, label: Label(0, unitPrice)}
}

// Count returns the number of units in the bag.
func (c Counter) Count() int { return c.count }

// Label returns the summary for the current count.
func (c Counter) Label() string { return c.label }

// UnitPrice returns the fixed unit price.
func (c Counter) UnitPrice() Money { return c.unitPrice }

// Total returns count × unit price.
func (c Counter) Total() Money { return Money(c.count) * c.unitPrice }

func (c *Counter) increment() {
	c.count++
	c.label = Label(c.count, c.unitPrice)
}
