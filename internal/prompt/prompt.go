// Package prompt runs the interactive question and answer flow that
// collects a household profile from a terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"it10bb/internal/core"
	"it10bb/internal/intake"
)

// ErrInvalidTotal is returned when the first answer is not a usable amount.
var ErrInvalidTotal = errors.New("invalid total")

const (
	Banner = "Smart IT-10BB Rough Expense Estimator"

	// InvalidTotalMessage is shown before giving up on a malformed total.
	InvalidTotalMessage = "Invalid total. Please enter a number."

	questionTotal    = "Enter total annual expenses (BDT): "
	questionLocation = "Location (dhaka / other_area) [default other_area]: "
	questionFamily   = "Family size (number of people) [default 3]: "
	questionKids     = "Do you have kids? (y/N) [default N]: "
	questionOwnHome  = "Own home (no rent)? (y/N) [default N]: "
	questionStaff    = "Have home-support staff (driver/housemaid)? (y/N) [default N]: "
	questionMode     = "Mode (balanced/conservative/comfortable) [default balanced]: "
)

// Prompter asks questions on out and reads answers line by line from in.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

// Profile asks every question in order. A missing line (EOF) counts as a
// blank answer, so defaults apply to whatever was not answered. Only the
// total is mandatory.
func (p *Prompter) Profile() (core.Profile, error) {
	fmt.Fprintf(p.out, "%s\n\n", Banner)

	raw := intake.RawProfile{Total: p.ask(questionTotal)}
	if _, err := intake.ParseAmount(raw.Total); err != nil {
		fmt.Fprintln(p.out, InvalidTotalMessage)
		return core.Profile{}, fmt.Errorf("%w: %w", ErrInvalidTotal, err)
	}

	raw.Location = p.ask(questionLocation)
	raw.FamilySize = p.ask(questionFamily)
	raw.HasKids = p.ask(questionKids)
	raw.OwnHome = p.ask(questionOwnHome)
	raw.HomeSupportStaff = p.ask(questionStaff)
	raw.Mode = p.ask(questionMode)

	return raw.Resolve()
}

func (p *Prompter) ask(question string) string {
	fmt.Fprint(p.out, question)
	if !p.in.Scan() {
		return ""
	}
	return strings.TrimSpace(p.in.Text())
}
