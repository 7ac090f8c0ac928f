// Package verdict defines the judgements an operator can give a plate reading.
package verdict

import "fmt"

// Verdict is the operator's judgement of one recognized value. The empty
// Verdict means "not judged yet".
type Verdict string

const (
	None      Verdict = ""
	Correct   Verdict = "correct"
	Hidden    Verdict = "hidden"
	Broken    Verdict = "broken"
	Fail      Verdict = "fail"
	NoPlate   Verdict = "no_LP"
	NoVehicle Verdict = "no_vehicle"
	Blur      Verdict = "blur"
	Moto      Verdict = "moto"
	WrongPair Verdict = "wrong_pair"
)

// Option pairs a failure reason with the label shown to the operator.
type Option struct {
	Verdict Verdict
	Label   string
}

var reasons = []Option{
	{Hidden, "Hidden"},
	{Broken, "Broken"},
	{Fail, "Fail"},
	{NoPlate, "No License Plate"},
	{NoVehicle, "No Vehicle"},
	{Blur, "Blur"},
	{Moto, "Motorcycle"},
	{WrongPair, "Wrong Pair"},
}

// Reasons returns the fixed set of failure reasons in presentation order.
func Reasons() []Option {
	out := make([]Option, len(reasons))
	copy(out, reasons)
	return out
}

// Parse validates s against the known verdicts.
func Parse(s string) (Verdict, error) {
	v := Verdict(s)
	if v == None || v.Valid() {
		return v, nil
	}
	return None, fmt.Errorf("unknown verdict %q", s)
}

// Valid reports whether v is Correct or one of the failure reasons.
func (v Verdict) Valid() bool {
	if v == Correct {
		return true
	}
	for _, o := range reasons {
		if o.Verdict == v {
			return true
		}
	}
	return false
}

// IsCorrect reports whether the reading was judged correct.
func (v Verdict) IsCorrect() bool {
	return v == Correct
}

// Label returns the display label.
func (v Verdict) Label() string {
	switch v {
	case None:
		return ""
	case Correct:
		return "Correct"
	}
	for _, o := range reasons {
		if o.Verdict == v {
			return o.Label
		}
	}
	return string(v)
}
