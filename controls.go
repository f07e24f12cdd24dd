package pix

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/soypat/geometry/ms2"
)

// Control represents an editable parameter of a filter.
// When Value is modified via OnChange, the filter updates its output immediately.
type Control interface {
	// Display/human readable name and description.
	Describe() (name, description string)
	// ActualValue returns the current value of the control.
	ActualValue() any
	// ChangeValue attempts to update the ActualValue to newValue.
	// Values outside the control's domain return an error wrapping [ErrInvalidParameter].
	ChangeValue(newValue any) error
}

// FindControl returns the control in ctrls with the given name, or nil.
func FindControl(ctrls []Control, name string) Control {
	for _, c := range ctrls {
		if n, _ := c.Describe(); n == name {
			return c
		}
	}
	return nil
}

type ControlOrdered[T cmp.Ordered] struct {
	Name        string
	Description string
	Value       T
	Min         T
	Max         T
	Step        T
	// Exclude lists values inside [Min,Max] that are still rejected,
	// such as singularities of the filter's formula.
	Exclude  []T
	OnChange func(T) error
}

func (co *ControlOrdered[T]) Describe() (name, description string) {
	return co.Name, co.Description
}
func (co *ControlOrdered[T]) ActualValue() any { return co.Value }
func (co *ControlOrdered[T]) ChangeValue(newValue any) error {
	v, ok := newValue.(T)
	if !ok {
		return fmt.Errorf("%w: new value %T not of type %T", ErrInvalidParameter, newValue, co.Value)
	}
	if v < co.Min || v > co.Max {
		return fmt.Errorf("%w: new value %v exceeds limits %v..%v", ErrInvalidParameter, v, co.Min, co.Max)
	}
	if slices.Contains(co.Exclude, v) {
		return fmt.Errorf("%w: value %v not allowed for %s", ErrInvalidParameter, v, co.Name)
	}
	var err error
	if co.OnChange != nil {
		err = co.OnChange(v)
	}
	if err == nil {
		co.Value = v
	}
	return err
}

type integer interface {
	~int | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~int8 | ~int16 | ~int32 | ~int64
}

// enum best generated with stringer commands.
type enum interface {
	integer
	fmt.Stringer
}

// ControlEnum maps to dropdown kind of list.
type ControlEnum[T enum] struct {
	Name        string
	Description string
	Value       T
	ValidValues []T
	OnChange    func(T) error
}

func (ce *ControlEnum[T]) Describe() (name, description string) {
	return ce.Name, ce.Description
}
func (ce *ControlEnum[T]) ActualValue() any {
	return ce.Value
}
func (ce *ControlEnum[T]) ChangeValue(newValue any) error {
	v, ok := newValue.(T)
	if !ok {
		return fmt.Errorf("%w: new value %T not of type %T", ErrInvalidParameter, newValue, ce.Value)
	}
	if !slices.Contains(ce.ValidValues, v) {
		return fmt.Errorf("%w: value %v of %T not valid", ErrInvalidParameter, v, v)
	}
	var err error
	if ce.OnChange != nil {
		err = ce.OnChange(v)
	}
	if err == nil {
		ce.Value = v
	}
	return err
}

// CurvePoint is a control point for curve-type controls.
// X represents input (0-1), Y represents output (0-1).
type CurvePoint = ms2.Vec

// ControlCurve is a spline curve control with editable control points.
// Points are in normalized 0-1 range for both X (input) and Y (output).
type ControlCurve struct {
	Name        string
	Description string
	Points      []CurvePoint // Control points, X/Y in 0-1 range.
	OnChange    func([]CurvePoint) error
}

func (cc *ControlCurve) Describe() (name, description string) {
	return cc.Name, cc.Description
}

func (cc *ControlCurve) ActualValue() any {
	return cc.Points
}

func (cc *ControlCurve) ChangeValue(newValue any) error {
	pts, ok := newValue.([]CurvePoint)
	if !ok {
		return fmt.Errorf("%w: new value %T not of type []CurvePoint", ErrInvalidParameter, newValue)
	}
	if err := ValidateCurve(pts); err != nil {
		return err
	}
	var err error
	if cc.OnChange != nil {
		err = cc.OnChange(pts)
	}
	if err == nil {
		cc.Points = pts
	}
	return err
}

// ValidateCurve checks that curve points lie in the unit square and have
// strictly increasing X.
func ValidateCurve(pts []CurvePoint) error {
	if len(pts) < 2 {
		return fmt.Errorf("%w: curve needs at least 2 points, got %d", ErrInvalidParameter, len(pts))
	}
	for i, p := range pts {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			return fmt.Errorf("%w: curve point %d (%v,%v) outside unit square", ErrInvalidParameter, i, p.X, p.Y)
		}
		if i > 0 && p.X <= pts[i-1].X {
			return fmt.Errorf("%w: curve point %d X not increasing", ErrInvalidParameter, i)
		}
	}
	return nil
}
