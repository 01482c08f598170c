// Package positioner models the robotic fiber positioners of a focal plane: two-rotor arms
// whose contours may interact with the arms of their neighbours.
package positioner

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"

	"go.viam.com/fibermos/spatialmath"
	"go.viam.com/fibermos/utils"
)

// Position holds the angles of both rotors of an actuator.
type Position struct {
	Theta1 float64 `json:"theta1_rad"`
	Theta3 float64 `json:"theta3_rad"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p.Theta1, p.Theta3)
}

// Actuator is the two-rotor mechanism of a positioner. Rotor 1 turns the arm base (P1) around
// the positioner center (P0); rotor 2 turns the arm, which carries the fiber at P3, around P1.
// With theta3 = 0 the arm is folded over the base and with theta3 = pi it is fully extended.
type Actuator struct {
	cfg    Config
	center r2.Point

	theta1 float64
	theta3 float64

	quantify1 bool
	quantify3 bool

	mf1 *MotionFunction
	mf3 *MotionFunction

	stack []Position
}

// NewActuator returns a parked actuator centered on center, with both quantizers enabled.
func NewActuator(cfg Config, center r2.Point) (*Actuator, error) {
	if err := cfg.Validate("actuator"); err != nil {
		return nil, err
	}
	return &Actuator{
		cfg:       cfg,
		center:    center,
		theta1:    cfg.Theta1Min,
		theta3:    cfg.Theta3Min,
		quantify1: true,
		quantify3: true,
	}, nil
}

// Config returns the actuator configuration.
func (a *Actuator) Config() Config {
	return a.cfg
}

// Center returns P0, the rotor 1 axis.
func (a *Actuator) Center() r2.Point {
	return a.center
}

// Theta1 returns the rotor 1 angle.
func (a *Actuator) Theta1() float64 {
	return a.theta1
}

// Theta3 returns the rotor 2 (arm) angle.
func (a *Actuator) Theta3() float64 {
	return a.theta3
}

// Position returns the angles of both rotors.
func (a *Actuator) Position() Position {
	return Position{Theta1: a.theta1, Theta3: a.theta3}
}

// P1 returns the rotor 1 position in steps, not necessarily integer.
func (a *Actuator) P1() float64 {
	return a.Theta1ToSteps(a.theta1)
}

// P3 returns the rotor 2 position in steps, not necessarily integer.
func (a *Actuator) P3() float64 {
	return a.Theta3ToSteps(a.theta3)
}

// Theta1ToSteps converts a rotor 1 angle into steps.
func (a *Actuator) Theta1ToSteps(theta float64) float64 {
	return theta * a.cfg.SB1 / (2 * math.Pi)
}

// Steps1ToTheta converts rotor 1 steps into an angle.
func (a *Actuator) Steps1ToTheta(p float64) float64 {
	return p * 2 * math.Pi / a.cfg.SB1
}

// Theta3ToSteps converts a rotor 2 angle into steps.
func (a *Actuator) Theta3ToSteps(theta float64) float64 {
	return theta * a.cfg.SB2 / (2 * math.Pi)
}

// Steps3ToTheta converts rotor 2 steps into an angle.
func (a *Actuator) Steps3ToTheta(p float64) float64 {
	return p * 2 * math.Pi / a.cfg.SB2
}

// IsInDomain1 reports whether theta is reachable by rotor 1.
func (a *Actuator) IsInDomain1(theta float64) bool {
	return inDomain(theta, a.cfg.Theta1Min, a.cfg.Theta1Max)
}

// IsInDomain3 reports whether theta is reachable by rotor 2.
func (a *Actuator) IsInDomain3(theta float64) bool {
	return inDomain(theta, a.cfg.Theta3Min, a.cfg.Theta3Max)
}

func inDomain(theta, lo, hi float64) bool {
	return theta >= lo-utils.DefaultEpsilon && theta <= hi+utils.DefaultEpsilon
}

// Quantify1 reports whether the rotor 1 quantizer is enabled.
func (a *Actuator) Quantify1() bool {
	return a.quantify1
}

// Quantify3 reports whether the rotor 2 quantizer is enabled.
func (a *Actuator) Quantify3() bool {
	return a.quantify3
}

// SetQuantify1 enables or disables the rotor 1 quantizer. Enabling it snaps the rotor to the
// nearest stable position.
func (a *Actuator) SetQuantify1(enabled bool) {
	a.quantify1 = enabled
	if enabled {
		a.theta1 = quantize(a.theta1, a.cfg.SB1, a.cfg.Theta1Min, a.cfg.Theta1Max)
	}
}

// SetQuantify3 enables or disables the rotor 2 quantizer.
func (a *Actuator) SetQuantify3(enabled bool) {
	a.quantify3 = enabled
	if enabled {
		a.theta3 = quantize(a.theta3, a.cfg.SB2, a.cfg.Theta3Min, a.cfg.Theta3Max)
	}
}

// SetQuantifiers sets both quantizers.
func (a *Actuator) SetQuantifiers(enabled bool) {
	a.SetQuantify1(enabled)
	a.SetQuantify3(enabled)
}

// quantize snaps theta to the nearest integer step that lies in [lo, hi].
func quantize(theta, sb, lo, hi float64) float64 {
	step := 2 * math.Pi / sb
	p := math.Round(theta / step)
	q := p * step
	if q < lo-utils.DefaultEpsilon {
		q = math.Ceil(lo/step-utils.DefaultEpsilon) * step
	}
	if q > hi+utils.DefaultEpsilon {
		q = math.Floor(hi/step+utils.DefaultEpsilon) * step
	}
	return q
}

// SetTheta1 moves rotor 1 to theta, snapping it when the quantizer is enabled.
func (a *Actuator) SetTheta1(theta float64) error {
	if !a.IsInDomain1(theta) {
		return NewOutOfDomainError(1, theta, a.cfg.Theta1Min, a.cfg.Theta1Max)
	}
	a.setTheta1(theta)
	return nil
}

// SetTheta3 moves rotor 2 to theta, snapping it when the quantizer is enabled.
func (a *Actuator) SetTheta3(theta float64) error {
	if !a.IsInDomain3(theta) {
		return NewOutOfDomainError(3, theta, a.cfg.Theta3Min, a.cfg.Theta3Max)
	}
	a.setTheta3(theta)
	return nil
}

// SetAngles moves both rotors. Nothing is changed when either angle is out of its domain.
func (a *Actuator) SetAngles(theta1, theta3 float64) error {
	if !a.IsInDomain1(theta1) {
		return NewOutOfDomainError(1, theta1, a.cfg.Theta1Min, a.cfg.Theta1Max)
	}
	if !a.IsInDomain3(theta3) {
		return NewOutOfDomainError(3, theta3, a.cfg.Theta3Min, a.cfg.Theta3Max)
	}
	a.setTheta1(theta1)
	a.setTheta3(theta3)
	return nil
}

// SetP1 moves rotor 1 to p steps.
func (a *Actuator) SetP1(p float64) error {
	return a.SetTheta1(a.Steps1ToTheta(p))
}

// SetP3 moves rotor 2 to p steps.
func (a *Actuator) SetP3(p float64) error {
	return a.SetTheta3(a.Steps3ToTheta(p))
}

// SetSteps moves both rotors to the given steps.
func (a *Actuator) SetSteps(p1, p3 float64) error {
	return a.SetAngles(a.Steps1ToTheta(p1), a.Steps3ToTheta(p3))
}

func (a *Actuator) setTheta1(theta float64) {
	theta = utils.Clamp(theta, a.cfg.Theta1Min, a.cfg.Theta1Max)
	if a.quantify1 {
		theta = quantize(theta, a.cfg.SB1, a.cfg.Theta1Min, a.cfg.Theta1Max)
	}
	a.theta1 = theta
}

func (a *Actuator) setTheta3(theta float64) {
	theta = utils.Clamp(theta, a.cfg.Theta3Min, a.cfg.Theta3Max)
	if a.quantify3 {
		theta = quantize(theta, a.cfg.SB2, a.cfg.Theta3Min, a.cfg.Theta3Max)
	}
	a.theta3 = theta
}

// ArmBase returns P1, the rotor 2 axis.
func (a *Actuator) ArmBase() r2.Point {
	return spatialmath.PolarPoint(a.center, a.cfg.L01, a.theta1)
}

// armDirection is the absolute orientation of the arm from P1 towards P3.
func (a *Actuator) armDirection() float64 {
	return a.theta1 + math.Pi + a.theta3
}

// FiberPosition returns P3, the point where the fiber is held.
func (a *Actuator) FiberPosition() r2.Point {
	return spatialmath.PolarPoint(a.ArmBase(), a.cfg.L13, a.armDirection())
}

// Contour returns the physical envelope of the arm.
func (a *Actuator) Contour() *spatialmath.Capsule {
	return &spatialmath.Capsule{SegA: a.ArmBase(), SegB: a.FiberPosition(), Radius: a.cfg.ArmRadius, Label: "arm"}
}

// Distance returns the distance between the arm contours of both actuators.
func (a *Actuator) Distance(other *Actuator) float64 {
	return a.Contour().DistanceFrom(other.Contour())
}

// DistanceFree returns the distance between both contours not consumed by their safety margins.
func (a *Actuator) DistanceFree(other *Actuator) float64 {
	return a.Distance(other) - a.cfg.SPM - other.cfg.SPM
}

// MaxApexVelocity returns an upper bound of the linear speed of any point of the arm contour
// due to the programmed motion functions, in mm/ms.
func (a *Actuator) MaxApexVelocity() float64 {
	v := 0.
	if a.mf1 != nil && a.mf1.Moves() {
		v += a.cfg.W1 * a.cfg.Reach()
	}
	if a.mf3 != nil && a.mf3.Moves() {
		v += a.cfg.W2 * (a.cfg.L13 + a.cfg.ArmRadius)
	}
	return v
}

// ArmInSafeArea reports whether the arm is folded enough to not invade any neighbour.
func (a *Actuator) ArmInSafeArea() bool {
	return a.theta3 <= a.cfg.Theta3Safe+utils.DefaultEpsilon
}

// AngleForTarget solves the inverse kinematics placing the fiber at (x, y). inDomain is false
// when the point is out of reach or the solution lies outside the rotor domains; the returned
// angles are then meaningless.
func (a *Actuator) AngleForTarget(x, y float64) (theta1, theta3 float64, inDomain bool) {
	rel := r2.Point{X: x, Y: y}.Sub(a.center)
	r := rel.Norm()
	l01, l13 := a.cfg.L01, a.cfg.L13
	cos3 := (l01*l01 + l13*l13 - r*r) / (2 * l01 * l13)
	if cos3 < -1-utils.DefaultEpsilon || cos3 > 1+utils.DefaultEpsilon {
		return 0, 0, false
	}
	theta3 = math.Acos(utils.Clamp(cos3, -1, 1))
	s3 := math.Sin(theta3)
	theta1 = math.Atan2(rel.Y, rel.X) - math.Atan2(-l13*s3, l01-l13*math.Cos(theta3))
	if r < utils.DefaultEpsilon {
		// any rotor 1 angle reaches the center
		theta1 = a.theta1
	}
	for theta1 < a.cfg.Theta1Min-utils.DefaultEpsilon {
		theta1 += 2 * math.Pi
	}
	for theta1 > a.cfg.Theta1Max+utils.DefaultEpsilon {
		theta1 -= 2 * math.Pi
	}
	return theta1, theta3, a.IsInDomain1(theta1) && a.IsInDomain3(theta3)
}

// MF1 returns the motion function programmed for rotor 1, or nil.
func (a *Actuator) MF1() *MotionFunction {
	return a.mf1
}

// MF3 returns the motion function programmed for rotor 2, or nil.
func (a *Actuator) MF3() *MotionFunction {
	return a.mf3
}

// Programmed reports whether any motion function is programmed.
func (a *Actuator) Programmed() bool {
	return a.mf1 != nil || a.mf3 != nil
}

// ProgramRetraction programs the arm to fold to its parked angle. Rotor 1 does not move.
func (a *Actuator) ProgramRetraction() {
	a.mf1 = nil
	a.mf3 = NewMotionFunction(a.theta3, a.cfg.Theta3Min, a.cfg.W2)
}

// IsRetractionProgrammed reports whether the programmed motion parks the arm.
func (a *Actuator) IsRetractionProgrammed() bool {
	return a.mf3 != nil && utils.Float64AlmostEqual(a.mf3.Final, a.cfg.Theta3Min, utils.DefaultEpsilon)
}

// ProgramTheta1 programs rotor 1 to travel from its current angle to theta.
func (a *Actuator) ProgramTheta1(theta float64) error {
	if !a.IsInDomain1(theta) {
		return NewOutOfDomainError(1, theta, a.cfg.Theta1Min, a.cfg.Theta1Max)
	}
	a.mf1 = NewMotionFunction(a.theta1, theta, a.cfg.W1)
	return nil
}

// ProgramTheta3 programs rotor 2 to travel from its current angle to theta.
func (a *Actuator) ProgramTheta3(theta float64) error {
	if !a.IsInDomain3(theta) {
		return NewOutOfDomainError(3, theta, a.cfg.Theta3Min, a.cfg.Theta3Max)
	}
	a.mf3 = NewMotionFunction(a.theta3, theta, a.cfg.W2)
	return nil
}

// ProgramP1 programs rotor 1 to travel to p steps.
func (a *Actuator) ProgramP1(p float64) error {
	return a.ProgramTheta1(a.Steps1ToTheta(p))
}

// ProgramP3 programs rotor 2 to travel to p steps.
func (a *Actuator) ProgramP3(p float64) error {
	return a.ProgramTheta3(a.Steps3ToTheta(p))
}

// ProgramSteps programs both rotors.
func (a *Actuator) ProgramSteps(p1, p3 float64) error {
	if err := a.ProgramP1(p1); err != nil {
		return err
	}
	if err := a.ProgramP3(p3); err != nil {
		a.mf1 = nil
		return err
	}
	return nil
}

// ClearCMF removes the programmed motion functions.
func (a *Actuator) ClearCMF() {
	a.mf1 = nil
	a.mf3 = nil
}

// ShiftMF1 displaces the rotor 1 motion function, if any, by delta radians.
func (a *Actuator) ShiftMF1(delta float64) {
	if a.mf1 != nil {
		a.mf1.Shift(delta, a.cfg.Theta1Min, a.cfg.Theta1Max)
	}
}

// DelayCMF makes the programmed motion functions wait delay ms before moving.
func (a *Actuator) DelayCMF(delay float64) {
	if a.mf1 != nil {
		a.mf1.Delay = delay
	}
	if a.mf3 != nil {
		a.mf3.Delay = delay
	}
}

// DisplacementTime returns the time needed to complete the programmed motion.
func (a *Actuator) DisplacementTime() float64 {
	t := 0.
	if a.mf1 != nil {
		t = math.Max(t, a.mf1.Duration())
	}
	if a.mf3 != nil {
		t = math.Max(t, a.mf3.Duration())
	}
	return t
}

// MoveToTime places the rotors where the programmed motion puts them at time t.
func (a *Actuator) MoveToTime(t float64) {
	if a.mf1 != nil {
		a.setTheta1(a.mf1.At(t))
	}
	if a.mf3 != nil {
		a.setTheta3(a.mf3.At(t))
	}
}

// MoveToFinal places the rotors at the end of the programmed motion.
func (a *Actuator) MoveToFinal() {
	if a.mf1 != nil {
		a.setTheta1(a.mf1.Final)
	}
	if a.mf3 != nil {
		a.setTheta3(a.mf3.Final)
	}
}

// ProgramString describes the programmed motion.
func (a *Actuator) ProgramString() string {
	if !a.Programmed() {
		return "no motion"
	}
	mf1, mf3 := "none", "none"
	if a.mf1 != nil {
		mf1 = a.mf1.String()
	}
	if a.mf3 != nil {
		mf3 = a.mf3.String()
	}
	return fmt.Sprintf("mf1: %s, mf3: %s", mf1, mf3)
}

func (a *Actuator) String() string {
	return fmt.Sprintf("center: (%.3f, %.3f), p1: %.3f, p3: %.3f", a.center.X, a.center.Y, a.P1(), a.P3())
}
