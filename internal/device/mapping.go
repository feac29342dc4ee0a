package device

import "math"

// Deadzone is the normalized axis travel ignored as noise
const Deadzone = 0.05

// D-pad hat bits
const (
	HatUp    uint8 = 0x01
	HatRight uint8 = 0x02
	HatDown  uint8 = 0x04
	HatLeft  uint8 = 0x08
)

// Control names one field of InputState
type Control int

const (
	ControlNone Control = iota
	ControlLeftX
	ControlLeftY
	ControlRightX
	ControlRightY
	ControlLT
	ControlRT
	ControlA
	ControlB
	ControlX
	ControlY
	ControlLB
	ControlRB
	ControlSelect
	ControlStart
	ControlHome
	ControlL3
	ControlR3
)

// AxisMapping maps a raw axis index to a stick or trigger
type AxisMapping struct {
	Index   int32
	Control Control
	Trigger bool
	Invert  bool
	// Trigger raw range; some devices report -32768..32767, others 0..32767
	RawMin int16
	RawMax int16
}

// ButtonMapping maps a raw button index to a button
type ButtonMapping struct {
	Index   int32
	Control Control
}

// Mapping is the layout of one controller family
type Mapping struct {
	Name    string
	Axes    []AxisMapping
	Buttons []ButtonMapping
	HasHat  bool
}

// NormalizeAxis converts a raw axis value to -1..1
func NormalizeAxis(raw int16) float64 {
	return math.Max(float64(raw)/math.MaxInt16, -1)
}

// NormalizeTrigger converts a raw trigger value to 0..1
func NormalizeTrigger(raw, rawMin, rawMax int16) float64 {
	if rawMax == rawMin {
		return 0
	}
	v := (float64(raw) - float64(rawMin)) / (float64(rawMax) - float64(rawMin))

	return math.Min(math.Max(v, 0), 1)
}

// ApplyDeadzone returns 0 for values inside the threshold
func ApplyDeadzone(v, threshold float64) float64 {
	if math.Abs(v) < threshold {
		return 0
	}

	return v
}

// SetAxis stores an already normalized axis value
func (s *InputState) SetAxis(c Control, v float64) {
	switch c {
	case ControlLeftX:
		s.Sticks.Left.X = v
	case ControlLeftY:
		s.Sticks.Left.Y = v
	case ControlRightX:
		s.Sticks.Right.X = v
	case ControlRightY:
		s.Sticks.Right.Y = v
	case ControlLT:
		s.Triggers.LT = v
	case ControlRT:
		s.Triggers.RT = v
	}
}

// SetButton stores a button state
func (s *InputState) SetButton(c Control, pressed bool) {
	switch c {
	case ControlA:
		s.Buttons.A = pressed
	case ControlB:
		s.Buttons.B = pressed
	case ControlX:
		s.Buttons.X = pressed
	case ControlY:
		s.Buttons.Y = pressed
	case ControlLB:
		s.Buttons.LB = pressed
	case ControlRB:
		s.Buttons.RB = pressed
	case ControlSelect:
		s.Buttons.Select = pressed
	case ControlStart:
		s.Buttons.Start = pressed
	case ControlHome:
		s.Buttons.Home = pressed
	case ControlL3:
		s.Buttons.L3 = pressed
	case ControlR3:
		s.Buttons.R3 = pressed
	}
}

// SetHat decodes hat bits into the d-pad
func (s *InputState) SetHat(hat uint8) {
	s.Dpad = DpadState{
		Up:    hat&HatUp != 0,
		Right: hat&HatRight != 0,
		Down:  hat&HatDown != 0,
		Left:  hat&HatLeft != 0,
	}
}

var standardAxes = []AxisMapping{
	{Index: 0, Control: ControlLeftX},
	{Index: 1, Control: ControlLeftY, Invert: true},
	{Index: 2, Control: ControlRightX},
	{Index: 3, Control: ControlRightY, Invert: true},
	{Index: 4, Control: ControlLT, Trigger: true, RawMin: math.MinInt16, RawMax: math.MaxInt16},
	{Index: 5, Control: ControlRT, Trigger: true, RawMin: math.MinInt16, RawMax: math.MaxInt16},
}

var standardButtons = []ButtonMapping{
	{Index: 0, Control: ControlA},
	{Index: 1, Control: ControlB},
	{Index: 2, Control: ControlX},
	{Index: 3, Control: ControlY},
	{Index: 4, Control: ControlLB},
	{Index: 5, Control: ControlRB},
	{Index: 6, Control: ControlSelect},
	{Index: 7, Control: ControlStart},
	{Index: 8, Control: ControlL3},
	{Index: 9, Control: ControlR3},
	{Index: 10, Control: ControlHome},
}

var (
	xboxMapping = &Mapping{Name: "xbox", Axes: standardAxes, Buttons: standardButtons, HasHat: true}

	playstationMapping = &Mapping{
		Name: "playstation",
		Axes: standardAxes,
		Buttons: []ButtonMapping{
			{Index: 0, Control: ControlA}, // cross
			{Index: 1, Control: ControlB}, // circle
			{Index: 2, Control: ControlX}, // square
			{Index: 3, Control: ControlY}, // triangle
			{Index: 4, Control: ControlSelect},
			{Index: 5, Control: ControlHome},
			{Index: 6, Control: ControlStart},
			{Index: 7, Control: ControlL3},
			{Index: 8, Control: ControlR3},
			{Index: 9, Control: ControlLB},
			{Index: 10, Control: ControlRB},
		},
		HasHat: true,
	}

	// Digital triggers only
	switchProMapping = &Mapping{Name: "switch_pro", Axes: standardAxes[:4], Buttons: standardButtons, HasHat: true}

	genericMapping = &Mapping{Name: "generic", Axes: standardAxes, Buttons: standardButtons, HasHat: true}
)

type deviceKey struct {
	vendor, product uint16
}

var knownDevices = map[deviceKey]*Mapping{
	{0x045E, 0x028E}: xboxMapping, // Xbox 360
	{0x045E, 0x02FF}: xboxMapping, // Xbox One
	{0x045E, 0x0B12}: xboxMapping, // Xbox Series X|S
	{0x045E, 0x0B13}: xboxMapping,
	{0x054C, 0x0CE6}: playstationMapping, // DualSense
	{0x054C, 0x09CC}: playstationMapping, // DualShock 4 v2
	{0x054C, 0x05C4}: playstationMapping,
	{0x057E, 0x2009}: switchProMapping,
}

// MappingFor returns the layout for a vendor/product pair, or the generic one
func MappingFor(vendor, product uint16) *Mapping {
	if m, ok := knownDevices[deviceKey{vendor, product}]; ok {
		return m
	}

	return genericMapping
}
