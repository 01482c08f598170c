package motionplan

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/fibermos/positioner"
)

// InstructionName identifies a motion primitive.
type InstructionName string

// the motion primitives a positioner understands. Arguments are absolute positions in steps.
const (
	// M1 moves rotor 1.
	M1 InstructionName = "M1"
	// M2 moves rotor 2.
	M2 InstructionName = "M2"
	// MM moves both rotors.
	MM InstructionName = "MM"
)

func (name InstructionName) argCount() int {
	switch name {
	case M1, M2:
		return 1
	case MM:
		return 2
	default:
		return -1
	}
}

// MessageInstruction is the instruction sent to one positioner within a gesture. The positioner
// starts moving Delay ms after the gesture starts.
type MessageInstruction struct {
	ID    int             `json:"id"`
	Name  InstructionName `json:"name"`
	Args  []float64       `json:"args"`
	Delay float64         `json:"delay_ms,omitempty"`
}

// NewMessageInstruction returns a validated instruction.
func NewMessageInstruction(id int, name InstructionName, args ...float64) (*MessageInstruction, error) {
	mi := &MessageInstruction{ID: id, Name: name, Args: args}
	if err := mi.Validate(); err != nil {
		return nil, err
	}
	return mi, nil
}

// Validate checks the instruction is well formed.
func (mi *MessageInstruction) Validate() error {
	if mi.ID < 0 {
		return NewImproperArgumentError("instruction for negative id %d", mi.ID)
	}
	n := mi.Name.argCount()
	if n < 0 {
		return NewImproperArgumentError("unknown instruction %q for RP%d", mi.Name, mi.ID)
	}
	if len(mi.Args) != n {
		return NewImproperArgumentError("instruction %s for RP%d takes %d arguments, got %d", mi.Name, mi.ID, n, len(mi.Args))
	}
	if mi.Delay < 0 || math.IsInf(mi.Delay, 0) || math.IsNaN(mi.Delay) {
		return NewImproperArgumentError("instruction %s for RP%d has invalid delay %v", mi.Name, mi.ID, mi.Delay)
	}
	return nil
}

// Program installs the instruction as the motion functions of act, starting from its current
// position.
func (mi *MessageInstruction) Program(act *positioner.Actuator) error {
	if err := mi.Validate(); err != nil {
		return err
	}
	var err error
	switch mi.Name {
	case M1:
		err = act.ProgramP1(mi.Args[0])
	case M2:
		err = act.ProgramP3(mi.Args[0])
	case MM:
		err = act.ProgramSteps(mi.Args[0], mi.Args[1])
	}
	if err != nil {
		return errors.Wrapf(err, "cannot program %v", mi)
	}
	act.DelayCMF(mi.Delay)
	return nil
}

func (mi *MessageInstruction) String() string {
	args := lo.Map(mi.Args, func(a float64, _ int) string { return strconv.FormatFloat(a, 'f', -1, 64) })
	if mi.Delay > 0 {
		return fmt.Sprintf("RP%d %s %s after %.3f ms", mi.ID, mi.Name, strings.Join(args, " "), mi.Delay)
	}
	return fmt.Sprintf("RP%d %s %s", mi.ID, mi.Name, strings.Join(args, " "))
}

// MessageList is a gesture: instructions executed simultaneously, at most one per positioner.
type MessageList struct {
	instructions *positioner.List[int, *MessageInstruction]
}

// NewMessageList returns an empty gesture.
func NewMessageList() *MessageList {
	return &MessageList{
		instructions: positioner.NewList(func(mi *MessageInstruction) int { return mi.ID }).
			WithFormatter(func(mi *MessageInstruction) string { return mi.String() }),
	}
}

// Add appends mi. A gesture cannot hold two instructions for the same positioner.
func (ml *MessageList) Add(mi *MessageInstruction) error {
	if err := mi.Validate(); err != nil {
		return err
	}
	if !ml.instructions.Add(mi) {
		return NewImproperArgumentError("gesture already has an instruction for RP%d", mi.ID)
	}
	return nil
}

// Instructions returns the instructions in order.
func (ml *MessageList) Instructions() []*MessageInstruction {
	return ml.instructions.Items()
}

// Get returns the instruction for the positioner id.
func (ml *MessageList) Get(id int) (*MessageInstruction, bool) {
	return ml.instructions.Get(id)
}

// IDs returns the positioners the gesture moves.
func (ml *MessageList) IDs() []int {
	return ml.instructions.Keys()
}

// Len returns the number of instructions.
func (ml *MessageList) Len() int {
	return ml.instructions.Len()
}

func (ml *MessageList) String() string {
	return ml.instructions.String()
}

// MarshalJSON encodes the gesture as an array of instructions.
func (ml *MessageList) MarshalJSON() ([]byte, error) {
	return json.Marshal(ml.instructions.Items())
}

// UnmarshalJSON decodes an array of instructions.
func (ml *MessageList) UnmarshalJSON(data []byte) error {
	var instructions []*MessageInstruction
	if err := json.Unmarshal(data, &instructions); err != nil {
		return err
	}
	*ml = *NewMessageList()
	for _, mi := range instructions {
		if err := ml.Add(mi); err != nil {
			return err
		}
	}
	return nil
}

// MotionProgram is an ordered sequence of gestures.
type MotionProgram struct {
	ID    uuid.UUID
	lists []*MessageList
}

// NewMotionProgram returns an empty program with a fresh id.
func NewMotionProgram() *MotionProgram {
	return &MotionProgram{ID: uuid.New()}
}

// Append adds the gesture at the end of the program.
func (mp *MotionProgram) Append(ml *MessageList) {
	mp.lists = append(mp.lists, ml)
}

// Insert adds the gesture at position i.
func (mp *MotionProgram) Insert(i int, ml *MessageList) {
	mp.lists = slices.Insert(mp.lists, i, ml)
}

// Len returns the number of gestures.
func (mp *MotionProgram) Len() int {
	return len(mp.lists)
}

// At returns the i-th gesture.
func (mp *MotionProgram) At(i int) *MessageList {
	return mp.lists[i]
}

// Lists returns the gestures in execution order.
func (mp *MotionProgram) Lists() []*MessageList {
	return slices.Clone(mp.lists)
}

// Empty reports whether the program moves nothing.
func (mp *MotionProgram) Empty() bool {
	return !lo.SomeBy(mp.lists, func(ml *MessageList) bool { return ml.Len() > 0 })
}

// ReferencedIDs returns the sorted ids of every positioner the program moves.
func (mp *MotionProgram) ReferencedIDs() []int {
	ids := lo.Uniq(lo.FlatMap(mp.lists, func(ml *MessageList, _ int) []int { return ml.IDs() }))
	slices.Sort(ids)
	return ids
}

// String returns a human-readable version of the program, suitable for debugging.
func (mp *MotionProgram) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "motion program %s", mp.ID)
	for i, ml := range mp.lists {
		fmt.Fprintf(&sb, "\ngesture %d:", i)
		for _, mi := range ml.Instructions() {
			fmt.Fprintf(&sb, " %v;", mi)
		}
	}
	return sb.String()
}

type motionProgramJSON struct {
	ID       uuid.UUID      `json:"id"`
	Gestures []*MessageList `json:"gestures"`
}

// MarshalJSON encodes the program.
func (mp *MotionProgram) MarshalJSON() ([]byte, error) {
	gestures := mp.lists
	if gestures == nil {
		gestures = []*MessageList{}
	}
	return json.Marshal(motionProgramJSON{ID: mp.ID, Gestures: gestures})
}

// UnmarshalJSON decodes a program. A program without id gets a fresh one.
func (mp *MotionProgram) UnmarshalJSON(data []byte) error {
	var raw motionProgramJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.ID == uuid.Nil {
		raw.ID = uuid.New()
	}
	mp.ID = raw.ID
	mp.lists = raw.Gestures
	return nil
}
