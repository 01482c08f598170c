package motionplan

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func mustInstruction(t *testing.T, id int, name InstructionName, args ...float64) *MessageInstruction {
	t.Helper()
	mi, err := NewMessageInstruction(id, name, args...)
	test.That(t, err, test.ShouldBeNil)
	return mi
}

func gesture(t *testing.T, instructions ...*MessageInstruction) *MessageList {
	t.Helper()
	ml := NewMessageList()
	for _, mi := range instructions {
		test.That(t, ml.Add(mi), test.ShouldBeNil)
	}
	return ml
}

func TestMessageInstruction(t *testing.T) {
	_, err := NewMessageInstruction(0, "M3", 1)
	test.That(t, errors.Is(err, ErrImproperArgument), test.ShouldBeTrue)
	_, err = NewMessageInstruction(0, MM, 1)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewMessageInstruction(-1, M1, 1)
	test.That(t, err, test.ShouldNotBeNil)

	mi := mustInstruction(t, 4, MM, 307, 12.5)
	test.That(t, mi.String(), test.ShouldEqual, "RP4 MM 307 12.5")

	mi.Delay = 12
	test.That(t, mi.String(), test.ShouldEqual, "RP4 MM 307 12.5 after 12.000 ms")
	data, err := json.Marshal(mi)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldContainSubstring, `"delay_ms":12`)
	mi.Delay = -1
	test.That(t, errors.Is(mi.Validate(), ErrImproperArgument), test.ShouldBeTrue)
}

func TestMessageListUniqueIDs(t *testing.T) {
	ml := gesture(t, mustInstruction(t, 3, M2, 0), mustInstruction(t, 1, M2, 0))
	err := ml.Add(mustInstruction(t, 3, M1, 10))
	test.That(t, errors.Is(err, ErrImproperArgument), test.ShouldBeTrue)
	test.That(t, ml.IDs(), test.ShouldResemble, []int{3, 1})
	mi, ok := ml.Get(1)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, mi.Name, test.ShouldEqual, M2)
}

func TestMotionProgram(t *testing.T) {
	mp := NewMotionProgram()
	test.That(t, mp.ID, test.ShouldNotEqual, uuid.Nil)
	test.That(t, mp.Empty(), test.ShouldBeTrue)

	mp.Append(gesture(t, mustInstruction(t, 0, M2, 0), mustInstruction(t, 2, M2, 0)))
	mp.Insert(0, gesture(t, mustInstruction(t, 2, M1, 307)))
	test.That(t, mp.Len(), test.ShouldEqual, 2)
	test.That(t, mp.Empty(), test.ShouldBeFalse)
	test.That(t, mp.At(0).IDs(), test.ShouldResemble, []int{2})
	test.That(t, mp.ReferencedIDs(), test.ShouldResemble, []int{0, 2})
	test.That(t, mp.String(), test.ShouldEqual,
		"motion program "+mp.ID.String()+"\ngesture 0: RP2 M1 307;\ngesture 1: RP0 M2 0; RP2 M2 0;")

	data, err := json.Marshal(mp)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldContainSubstring, `[{"id":2,"name":"M1","args":[307]}]`)

	var decoded MotionProgram
	test.That(t, json.Unmarshal(data, &decoded), test.ShouldBeNil)
	test.That(t, decoded.ID, test.ShouldEqual, mp.ID)
	test.That(t, cmp.Diff(mp.String(), decoded.String()), test.ShouldBeEmpty)

	// duplicated ids within a gesture are rejected on decoding
	err = json.Unmarshal([]byte(`{"gestures":[[{"id":1,"name":"M2","args":[0]},{"id":1,"name":"M1","args":[3]}]]}`), &decoded)
	test.That(t, errors.Is(err, ErrImproperArgument), test.ShouldBeTrue)

	test.That(t, json.Unmarshal([]byte(`{"gestures":[]}`), &decoded), test.ShouldBeNil)
	test.That(t, decoded.ID, test.ShouldNotEqual, uuid.Nil)
	test.That(t, decoded.Len(), test.ShouldEqual, 0)
}

func TestOptions(t *testing.T) {
	opts := NewBasicOptions()
	test.That(t, opts.Validate("planner"), test.ShouldBeNil)
	test.That(t, opts.MaxRestarts, test.ShouldEqual, defaultMaxRestarts)

	opts, err := OptionsFromMap(map[string]interface{}{"jump_rad": 0.1, "max_restarts": "20", "validate": false})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, opts, test.ShouldResemble, &Options{Jump: 0.1, MaxRestarts: 20, ValidatePrograms: false})

	_, err = OptionsFromMap(map[string]interface{}{"jumps": 0.1})
	test.That(t, err, test.ShouldNotBeNil)

	_, err = OptionsFromMap(map[string]interface{}{"jump_rad": 0, "max_restarts": -1})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "jump_rad")
	test.That(t, err.Error(), test.ShouldContainSubstring, "max_restarts")
}

func TestCollisionError(t *testing.T) {
	err := &CollisionError{Gesture: 1, ID1: 0, ID2: 1, Time: 90.9}
	test.That(t, err.Error(), test.ShouldEqual, "RP0 and RP1 collide during gesture 1 at t = 90.900 ms")
	err = &CollisionError{Gesture: -1, ID1: 0, ID2: 1}
	test.That(t, err.Error(), test.ShouldContainSubstring, "initial configuration")
}
