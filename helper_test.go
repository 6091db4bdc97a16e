package taskgraph

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestConnectionHelper(t *testing.T) {
	task := Func1x1("in", "out", identity)
	helper := newConnectionHelper(task.Inputs(), task.Outputs())

	t.Run("maps ports to slot indices", func(t *testing.T) {
		assert.Equal(t, 1, len(helper.inputs()))
		assert.Equal(t, 1, len(helper.outputs()))
		assert.Equal(t, 0, helper.inputs()[task.Inputs()[0]])
		assert.Equal(t, 0, helper.outputs()[task.Outputs()[0]])
	})

	t.Run("bind rejects foreign ports", func(t *testing.T) {
		foreign := NewOutput[int]("foreign")
		err := helper.bind(foreign, func(int) {})
		assert.IsError(t, err, ErrSlotNotFound)
	})

	t.Run("target rejects foreign ports", func(t *testing.T) {
		foreign := NewInput[int]("foreign")
		_, err := helper.target(foreign)
		assert.IsError(t, err, ErrSlotNotFound)
	})

	t.Run("target and bind exchange a working pusher", func(t *testing.T) {
		downstream := Func1x0("in", func(int) {})
		downstreamHelper := newConnectionHelper(downstream.Inputs(), downstream.Outputs())

		push, err := downstreamHelper.target(downstream.Inputs()[0])
		assert.NoError(t, err)
		assert.NoError(t, helper.bind(task.Outputs()[0], push))

		task.Outputs()[0].(*Output[int]).Emit(5)
		assert.Equal(t, 1, downstream.Inputs()[0].pending())
	})

	t.Run("following set accumulates", func(t *testing.T) {
		helper.addFollowing(3)
		helper.addFollowing(3)
		helper.addFollowing(5)
		assert.Equal(t, 2, len(helper.following))
	})

	t.Run("queue handover is single use", func(t *testing.T) {
		h := newConnectionHelper(task.Inputs(), task.Outputs())
		h.queue()
		assert.Panics(t, func() { h.queue() })
	})
}
