package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/asngen/internal/ir"
	"github.com/roach88/asngen/internal/testutil"
)

func TestWorkQueue_FIFO(t *testing.T) {
	q := newWorkQueue()
	a := ir.NewProcessList(testutil.Item("n", "1"))
	b := ir.NewProcessList(testutil.Item("n", "2"))

	q.Enqueue(a)
	q.Enqueue(b)
	require.Equal(t, 2, q.Len())

	got, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, "1", got.Items[0]["n"])

	got, ok = q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, "2", got.Items[0]["n"])

	_, ok = q.TryDequeue()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())
}

func TestWorkQueue_IgnoresEmptyLists(t *testing.T) {
	q := newWorkQueue()
	q.Enqueue(ir.ProcessList{WorkOver: ir.WorkOverRules})
	assert.Equal(t, 0, q.Len())
}

func TestWorkQueue_InterleavedEnqueue(t *testing.T) {
	q := newWorkQueue()
	q.Enqueue(ir.NewProcessList(testutil.Item("n", "1")))

	_, ok := q.TryDequeue()
	require.True(t, ok)

	q.Enqueue(ir.NewProcessList(testutil.Item("n", "2")))
	q.Enqueue(ir.NewProcessList(testutil.Item("n", "3")))

	var order []string
	for {
		pl, ok := q.TryDequeue()
		if !ok {
			break
		}
		order = append(order, pl.Items[0]["n"])
	}
	assert.Equal(t, []string{"2", "3"}, order)
}
