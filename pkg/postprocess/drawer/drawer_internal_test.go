package drawer

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-postprocess/pkg/postprocess/model"
)

type closeFailure struct {
	bytes.Buffer
	closed bool
}

func (c *closeFailure) Close() error {
	c.closed = true

	return errors.New("device gone")
}

func TestWriteAndCloseReportsClose(t *testing.T) {
	t.Parallel()

	d := NewFileDrawer("plan.dot")
	require.NoError(t, d.AddStep("glm", model.KindClassProbabilities))

	out := &closeFailure{}
	err := d.writeAndClose(out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to close file plan.dot: device gone")
	assert.True(t, out.closed)
	assert.Contains(t, out.String(), `"glm"`)
}
