package export

import (
	"path/filepath"
	"testing"

	"github.com/piwi3910/BarCut/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"
)

func TestExportDXF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.dxf")
	require.NoError(t, ExportDXF(path, samplePlan(), DefaultDXFOptions()))

	drawing, err := dxf.Open(path)
	require.NoError(t, err)

	var lines, texts int
	for _, e := range drawing.Entities() {
		switch e.(type) {
		case *entity.Line:
			lines++
		case *entity.Text:
			texts++
		}
	}
	// Three bars: 4 outline edges each, plus cut lines short of the bar end:
	// two bars with 3 cuts and one bar with 3 of its 4 offsets inside.
	assert.Equal(t, 3*4+3+3+3, lines)
	assert.Equal(t, 3, texts)
}

func TestExportDXFEmptyPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.dxf")
	assert.Error(t, ExportDXF(path, model.NewPlan(model.StrategyIP, "m"), DefaultDXFOptions()))
}
