package viz

import (
	"strings"
	"testing"

	"github.com/oedlab/fimdesign/internal/models"
)

func TestRenderStates(t *testing.T) {
	model := models.NewExponential(-0.5, 2.0)

	out, err := NewPlotter().RenderStates(model, nil, 4)
	if err != nil {
		t.Fatalf("RenderStates: %v", err)
	}
	if !strings.Contains(out, "x0 over t=[0, 4]") {
		t.Errorf("missing caption in output:\n%s", out)
	}
}

func TestRenderSensitivities(t *testing.T) {
	model := models.NewExponential(-0.5, 2.0)

	out, err := NewPlotter().RenderSensitivities(model, nil, 4, true, false)
	if err != nil {
		t.Fatalf("RenderSensitivities: %v", err)
	}
	for _, label := range []string{"dg0/dp0", "dg0/dp1"} {
		if !strings.Contains(out, label) {
			t.Errorf("missing %s trace in output:\n%s", label, out)
		}
	}
}

func TestRenderSensitivitiesMissingDerivative(t *testing.T) {
	model := models.NewExponential(-0.5, 2.0)
	model.DFDP = nil

	if _, err := NewPlotter().RenderSensitivities(model, nil, 4, false, false); err == nil {
		t.Fatal("expected configuration error")
	}
}
