package control

import (
	"errors"
	"math"
	"testing"
)

func TestPIDProportionalOnly(t *testing.T) {
	pid := NewPID(1, 0, 0)
	if u := pid.Update(10, 0, 1); u != 10 {
		t.Errorf("expected 10, got %f", u)
	}
}

func TestPIDIntegralAccumulates(t *testing.T) {
	ki, e, dt := 0.5, 4.0, 0.1
	pid := NewPID(0, ki, 0)

	first := pid.Update(e, 0, dt)
	second := pid.Update(e, 0, dt)

	if math.Abs(first-ki*e*dt) > 1e-12 {
		t.Errorf("expected first integral term %f, got %f", ki*e*dt, first)
	}
	if math.Abs(second-ki*2*e*dt) > 1e-12 {
		t.Errorf("expected second integral term %f, got %f", ki*2*e*dt, second)
	}
}

func TestPIDDerivativeFromZero(t *testing.T) {
	pid := NewPID(0, 0, 0.1)

	u := pid.Update(100, 300, 0.01)
	want := 0.1 * (-200.0 / 0.01)
	if math.Abs(u-want) > 1e-9 {
		t.Errorf("expected %f, got %f", want, u)
	}

	u = pid.Update(100, 300, 0.01)
	if u != 0 {
		t.Errorf("constant error should give zero derivative, got %f", u)
	}
}

func TestPIDFirstTickScenario(t *testing.T) {
	pid := NewPID(1.0, 0.2, 0.1)
	u := pid.Update(100, 300, 0.01)
	if math.Abs(u-(-2200.4)) > 1e-9 {
		t.Errorf("expected -2200.4, got %f", u)
	}

	terms := pid.Terms()
	if terms.P != -200 {
		t.Errorf("expected P=-200, got %f", terms.P)
	}
	if math.Abs(terms.I-(-0.4)) > 1e-12 {
		t.Errorf("expected I=-0.4, got %f", terms.I)
	}
	if math.Abs(terms.D-(-2000)) > 1e-9 {
		t.Errorf("expected D=-2000, got %f", terms.D)
	}
}

func TestPIDStateMutation(t *testing.T) {
	pid := NewPID(1, 1, 1)
	pid.Update(5, 2, 0.5)

	if pid.PrevError() != 3 {
		t.Errorf("expected prevErr 3, got %f", pid.PrevError())
	}
	if pid.Integral() != 1.5 {
		t.Errorf("expected integral 1.5, got %f", pid.Integral())
	}

	pid.Reset()
	if pid.PrevError() != 0 || pid.Integral() != 0 {
		t.Error("reset did not clear error state")
	}
}

func TestPIDUnboundedIntegral(t *testing.T) {
	pid := NewPID(0, 1, 0)
	for i := 0; i < 1000; i++ {
		pid.Update(1, 0, 1)
	}
	if pid.Integral() != 1000 {
		t.Errorf("expected unclamped integral 1000, got %f", pid.Integral())
	}
}

func TestPIDIntegralLimit(t *testing.T) {
	pid := NewPID(0, 1, 0)
	pid.IntegralLimit = 2

	for i := 0; i < 10; i++ {
		pid.Update(1, 0, 1)
	}
	if pid.Integral() != 2 {
		t.Errorf("expected integral clamped to 2, got %f", pid.Integral())
	}

	for i := 0; i < 10; i++ {
		pid.Update(-1, 0, 1)
	}
	if pid.Integral() != -2 {
		t.Errorf("expected integral clamped to -2, got %f", pid.Integral())
	}
}

func TestPIDGains(t *testing.T) {
	pid := NewPID(1, 2, 3)
	if g := pid.Gains(); g != (Gains{1, 2, 3}) {
		t.Errorf("unexpected gains %+v", g)
	}

	pid.SetGains(Gains{Kp: 4})
	if u := pid.Update(1, 0, 1); u != 4 {
		t.Errorf("new gains not applied, got %f", u)
	}
}

func TestPIDParams(t *testing.T) {
	pid := NewPID(1, 2, 3)

	params := pid.GetParams()
	if params["Kp"] != 1 || params["Ki"] != 2 || params["Kd"] != 3 {
		t.Errorf("unexpected params %v", params)
	}

	tests := []struct {
		name    string
		wantErr bool
	}{
		{"Kp", false},
		{"Ki", false},
		{"Kd", false},
		{"Target", true},
		{"kp", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pid.SetParam(tt.name, 9)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownParam) {
					t.Errorf("expected ErrUnknownParam, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if pid.GetParams()[tt.name] != 9 {
				t.Errorf("%s not updated", tt.name)
			}
		})
	}
}

func TestGainsGet(t *testing.T) {
	g := Gains{Kp: 1, Ki: 2, Kd: 3}
	for name, want := range map[string]float64{"Kp": 1, "Ki": 2, "Kd": 3, "Kx": 0} {
		if got := g.Get(name); got != want {
			t.Errorf("Get(%q) = %f, want %f", name, got, want)
		}
	}
}
