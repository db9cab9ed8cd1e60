package engine

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/vi-orbit/component"
	"github.com/lixenwraith/vi-orbit/constant"
	"github.com/lixenwraith/vi-orbit/event"
	"github.com/lixenwraith/vi-orbit/persistence"
	"github.com/lixenwraith/vi-orbit/physics"
	"github.com/lixenwraith/vi-orbit/registry"
	"github.com/lixenwraith/vi-orbit/status"
	"github.com/lixenwraith/vi-orbit/vmath"
)

const (
	sunMass   = 1.98847e30
	earthMass = 5.972e24
	moonMass  = 7.342e22
	au        = 1.495978707e11
)

func testConfig(t *testing.T) Config {
	cfg := DefaultConfig()
	cfg.Workers = 1
	cfg.SaveDir = t.TempDir()
	cfg.Status = status.NewRegistry()
	return cfg
}

// addSunProbe registers the Sun at rest and a probe on a circular orbit of radius r
func addSunProbe(t *testing.T, sim *Simulation, r float64) (sun, probe component.BodyID) {
	t.Helper()
	mu := sim.Units().Mu(sunMass)

	sun, err := sim.AddBody(component.Body{Name: "Sun", Kind: component.Celestial, Mass: sunMass, Radius: 6.957e8})
	require.NoError(t, err)
	probe, err = sim.AddBody(component.Body{
		Name:     "Probe",
		Kind:     component.Orbital,
		Mass:     500,
		Position: vmath.Vec3{X: r},
		Velocity: vmath.Vec3{Y: math.Sqrt(mu / r)},
	})
	require.NoError(t, err)
	return sun, probe
}

// addEarthMoon registers Earth on a circular heliocentric orbit and the Moon around it
func addEarthMoon(t *testing.T, sim *Simulation, sun component.BodyID) (earth, moon component.BodyID) {
	t.Helper()
	vEarth := math.Sqrt(physics.Meters.Mu(sunMass) / au)
	vMoon := math.Sqrt(physics.Meters.Mu(earthMass) / 3.844e8)

	earth, err := sim.AddBody(component.Body{
		Name: "Earth", Kind: component.Celestial, Mass: earthMass, Radius: 6.371e6, Parent: sun,
		Position: vmath.Vec3{X: au}, Velocity: vmath.Vec3{Y: vEarth},
	})
	require.NoError(t, err)
	moon, err = sim.AddBody(component.Body{
		Name: "Moon", Kind: component.Celestial, Mass: moonMass, Radius: 1.7374e6, Parent: earth,
		Position: vmath.Vec3{X: au + 3.844e8}, Velocity: vmath.Vec3{Y: vEarth + vMoon},
	})
	require.NoError(t, err)
	return earth, moon
}

func TestUpdate_ZeroSpeedDoesNothing(t *testing.T) {
	sim := New(testConfig(t))
	_, probe := addSunProbe(t, sim, au)
	before, _ := sim.Registry().Lookup(probe)

	plan := sim.Update(1.0 / 60)

	assert.True(t, plan.Idle())
	assert.Zero(t, sim.Time())
	after, _ := sim.Registry().Lookup(probe)
	assert.Equal(t, before.Position, after.Position)
}

func TestUpdate_AdvancesClockBySpeedTimesFrame(t *testing.T) {
	sim := New(testConfig(t))
	addSunProbe(t, sim, au)
	sim.SetSpeed(100)

	for i := 0; i < 60; i++ {
		plan := sim.Update(1.0 / 60)
		require.Equal(t, 2, plan.Substeps)
	}
	assert.InDelta(t, 100, sim.Time(), 1e-9)
	assert.Equal(t, int64(60), sim.cfg.Status.Ints.Get(status.KeyFrames).Load())
	assert.Equal(t, 100.0, sim.cfg.Status.Floats.Get(status.KeySimSpeed).Get())

	peak := sim.cfg.Status.Floats.Get(status.KeyRoundMicrosMax).Get()
	assert.GreaterOrEqual(t, peak, sim.cfg.Status.Floats.Get(status.KeyRoundMicros).Get())
	sim.SetSpeed(0)
	sim.Update(1.0 / 60)
	assert.Equal(t, peak, sim.cfg.Status.Floats.Get(status.KeyRoundMicrosMax).Get(), "idle frames keep the peak")
}

func TestUpdate_ClampedFramesAreCounted(t *testing.T) {
	sim := New(testConfig(t))
	addSunProbe(t, sim, au)
	sim.SetSpeed(10)

	plan := sim.Update(0.5)
	assert.True(t, plan.Clamped)
	assert.InDelta(t, 10*constant.MaxFrameDelta, sim.Time(), 1e-9)
	assert.Equal(t, int64(1), sim.cfg.Status.Ints.Get(status.KeyClampedFrames).Load())
}

func TestUpdate_ProbeReturnsAfterOnePeriod(t *testing.T) {
	cfg := testConfig(t)
	cfg.Timestep = 500
	sim := New(cfg)
	_, probe := addSunProbe(t, sim, au)

	period := physics.OrbitalPeriod(au, physics.Meters.Mu(sunMass))
	speed := sim.SetSpeed(constant.MaxSpeed)

	for remaining := period; remaining > 0; {
		fd := math.Min(constant.MaxFrameDelta, remaining/speed)
		plan := sim.Update(fd)
		remaining -= plan.Simulated()
		if plan.Idle() {
			break
		}
	}

	assert.InDelta(t, period, sim.Time(), 1e-3)
	got, _ := sim.Registry().Lookup(probe)
	assert.InDelta(t, au, got.Position.X, au*1e-6)
	assert.InDelta(t, 0, got.Position.Y, au*1e-6)
	assert.InDelta(t, 0, got.Position.Z, au*1e-6)
}

func TestPreview_ProbeReturnsAfterOnePeriod(t *testing.T) {
	cfg := testConfig(t)
	cfg.Timestep = 1000
	sim := New(cfg)
	_, probe := addSunProbe(t, sim, au)

	period := physics.OrbitalPeriod(au, physics.Meters.Mu(sunMass))
	bodies, err := sim.Preview(period)
	require.NoError(t, err)
	require.Len(t, bodies, 2)

	got := bodies[1]
	require.Equal(t, probe, got.ID)
	assert.InDelta(t, au, got.Position.X, au*1e-6)
	assert.InDelta(t, 0, got.Position.Y, au*1e-6)

	live, _ := sim.Registry().Lookup(probe)
	assert.Equal(t, vmath.Vec3{X: au}, live.Position, "preview leaves live state untouched")
	assert.Zero(t, sim.Time())

	half, err := sim.Preview(-period / 2)
	require.NoError(t, err)
	assert.InDelta(t, -au, half[1].Position.X, au*1e-6, "rewind half an orbit")

	_, err = sim.Preview(math.NaN())
	assert.Error(t, err)
}

func TestAnalyticPropagation(t *testing.T) {
	cfg := testConfig(t)
	cfg.Timestep = 3600
	sim := New(cfg)
	sun, _ := addSunProbe(t, sim, 2*au)
	earth, moon := addEarthMoon(t, sim, sun)

	e, _ := sim.Registry().Lookup(earth)
	require.True(t, e.HasElements, "elements derived on add")
	assert.InDelta(t, au, e.Elements.SemiMajorAxis, au*1e-9)
	assert.InDelta(t, 0, e.Elements.Eccentricity, 1e-9)

	sim.SetSpeed(1000)
	sim.Update(1.0 / 60)

	e, _ = sim.Registry().Lookup(earth)
	m, _ := sim.Registry().Lookup(moon)
	s, _ := sim.Registry().Lookup(sun)
	assert.Equal(t, component.Analytic, e.Propagation)
	assert.Equal(t, component.Analytic, m.Propagation)
	assert.Equal(t, component.Numeric, s.Propagation)

	// Moon stays on its circle around the moving Earth
	assert.InDelta(t, 3.844e8, vmath.V3Dist(m.Position, e.Position), 1)

	// One Earth year later Earth is back where it started relative to the Sun
	year := physics.OrbitalPeriod(au, physics.Meters.Mu(sunMass))
	bodies, err := sim.Preview(sim.Time() + year)
	require.NoError(t, err)
	byID := make(map[component.BodyID]component.Body, len(bodies))
	for _, b := range bodies {
		byID[b.ID] = b
	}
	before := vmath.V3Sub(e.Position, s.Position)
	after := vmath.V3Sub(byID[earth].Position, byID[sun].Position)
	assert.InDelta(t, 0, vmath.V3Dist(before, after), au*1e-6)
}

func TestRemovedParentFallsBackToNumeric(t *testing.T) {
	sim := New(testConfig(t))
	sun, _ := addSunProbe(t, sim, 2*au)
	earth, moon := addEarthMoon(t, sim, sun)

	require.True(t, sim.RemoveBody(earth))
	sim.SetSpeed(10)
	sim.Update(1.0 / 60)

	m, ok := sim.Registry().Lookup(moon)
	require.True(t, ok)
	assert.Equal(t, component.Numeric, m.Propagation)
	assert.Equal(t, sun, m.Parent, "numeric step re-derives the dominant heavier body")

	_, ok = sim.Registry().Parent(moon)
	assert.True(t, ok)
}

func TestCommands(t *testing.T) {
	sim := New(testConfig(t))
	_, probe := addSunProbe(t, sim, au)

	sim.Push(event.Command{Type: event.SetSpeed, Speed: 1e12})
	sim.Update(0)
	assert.Equal(t, constant.MaxSpeed, sim.Speed())

	sim.Push(event.Command{Type: event.SetSpeed, Speed: 4})
	sim.Push(event.Command{Type: event.SpeedUp})
	sim.Push(event.Command{Type: event.SpeedUp})
	sim.Push(event.Command{Type: event.SpeedDown})
	sim.Update(0)
	assert.Equal(t, 10.0, sim.Speed())

	reply := make(chan error, 1)
	sim.Push(event.Command{Type: event.SetUnits, Units: "parsecs", Reply: reply})
	sim.Update(0)
	assert.ErrorIs(t, <-reply, ErrUnknownUnits)

	sim.Push(event.Command{Type: event.SetUnits, Units: "km", Reply: reply})
	sim.Update(0)
	require.NoError(t, <-reply)
	assert.Equal(t, physics.Kilometers, sim.Units())

	p, _ := sim.Registry().Lookup(probe)
	assert.InDelta(t, au/1000, p.Position.X, 1e-3)

	sim.Push(event.Command{Type: event.Save, Path: "cmd.sav", Reply: reply})
	sim.Update(0)
	require.NoError(t, <-reply)
	assert.FileExists(t, sim.SavePath("cmd.sav"))

	assert.Equal(t, int64(8), sim.cfg.Status.Ints.Get(status.KeyCommands).Load())
}

func TestUnitsSwitchPreservesPhysics(t *testing.T) {
	meters := New(testConfig(t))
	addSunProbe(t, meters, au)
	kilometers := New(testConfig(t))
	_, probe := addSunProbe(t, kilometers, au)
	kilometers.SetUnits(physics.Kilometers)
	kilometers.SetUnits(physics.Kilometers)

	for _, sim := range []*Simulation{meters, kilometers} {
		sim.SetSpeed(5000)
		for i := 0; i < 30; i++ {
			sim.Update(1.0 / 60)
		}
	}

	m, _ := meters.Registry().LookupName(component.Orbital, "Probe")
	k, _ := kilometers.Registry().Lookup(probe)
	assert.InDelta(t, m.Position.X/1000, k.Position.X, math.Abs(k.Position.X)*1e-9)
	assert.InDelta(t, m.Position.Y/1000, k.Position.Y, math.Abs(k.Position.Y)*1e-9)

	kilometers.SetUnits(physics.Meters)
	back, _ := kilometers.Registry().Lookup(probe)
	assert.InDelta(t, m.Position.X, back.Position.X, math.Abs(m.Position.X)*1e-9)
}

func TestSaveLoad_Idempotent(t *testing.T) {
	sim := New(testConfig(t))
	sun, _ := addSunProbe(t, sim, 2*au)
	addEarthMoon(t, sim, sun)
	sim.SetSpeed(3600)
	for i := 0; i < 10; i++ {
		sim.Update(1.0 / 60)
	}

	wantC := sim.BodiesByName(component.Celestial)
	wantO := sim.BodiesByName(component.Orbital)
	wantTime := math.Floor(sim.Time())

	require.NoError(t, sim.Save("state.sav"))
	sim.Registry().Clear()
	require.Zero(t, sim.Registry().Len(component.Celestial))

	require.NoError(t, sim.Load("state.sav"))
	assert.Equal(t, wantTime, sim.Time())

	check := func(want, got map[string]component.Body) {
		require.Len(t, got, len(want))
		for name, w := range want {
			g, ok := got[name]
			require.True(t, ok, name)
			tol := math.Max(vmath.V3Mag(w.Position)*1e-12, 1e-6)
			assert.InDelta(t, 0, vmath.V3Dist(w.Position, g.Position), tol, "%s position", name)
			assert.InDelta(t, 0, vmath.V3Dist(w.Velocity, g.Velocity), 1e-6, "%s velocity", name)
			assert.Equal(t, w.Mass, g.Mass, name)
			assert.Equal(t, w.Radius, g.Radius, name)
		}
	}
	check(wantC, sim.BodiesByName(component.Celestial))
	check(wantO, sim.BodiesByName(component.Orbital))

	earth, _ := sim.Registry().LookupName(component.Celestial, "Earth")
	moonParent, ok := sim.Registry().Parent(sim.BodiesByName(component.Celestial)["Moon"].ID)
	require.True(t, ok)
	assert.Equal(t, earth.ID, moonParent.ID)
	earthParent, ok := sim.Registry().Parent(earth.ID)
	require.True(t, ok)
	assert.Equal(t, "Sun", earthParent.Name)
	probeParent, ok := sim.Registry().Parent(sim.BodiesByName(component.Orbital)["Probe"].ID)
	require.True(t, ok)
	assert.Equal(t, "Sun", probeParent.Name)
}

func TestSaveLoad_HyphenatedNamesAndDistantDate(t *testing.T) {
	sim := New(testConfig(t))

	_, err := sim.AddBody(component.Body{Name: "Craft-", Kind: component.Orbital, Mass: 1})
	require.ErrorIs(t, err, registry.ErrInvalidName)

	sun, err := sim.AddBody(component.Body{Name: "Sun-A", Kind: component.Celestial, Mass: sunMass, Radius: 6.957e8})
	require.NoError(t, err)
	_, err = sim.AddBody(component.Body{
		Name: "Earth-2", Kind: component.Celestial, Mass: earthMass, Radius: 6.371e6, Parent: sun,
		Position: vmath.Vec3{X: au}, Velocity: vmath.Vec3{Y: math.Sqrt(physics.Meters.Mu(sunMass) / au)},
	})
	require.NoError(t, err)

	const threeCenturies = 300 * 365.25 * 86400
	sim.clock.SetTime(threeCenturies)

	require.NoError(t, sim.Save("far.sav"))
	sim.Registry().Clear()
	require.NoError(t, sim.Load("far.sav"))

	assert.Equal(t, float64(threeCenturies), sim.Time())
	bodies := sim.BodiesByName(component.Celestial)
	require.Contains(t, bodies, "Earth-2")
	parent, ok := sim.Registry().Parent(bodies["Earth-2"].ID)
	require.True(t, ok)
	assert.Equal(t, "Sun-A", parent.Name)
}

func TestLoad_FailureLeavesStateIntact(t *testing.T) {
	cfg := testConfig(t)
	sim := New(cfg)
	addSunProbe(t, sim, au)
	sim.SetSpeed(10)
	sim.Update(1.0 / 60)
	before := sim.Bodies(component.Orbital)
	beforeTime := sim.Time()

	err := sim.Load("absent.sav")
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	bad := filepath.Join(cfg.SaveDir, "bad.sav")
	require.NoError(t, os.WriteFile(bad, []byte("--Date:00:00:00:01:01:2020--CelestialBodies--Name:X--Parent:Null--Position:1,2,3,4--Velocity:0,0,0--Mass:1---"), 0644))
	err = sim.Load("bad.sav")
	assert.ErrorIs(t, err, persistence.ErrVectorRange)

	assert.Equal(t, before, sim.Bodies(component.Orbital))
	assert.Equal(t, beforeTime, sim.Time())
}

func TestLoad_DerivesMissingElements(t *testing.T) {
	cfg := testConfig(t)
	v := math.Sqrt(physics.Meters.Mu(sunMass) / au)
	data := "--Date:00:00:00:02:01:2020\n--CelestialBodies\n" +
		"--Name:Earth--Parent:Sun--Position:" + formatTriple(au, 0, 0) + "--Velocity:" + formatTriple(0, v, 0) + "--Mass:5.972e24--Radius:6371000---\n" +
		"--Name:Sun--Parent:Null--Position:0,0,0--Velocity:0,0,0--Mass:1.98847e30--Radius:695700000---\n" +
		"--OrbitalBodies\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.SaveDir, "forward.sav"), []byte(data), 0644))

	sim := New(cfg)
	require.NoError(t, sim.Load("forward.sav"))
	assert.Equal(t, 86400.0, sim.Time())

	earth, ok := sim.Registry().LookupName(component.Celestial, "Earth")
	require.True(t, ok)
	require.True(t, earth.HasElements)
	assert.InDelta(t, au, earth.Elements.SemiMajorAxis, au*1e-9)
}

func formatTriple(x, y, z float64) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return f(x) + "," + f(y) + "," + f(z)
}

func TestTrajectory(t *testing.T) {
	cfg := testConfig(t)
	cfg.Timestep = 3600
	sim := New(cfg)
	_, probe := addSunProbe(t, sim, au)

	points, err := sim.Trajectory(probe, physics.OrbitalPeriod(au, physics.Meters.Mu(sunMass)), 12)
	require.NoError(t, err)
	require.Len(t, points, 12)
	for _, p := range points {
		assert.InDelta(t, au, vmath.V3Mag(p), au*1e-6)
	}
	assert.InDelta(t, au, points[11].X, au*1e-5)

	_, err = sim.Trajectory(component.BodyID(999), 10, 1)
	assert.ErrorIs(t, err, ErrUnknownBody)
	_, err = sim.Trajectory(probe, 10, 0)
	assert.Error(t, err)
}

func TestParallelMatchesSequential(t *testing.T) {
	build := func(workers int) *Simulation {
		cfg := testConfig(t)
		cfg.Workers = workers
		cfg.ParallelThreshold = 0
		sim := New(cfg)
		_, err := sim.AddBody(component.Body{Name: "Earth", Kind: component.Celestial, Mass: earthMass})
		require.NoError(t, err)
		for i, b := range probeSwarm(41, physics.Meters.Mu(earthMass)) {
			b.Name = "probe-" + string(rune('A'+i%26)) + string(rune('a'+i/26))
			_, err := sim.AddBody(b)
			require.NoError(t, err)
		}
		sim.SetSpeed(300)
		return sim
	}

	parallel := build(4)
	parallel.Start()
	defer parallel.Stop()
	sequential := build(1)

	for i := 0; i < 20; i++ {
		parallel.Update(1.0 / 60)
		sequential.Update(1.0 / 60)
	}

	assert.Equal(t, sequential.Bodies(component.Orbital), parallel.Bodies(component.Orbital))
}

func TestRunner_DrivesFrames(t *testing.T) {
	sim := New(testConfig(t))
	addSunProbe(t, sim, au)
	sim.SetSpeed(10)

	src := NewMockTime(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	r := NewRunner(sim, time.Millisecond, src)
	assert.Equal(t, ServiceName, r.Name())
	require.NoError(t, r.Start())
	defer r.Stop()

	src.Advance(50 * time.Millisecond)

	require.Eventually(t, func() bool { return sim.Time() > 0 }, 2*time.Second, time.Millisecond)
	assert.InDelta(t, 0.5, sim.Time(), 1e-9)

	select {
	case <-r.Frames():
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
	}

	assert.True(t, r.TogglePause())
	assert.True(t, r.IsPaused())
	src.Advance(time.Second)
	assert.False(t, r.TogglePause())

	require.NoError(t, r.Stop())
	require.NoError(t, r.Stop())
	assert.InDelta(t, 0.5, sim.Time(), 1e-9, "paused time is never simulated")
}
