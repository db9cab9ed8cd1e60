package status

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicFloat(t *testing.T) {
	var f AtomicFloat
	assert.Zero(t, f.Get())

	f.Set(1.5)
	assert.Equal(t, 2.0, f.Add(0.5))
	assert.Equal(t, 2.0, f.Max(1))
	assert.Equal(t, 7.0, f.Max(7))

	var wg sync.WaitGroup
	var sum AtomicFloat
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				sum.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 8000.0, sum.Get())
}

func TestMetricMap_CachedPointerAndOrder(t *testing.T) {
	m := NewMetricMap[AtomicFloat]()
	a := m.Get("b.second")
	a.Set(2)
	assert.Same(t, a, m.Get("b.second"))
	m.Get("a.first")

	var keys []string
	m.Range(func(k string, _ *AtomicFloat) { keys = append(keys, k) })
	assert.Equal(t, []string{"a.first", "b.second"}, keys)
	assert.Equal(t, 2, m.Count())
}

func TestCollector_ExportsGauges(t *testing.T) {
	reg := NewRegistry()
	reg.Floats.Get(KeySimSpeed).Set(300)
	reg.Ints.Get(KeyFrames).Store(42)
	reg.Bools.Get(KeyRunning).Store(true)
	assert.Equal(t, 3, reg.TotalCount())

	c := NewCollector("vi_orbit", reg)
	assert.Equal(t, "vi_orbit_sim_speed", c.MetricName(KeySimSpeed))

	promReg := prometheus.NewRegistry()
	require.NoError(t, promReg.Register(c))

	families, err := promReg.Gather()
	require.NoError(t, err)

	got := make(map[string]float64)
	for _, mf := range families {
		require.Len(t, mf.GetMetric(), 1)
		got[mf.GetName()] = mf.GetMetric()[0].GetGauge().GetValue()
	}
	assert.Equal(t, map[string]float64{
		"vi_orbit_sim_speed":      300,
		"vi_orbit_engine_frames":  42,
		"vi_orbit_engine_running": 1,
	}, got)
}

func TestServer_ServesMetrics(t *testing.T) {
	reg := NewRegistry()
	reg.Floats.Get(KeySimTime).Set(86400)

	s := NewServer("127.0.0.1:0", reg)
	assert.Equal(t, ServiceName, s.Name())

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "vi_orbit_sim_time 86400")
}

func TestServer_StartStop(t *testing.T) {
	s := NewServer("127.0.0.1:0", NewRegistry())
	require.NoError(t, s.Start())
	require.NoError(t, s.Start(), "second start is a no-op")
	assert.NotEmpty(t, s.Addr())

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())
	assert.Empty(t, s.Addr())
}
