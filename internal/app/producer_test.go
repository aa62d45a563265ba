package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/relabs-tech/imu_driver/internal/imu"
	"github.com/relabs-tech/imu_driver/internal/mpu9250"
	"github.com/relabs-tech/imu_driver/internal/regbus"
	"github.com/relabs-tech/imu_driver/internal/sensors"
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs map[string][][]byte
	err  error
}

func (f *fakePublisher) Publish(topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.msgs == nil {
		f.msgs = make(map[string][][]byte)
	}
	f.msgs[topic] = append(f.msgs[topic], payload)
	return f.err
}

func (f *fakePublisher) count(topic string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs[topic])
}

type scriptedSource struct {
	samples []imu.Sample
	errs    []error
	i       int
}

func (s *scriptedSource) Next() (imu.Sample, error) {
	i := s.i
	s.i++
	if i < len(s.errs) && s.errs[i] != nil {
		return imu.Sample{}, s.errs[i]
	}
	return s.samples[i%len(s.samples)], nil
}

func quietLogger() (*logrus.Entry, *test.Hook) {
	l, hook := test.NewNullLogger()
	return logrus.NewEntry(l), hook
}

func TestProducerTick(t *testing.T) {
	sample := imu.Sample{Source: "sim", Az: 1000, Temp: 2500, Gx: 1000}
	pub := &fakePublisher{}
	var serialOut bytes.Buffer
	screen := &fakeScreen{}
	log, _ := quietLogger()

	p := &Producer{
		Source:    &scriptedSource{samples: []imu.Sample{sample}},
		Publisher: pub,
		Topic:     "inertial/imu",
		Serial:    &serialOut,
		Display:   NewDisplay(screen),
		Log:       log,
	}
	got, err := p.Tick()
	if err != nil {
		t.Fatal(err)
	}
	if got != sample {
		t.Errorf("Tick = %+v", got)
	}

	var published imu.Sample
	if err := json.Unmarshal(pub.msgs["inertial/imu"][0], &published); err != nil {
		t.Fatal(err)
	}
	if published.Az != 1000 || published.Source != "sim" {
		t.Errorf("published %+v", published)
	}
	if serialOut.String() != EncodeSentence(sample) {
		t.Errorf("serial = %q", serialOut.String())
	}
	if len(screen.frames) != 1 {
		t.Errorf("display frames = %d", len(screen.frames))
	}
}

func TestProducerTickReadError(t *testing.T) {
	pub := &fakePublisher{}
	var serialOut bytes.Buffer
	screen := &fakeScreen{}
	log, _ := quietLogger()
	p := &Producer{
		Source:    &scriptedSource{samples: []imu.Sample{{}}, errs: []error{errors.New("nak")}},
		Publisher: pub,
		Topic:     "t",
		Serial:    &serialOut,
		Display:   NewDisplay(screen),
		Log:       log,
	}
	if _, err := p.Tick(); err == nil {
		t.Fatal("read error swallowed")
	}
	if pub.count("t") != 0 || serialOut.Len() != 0 {
		t.Error("sinks received data for a failed read")
	}
	if len(screen.frames) != 1 {
		t.Error("display not switched to waiting page")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestProducerSinkErrorsAreLogged(t *testing.T) {
	log, hook := quietLogger()
	p := &Producer{
		Source:    &scriptedSource{samples: []imu.Sample{{Az: 1000}}},
		Publisher: &fakePublisher{err: errors.New("broker gone")},
		Topic:     "t",
		Serial:    failingWriter{},
		Log:       log,
	}
	if _, err := p.Tick(); err != nil {
		t.Fatalf("sink failure returned from Tick: %v", err)
	}
	if len(hook.AllEntries()) != 2 {
		t.Errorf("logged %d entries, want 2", len(hook.AllEntries()))
	}
	for _, e := range hook.AllEntries() {
		if e.Level != logrus.WarnLevel {
			t.Errorf("level %v for %q", e.Level, e.Message)
		}
	}
}

func TestProducerRunSkipsFailedTicks(t *testing.T) {
	sim := regbus.NewSim(mpu9250.AddrAD0Low)
	mgr := sensors.NewManager(sim, mpu9250.DefaultOpts)
	if err := mgr.Init(); err != nil {
		t.Fatal(err)
	}
	sim.EnableWaveform()

	pub := &fakePublisher{}
	log, _ := quietLogger()
	p := &Producer{Source: mgr, Publisher: pub, Topic: "inertial/imu", Log: log}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, time.Millisecond) }()

	deadline := time.Now().Add(2 * time.Second)
	for pub.count("inertial/imu") < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	sim.FailOn(mpu9250.RegAccelXOutH, errors.New("nak"))
	before := pub.count("inertial/imu")
	time.Sleep(20 * time.Millisecond)
	if after := pub.count("inertial/imu"); after > before+1 {
		t.Errorf("published %d samples while reads failed", after-before)
	}
	sim.FailOn(mpu9250.RegAccelXOutH, nil)
	for pub.count("inertial/imu") <= before+1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if pub.count("inertial/imu") <= before+1 {
		t.Error("producer did not recover after reads succeeded again")
	}
}
