package app

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/imu_driver/internal/config"
	"github.com/relabs-tech/imu_driver/internal/imu"
)

// FormatSample is the monitor's one-line rendering.
func FormatSample(s imu.Sample) string {
	return fmt.Sprintf("[IMU] %s  |a|=%7.1f mg", s, s.AccelNorm())
}

// HandleSampleMessage decodes one MQTT payload and prints it to out.
func HandleSampleMessage(out io.Writer, payload []byte) (imu.Sample, error) {
	var s imu.Sample
	if err := json.Unmarshal(payload, &s); err != nil {
		return imu.Sample{}, errors.Wrap(err, "monitor: unmarshal sample")
	}
	_, err := fmt.Fprintln(out, FormatSample(s))
	return s, err
}

// LatestSample keeps the most recent sample seen by the monitor and serves it
// as JSON.
type LatestSample struct {
	mu   sync.RWMutex
	s    imu.Sample
	have bool
}

func (l *LatestSample) Update(s imu.Sample) {
	l.mu.Lock()
	l.s = s
	l.have = true
	l.mu.Unlock()
}

func (l *LatestSample) Get() (imu.Sample, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.s, l.have
}

func (l *LatestSample) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s, ok := l.Get()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s); err != nil {
		logrus.WithError(err).Warn("monitor: json encode failed")
	}
}

// RunMonitor subscribes to the sample topic and prints every message until
// ctx is done. A non-empty listen address also serves the latest sample at
// /api/imu/latest.
func RunMonitor(ctx context.Context, cfg *config.Config, out io.Writer, listen string) error {
	log := logrus.WithField("topic", cfg.TopicIMU)

	client, err := ConnectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDMonitor)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.WithField("broker", cfg.MQTTBroker).Info("monitor: connected to MQTT")

	latest := &LatestSample{}
	token := client.Subscribe(cfg.TopicIMU, 0, func(_ mqtt.Client, msg mqtt.Message) {
		s, err := HandleSampleMessage(out, msg.Payload())
		if err != nil {
			log.WithError(err).Warn("monitor: bad message")
			return
		}
		latest.Update(s)
	})
	token.Wait()
	if token.Error() != nil {
		return errors.Wrapf(token.Error(), "monitor: subscribe %s", cfg.TopicIMU)
	}
	log.Info("monitor: subscribed")

	if listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/api/imu/latest", latest)
		srv := &http.Server{Addr: listen, Handler: mux}
		go func() {
			log.WithField("addr", listen).Info("monitor: serving latest sample")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("monitor: http server failed")
			}
		}()
		defer srv.Close()
	}

	<-ctx.Done()
	log.Info("monitor: shutting down")
	return nil
}

// MonitorSentences prints every valid $PIMU line read from r until EOF or
// ctx is done. Lines that fail to decode are logged and skipped.
func MonitorSentences(ctx context.Context, r io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := sc.Text()
		if line == "" {
			continue
		}
		s, err := DecodeSentence(line)
		if err != nil {
			logrus.WithError(err).Debug("monitor: skipping line")
			continue
		}
		if _, err := fmt.Fprintln(out, FormatSample(s)); err != nil {
			return err
		}
	}
	return sc.Err()
}

// RunSerialMonitor reads sentences from the configured serial port.
func RunSerialMonitor(ctx context.Context, cfg *config.Config, out io.Writer) error {
	if cfg.SerialPort == "" {
		return errors.New("monitor: SERIAL_PORT is not set")
	}
	port, err := OpenSerial(cfg.SerialPort, cfg.SerialBaudRate)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		port.Close()
	}()
	logrus.WithField("port", cfg.SerialPort).Info("monitor: reading $PIMU sentences")
	err = MonitorSentences(ctx, port, out)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
