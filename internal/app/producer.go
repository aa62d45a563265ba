// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/imu_driver/internal/config"
	"github.com/relabs-tech/imu_driver/internal/imu"
	"github.com/relabs-tech/imu_driver/internal/sensors"
)

// Producer samples a source on every tick and fans each sample out to MQTT,
// an optional serial line and an optional OLED.
type Producer struct {
	Source    imu.Source
	Publisher Publisher
	Topic     string
	Serial    io.Writer // nil disables sentences
	Display   *Display  // nil disables the OLED
	Log       *logrus.Entry
}

// Tick reads one sample and delivers it. A read error is returned before
// anything is published. Sink errors are logged and do not stop the others.
func (p *Producer) Tick() (imu.Sample, error) {
	s, err := p.Source.Next()
	if err != nil {
		if p.Display != nil {
			if derr := p.Display.Waiting("IMU"); derr != nil {
				p.Log.WithError(derr).Warn("display update failed")
			}
		}
		return imu.Sample{}, err
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return s, errors.Wrap(err, "producer: marshal sample")
	}
	if err := p.Publisher.Publish(p.Topic, payload); err != nil {
		p.Log.WithError(err).WithField("topic", p.Topic).Warn("publish failed")
	}

	if p.Serial != nil {
		if _, err := io.WriteString(p.Serial, EncodeSentence(s)); err != nil {
			p.Log.WithError(err).Warn("serial write failed")
		}
	}

	if p.Display != nil {
		if err := p.Display.Show(s); err != nil {
			p.Log.WithError(err).Warn("display update failed")
		}
	}
	return s, nil
}

// Run ticks at interval until ctx is done. Read errors skip the tick.
func (p *Producer) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s, err := p.Tick()
			if err != nil {
				p.Log.WithError(err).Warn("sample read failed, skipping tick")
				continue
			}
			p.Log.WithFields(logrus.Fields{
				"ax": s.Ax, "ay": s.Ay, "az": s.Az,
				"temp": s.Temp,
				"gx":   s.Gx, "gy": s.Gy, "gz": s.Gz,
			}).Debug("tick")
		}
	}
}

// RunProducer initializes the device and sinks from cfg and runs the
// producer loop until ctx is done.
func RunProducer(ctx context.Context, cfg *config.Config, mgr *sensors.Manager) error {
	log := logrus.WithFields(logrus.Fields{"imu": mgr.Name(), "topic": cfg.TopicIMU})
	log.Info("starting IMU producer")

	if err := mgr.Init(); err != nil {
		return errors.Wrap(err, "producer: IMU init")
	}

	client, err := ConnectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDProducer)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.WithField("broker", cfg.MQTTBroker).Info("connected to MQTT")

	p := &Producer{
		Source:    mgr,
		Publisher: NewMQTTPublisher(client),
		Topic:     cfg.TopicIMU,
		Log:       log,
	}

	if cfg.SerialPort != "" {
		port, err := OpenSerial(cfg.SerialPort, cfg.SerialBaudRate)
		if err != nil {
			return err
		}
		defer port.Close()
		p.Serial = port
		log.WithField("port", cfg.SerialPort).Info("writing $PIMU sentences")
	}

	if cfg.DisplayEnabled {
		if bus, ok := mgr.I2C(); ok {
			d, err := OpenDisplay(bus)
			if err != nil {
				log.WithError(err).Warn("display unavailable")
			} else {
				defer d.Halt()
				if err := d.Splash("IMU producer", mgr.Name()); err != nil {
					log.WithError(err).Warn("display splash failed")
				}
				p.Display = d
			}
		} else {
			log.Warnf("display needs the periph backend, got %q", cfg.BusBackend)
		}
	}

	interval := time.Duration(cfg.IMUSampleInterval) * time.Millisecond
	log.WithField("interval", interval).Info("starting publish loop")
	return p.Run(ctx, interval)
}
