// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/imu_driver/internal/config"
	"github.com/relabs-tech/imu_driver/internal/mpu9250"
	"github.com/relabs-tech/imu_driver/internal/sensors"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// DebugCommand is one WebSocket request. Addresses and values are hex
// strings such as "0x1B".
type DebugCommand struct {
	Action string `json:"action"` // get_map, read, read_all, write, init, set_range, sample, export_config
	Addr   string `json:"addr,omitempty"`
	Value  string `json:"value,omitempty"`
	Gyro   int    `json:"gyro,omitempty"`  // °/s, for set_range
	Accel  int    `json:"accel,omitempty"` // g, for set_range
}

// DebugResponse is every message the server sends.
type DebugResponse struct {
	Type        string                 `json:"type"` // register_data, register_map, status, sample, export_config, error
	Device      string                 `json:"device,omitempty"`
	Address     string                 `json:"addr,omitempty"`
	Value       string                 `json:"value,omitempty"`
	Registers   map[string]string      `json:"registers,omitempty"`
	Timestamp   string                 `json:"timestamp,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Status      *sensors.Status        `json:"status,omitempty"`
	Sample      interface{}            `json:"sample,omitempty"`
	RegisterMap []mpu9250.RegisterInfo `json:"register_map,omitempty"`
	Config      string                 `json:"config,omitempty"`
	Filename    string                 `json:"filename,omitempty"`
}

// RegisterConfigFile is the saved form of a full register dump.
type RegisterConfigFile struct {
	Version   int               `json:"version"`
	IMU       string            `json:"imu"`
	Timestamp string            `json:"timestamp"`
	Registers map[string]string `json:"registers"` // hex address -> hex value
}

const registerConfigVersion = 1

// DebugServer exposes register-level access to one IMU over WebSocket and
// a JSON endpoint for the latest decoded sample.
type DebugServer struct {
	mgr     *sensors.Manager
	allowed config.RegisterRanges
	log     *logrus.Entry
	now     func() time.Time
}

// NewDebugServer serves mgr. Writes are refused outside allowed.
func NewDebugServer(mgr *sensors.Manager, allowed config.RegisterRanges) *DebugServer {
	return &DebugServer{
		mgr:     mgr,
		allowed: allowed,
		log:     logrus.WithField("imu", mgr.Name()),
		now:     time.Now,
	}
}

// Handler routes /ws and /api/imu.
func (d *DebugServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", d.HandleWS)
	mux.HandleFunc("/api/imu", d.HandleIMUData)
	mux.HandleFunc("/api/registers", d.HandleRegisterMap)
	return mux
}

// HandleWS upgrades the connection, sends the register map and then serves
// commands until the client goes away.
func (d *DebugServer) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.log.WithError(err).Warn("register_debug: websocket upgrade failed")
		return
	}
	defer conn.Close()

	if err := conn.WriteJSON(d.registerMap()); err != nil {
		d.log.WithError(err).Warn("register_debug: sending register map failed")
		return
	}

	for {
		var cmd DebugCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				d.log.WithError(err).Warn("register_debug: websocket error")
			}
			return
		}
		if err := conn.WriteJSON(d.Dispatch(cmd)); err != nil {
			d.log.WithError(err).Warn("register_debug: write failed")
			return
		}
	}
}

// Dispatch executes one command and returns the reply.
func (d *DebugServer) Dispatch(cmd DebugCommand) DebugResponse {
	switch cmd.Action {
	case "get_map":
		return d.registerMap()
	case "read":
		return d.handleRead(cmd)
	case "read_all":
		return d.handleReadAll()
	case "write":
		return d.handleWrite(cmd)
	case "init":
		return d.handleInit()
	case "set_range":
		return d.handleSetRange(cmd)
	case "sample":
		return d.handleSample()
	case "export_config":
		return d.handleExportConfig()
	case "":
		return errorResponse("missing or invalid action field")
	default:
		return errorResponse(fmt.Sprintf("unknown action: %s", cmd.Action))
	}
}

func (d *DebugServer) handleRead(cmd DebugCommand) DebugResponse {
	reg, err := parseHexByte(cmd.Addr)
	if err != nil {
		return errorResponse(fmt.Sprintf("invalid address format: %q", cmd.Addr))
	}
	v, err := d.mgr.ReadRegister(reg)
	if err != nil {
		return errorResponse(fmt.Sprintf("read error: %v", err))
	}
	return DebugResponse{
		Type:      "register_data",
		Device:    "mpu9250",
		Address:   hexByte(reg),
		Value:     hexByte(v),
		Timestamp: d.timestamp(),
	}
}

func (d *DebugServer) readAll() (map[string]string, error) {
	regs, err := d.mgr.ReadAllRegisters()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(regs))
	for a, v := range regs {
		out[hexByte(a)] = hexByte(v)
	}
	return out, nil
}

func (d *DebugServer) handleReadAll() DebugResponse {
	regs, err := d.readAll()
	if err != nil {
		return errorResponse(fmt.Sprintf("read all error: %v", err))
	}
	return DebugResponse{
		Type:      "register_data",
		Device:    "mpu9250",
		Registers: regs,
		Timestamp: d.timestamp(),
	}
}

func (d *DebugServer) handleExportConfig() DebugResponse {
	regs, err := d.readAll()
	if err != nil {
		return errorResponse(fmt.Sprintf("export error: %v", err))
	}
	now := d.now()
	file := RegisterConfigFile{
		Version:   registerConfigVersion,
		IMU:       d.mgr.Name(),
		Timestamp: now.Format(time.RFC3339),
		Registers: regs,
	}
	b, err := json.Marshal(file)
	if err != nil {
		return errorResponse(fmt.Sprintf("export error: %v", err))
	}
	return DebugResponse{
		Type:      "export_config",
		Device:    "mpu9250",
		Message:   "config exported",
		Config:    string(b),
		Filename:  fmt.Sprintf("mpu9250_%s_registers.json", now.Format("20060102_150405")),
		Timestamp: file.Timestamp,
	}
}

func (d *DebugServer) handleWrite(cmd DebugCommand) DebugResponse {
	reg, err := parseHexByte(cmd.Addr)
	if err != nil {
		return errorResponse(fmt.Sprintf("invalid address format: %q", cmd.Addr))
	}
	v, err := parseHexByte(cmd.Value)
	if err != nil {
		return errorResponse(fmt.Sprintf("invalid value format: %q", cmd.Value))
	}
	if !d.allowed.Allows(reg) {
		return errorResponse(fmt.Sprintf("register %s not in allowed write ranges", hexByte(reg)))
	}
	if err := d.mgr.WriteRegister(reg, v); err != nil {
		return errorResponse(fmt.Sprintf("write error: %v", err))
	}
	d.log.WithFields(logrus.Fields{"addr": hexByte(reg), "value": hexByte(v)}).Info("register_debug: register written")
	return DebugResponse{
		Type:      "register_data",
		Device:    "mpu9250",
		Address:   hexByte(reg),
		Value:     hexByte(v),
		Timestamp: d.timestamp(),
		Message:   "write successful",
	}
}

func (d *DebugServer) handleInit() DebugResponse {
	if err := d.mgr.Reinitialize(); err != nil {
		return errorResponse(fmt.Sprintf("reinit error: %v", err))
	}
	return d.status("IMU reinitialized successfully")
}

func (d *DebugServer) handleSetRange(cmd DebugCommand) DebugResponse {
	if cmd.Gyro == 0 && cmd.Accel == 0 {
		return errorResponse("set_range needs gyro and/or accel")
	}
	if err := d.mgr.SetRanges(cmd.Gyro, cmd.Accel); err != nil {
		return errorResponse(fmt.Sprintf("set range error: %v", err))
	}
	return d.status("full scale updated")
}

func (d *DebugServer) handleSample() DebugResponse {
	s, err := d.mgr.Next()
	if err != nil {
		return errorResponse(fmt.Sprintf("sample error: %v", err))
	}
	return DebugResponse{Type: "sample", Sample: s, Timestamp: d.timestamp()}
}

func (d *DebugServer) status(msg string) DebugResponse {
	st, err := d.mgr.Probe()
	if err != nil {
		return errorResponse(fmt.Sprintf("status error: %v", err))
	}
	return DebugResponse{Type: "status", Device: "mpu9250", Status: &st, Message: msg}
}

func (d *DebugServer) registerMap() DebugResponse {
	return DebugResponse{Type: "register_map", Device: "mpu9250", RegisterMap: mpu9250.RegisterMap()}
}

func (d *DebugServer) timestamp() string {
	return d.now().Format(time.RFC3339)
}

func errorResponse(msg string) DebugResponse {
	return DebugResponse{Type: "error", Message: msg}
}

// HandleIMUData serves one freshly read sample as JSON.
func (d *DebugServer) HandleIMUData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	s, err := d.mgr.Next()
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		if err := json.NewEncoder(w).Encode(map[string]string{"error": err.Error()}); err != nil {
			d.log.WithError(err).Warn("register_debug: json encode failed")
		}
		return
	}
	if err := json.NewEncoder(w).Encode(s); err != nil {
		d.log.WithError(err).Warn("register_debug: json encode failed")
	}
}

// HandleRegisterMap serves the register metadata.
func (d *DebugServer) HandleRegisterMap(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(mpu9250.RegisterMap()); err != nil {
		d.log.WithError(err).Warn("register_debug: json encode failed")
	}
}

// ListenAndServe runs the server until ctx is done.
func (d *DebugServer) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: d.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	d.log.WithField("addr", addr).Info("register debug server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "register_debug: listen")
	}
	return nil
}

// parseHexByte accepts "0x1B", "1B" or "0X1b".
func parseHexByte(s string) (byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return 0, errors.New("empty")
	}
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}

func hexByte(b byte) string {
	return fmt.Sprintf("0x%02X", b)
}
