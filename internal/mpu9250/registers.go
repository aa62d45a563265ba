// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mpu9250

// I²C addresses.
const (
	AddrAD0Low  = 0x68
	AddrAD0High = 0x69
	// AddrMag is the AK8963 magnetometer, reachable directly once bypass mode
	// is enabled.
	AddrMag = 0x0C
)

// Known WHO_AM_I answers.
const (
	WhoAmIMPU9250 = 0x71
	WhoAmIMPU9255 = 0x73
)

// Registers used by the driver.
const (
	RegGyroConfig   = 0x1B
	RegAccelConfig  = 0x1C
	RegAccelConfig2 = 0x1D
	RegIntPinCfg    = 0x37
	RegIntStatus    = 0x3A
	RegAccelXOutH   = 0x3B // first byte of the 14-byte sample block
	RegPwrMgmt1     = 0x6B
	RegWhoAmI       = 0x75
)

const (
	fsMask  = 0x18 // GYRO_FS_SEL / ACCEL_FS_SEL, bits 4:3
	fsKeep  = ^byte(fsMask)
	fsShift = 3

	bypassBit     = 0x02 // INT_PIN_CFG BYPASS_EN
	dataReadyBit  = 0x01 // INT_STATUS RAW_DATA_RDY_INT
	gyroFchoiceB  = 0x03 // GYRO_CONFIG Fchoice_b, bits 1:0
	accelFchoiceB = 0x08 // ACCEL_CONFIG2 accel_fchoice_b
	clkAutoSelect = 0x01 // PWR_MGMT_1 CLKSEL=1

	burstLen = 14
)

// BitField describes a bit range inside a register.
type BitField struct {
	Bits        string `json:"bits"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Values      string `json:"values,omitempty"`
}

// RegisterInfo describes one device register.
type RegisterInfo struct {
	Address     byte       `json:"address"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Access      string     `json:"access"` // "R" or "RW"
	Default     byte       `json:"default"`
	BitFields   []BitField `json:"bit_fields,omitempty"`
}

// RegisterMap returns metadata for the registers this driver touches, in
// address order.
func RegisterMap() []RegisterInfo {
	regs := []RegisterInfo{
		{Address: RegGyroConfig, Name: "GYRO_CONFIG", Description: "Gyroscope configuration", Access: "RW",
			BitFields: []BitField{
				{Bits: "7:5", Name: "G_ST", Description: "X/Y/Z gyro self-test"},
				{Bits: "4:3", Name: "GYRO_FS_SEL", Description: "Gyro full scale", Values: "0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s"},
				{Bits: "1:0", Name: "Fchoice_b", Description: "Gyro DLPF bypass", Values: "0=DLPF enabled"},
			}},
		{Address: RegAccelConfig, Name: "ACCEL_CONFIG", Description: "Accelerometer configuration", Access: "RW",
			BitFields: []BitField{
				{Bits: "7:5", Name: "A_ST", Description: "X/Y/Z accel self-test"},
				{Bits: "4:3", Name: "ACCEL_FS_SEL", Description: "Accel full scale", Values: "0=±2g, 1=±4g, 2=±8g, 3=±16g"},
			}},
		{Address: RegAccelConfig2, Name: "ACCEL_CONFIG2", Description: "Accelerometer configuration 2", Access: "RW",
			BitFields: []BitField{
				{Bits: "3", Name: "accel_fchoice_b", Description: "Accel DLPF bypass", Values: "0=DLPF enabled, 1=bypass"},
				{Bits: "2:0", Name: "A_DLPFCFG", Description: "Accel DLPF config"},
			}},
		{Address: RegIntPinCfg, Name: "INT_PIN_CFG", Description: "INT pin / bypass enable", Access: "RW",
			BitFields: []BitField{
				{Bits: "5", Name: "LATCH_INT_EN", Description: "Latch INT pin", Values: "0=50us pulse, 1=latched"},
				{Bits: "4", Name: "INT_ANYRD_2CLEAR", Description: "Clear INT on any read"},
				{Bits: "1", Name: "BYPASS_EN", Description: "Auxiliary I²C bypass", Values: "0=disabled, 1=enabled"},
			}},
		{Address: RegIntStatus, Name: "INT_STATUS", Description: "Interrupt status", Access: "R",
			BitFields: []BitField{
				{Bits: "0", Name: "RAW_DATA_RDY_INT", Description: "New sample available, cleared on read"},
			}},
		{Address: RegPwrMgmt1, Name: "PWR_MGMT_1", Description: "Power management 1", Access: "RW", Default: 0x01,
			BitFields: []BitField{
				{Bits: "7", Name: "H_RESET", Description: "Device reset"},
				{Bits: "6", Name: "SLEEP", Description: "Sleep mode"},
				{Bits: "2:0", Name: "CLKSEL", Description: "Clock source", Values: "0=internal 20MHz, 1=auto select best"},
			}},
		{Address: RegWhoAmI, Name: "WHO_AM_I", Description: "Device ID (0x71, 0x73 on MPU-9255)", Access: "R", Default: WhoAmIMPU9250},
	}

	names := []string{"ACCEL_XOUT", "ACCEL_YOUT", "ACCEL_ZOUT", "TEMP_OUT", "GYRO_XOUT", "GYRO_YOUT", "GYRO_ZOUT"}
	data := make([]RegisterInfo, 0, burstLen)
	for i, n := range names {
		data = append(data,
			RegisterInfo{Address: RegAccelXOutH + byte(2*i), Name: n + "_H", Description: "Sample high byte", Access: "R"},
			RegisterInfo{Address: RegAccelXOutH + byte(2*i) + 1, Name: n + "_L", Description: "Sample low byte", Access: "R"},
		)
	}
	// INT_STATUS precedes the sample block, PWR_MGMT_1 follows it.
	out := make([]RegisterInfo, 0, len(regs)+len(data))
	out = append(out, regs[:5]...)
	out = append(out, data...)
	return append(out, regs[5:]...)
}
