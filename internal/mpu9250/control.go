package mpu9250

// Wake clears sleep and selects the best available clock source. Calling it
// again has no further effect.
func (d *Dev) Wake() error {
	return d.writeByte(RegPwrMgmt1, clkAutoSelect)
}

// Bypass reports whether the auxiliary I²C bus is bridged to the host bus.
func (d *Dev) Bypass() (bool, error) {
	v, err := d.readByte(RegIntPinCfg)
	if err != nil {
		return false, err
	}
	return v&bypassBit != 0, nil
}

// SetBypass enables or disables bypass mode; other INT_PIN_CFG bits are kept.
func (d *Dev) SetBypass(on bool) error {
	var set byte
	if on {
		set = bypassBit
	}
	return d.updateBits(RegIntPinCfg, ^byte(bypassBit), set)
}

// WhoAmI returns the identity register. See WhoAmIMPU9250 and WhoAmIMPU9255.
func (d *Dev) WhoAmI() (byte, error) {
	return d.readByte(RegWhoAmI)
}

// DataReady reports whether a new sample is available. The device clears the
// flag when INT_STATUS is read.
func (d *Dev) DataReady() (bool, error) {
	v, err := d.readByte(RegIntStatus)
	if err != nil {
		return false, err
	}
	return v&dataReadyBit != 0, nil
}

// SetFullBandwidth bypasses the gyro and accel digital low-pass filters.
func (d *Dev) SetFullBandwidth() error {
	if err := d.updateBits(RegGyroConfig, 0xFF, gyroFchoiceB); err != nil {
		return err
	}
	return d.updateBits(RegAccelConfig2, 0xFF, accelFchoiceB)
}

// ReadRegister reads any register. Intended for debugging tools.
func (d *Dev) ReadRegister(reg byte) (byte, error) {
	return d.readByte(reg)
}

// WriteRegister writes any register. Writing GYRO_CONFIG or ACCEL_CONFIG
// this way does not update the sensitivities; call Resync afterwards.
func (d *Dev) WriteRegister(reg, v byte) error {
	return d.writeByte(reg, v)
}

// Resync reloads both full scales from the device and recomputes the
// sensitivities. Each axis is updated as soon as its register is read.
func (d *Dev) Resync() error {
	g, err := d.GyroFullScale()
	if err != nil {
		return err
	}
	d.gyro.set(g)
	a, err := d.AccelFullScale()
	if err != nil {
		return err
	}
	d.accel.set(a)
	return nil
}
