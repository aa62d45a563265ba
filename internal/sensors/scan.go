package sensors

import (
	"github.com/relabs-tech/imu_driver/internal/mpu9250"
	"github.com/relabs-tech/imu_driver/internal/regbus"
)

// ak8963WIA is the magnetometer's identity register; it answers 0x48.
const ak8963WIA = 0x00

// Found is one responding address.
type Found struct {
	Addr   uint16 `json:"addr"`
	Part   string `json:"part"`
	WhoAmI byte   `json:"who_am_i"`
}

// Scan probes the MPU-9250 addresses and, once bypass is on, the AK8963.
// Addresses that do not answer are skipped.
func Scan(bus regbus.Bus) []Found {
	probes := []struct {
		addr uint16
		reg  byte
		part string
	}{
		{mpu9250.AddrAD0Low, mpu9250.RegWhoAmI, "mpu9250"},
		{mpu9250.AddrAD0High, mpu9250.RegWhoAmI, "mpu9250"},
		{mpu9250.AddrMag, ak8963WIA, "ak8963"},
	}
	var found []Found
	for _, p := range probes {
		v, err := bus.ReadSingle(p.addr, p.reg)
		if err != nil {
			continue
		}
		found = append(found, Found{Addr: p.addr, Part: p.part, WhoAmI: v})
	}
	return found
}
