package app

import (
	"fmt"
	"strconv"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
	"github.com/pkg/errors"

	"github.com/relabs-tech/imu_driver/internal/imu"
)

// sentenceType is the proprietary NMEA-style tag used for IMU samples.
const sentenceType = "PIMU"

// EncodeSentence formats one sample as
// $PIMU,<ax>,<ay>,<az>,<temp>,<gx>,<gy>,<gz>*HH followed by CRLF.
func EncodeSentence(s imu.Sample) string {
	body := fmt.Sprintf("%s,%d,%d,%d,%d,%d,%d,%d", sentenceType, s.Ax, s.Ay, s.Az, s.Temp, s.Gx, s.Gy, s.Gz)
	return "$" + body + "*" + nmea.Checksum(body) + "\r\n"
}

// DecodeSentence parses a line written by EncodeSentence. Surrounding
// whitespace is ignored; Source and Time are left empty.
func DecodeSentence(line string) (imu.Sample, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return imu.Sample{}, errors.Errorf("sentence: missing '$' in %q", line)
	}
	star := strings.LastIndexByte(line, '*')
	if star < 0 || len(line)-star != 3 {
		return imu.Sample{}, errors.Errorf("sentence: missing checksum in %q", line)
	}
	body, sum := line[1:star], line[star+1:]
	if want := nmea.Checksum(body); !strings.EqualFold(sum, want) {
		return imu.Sample{}, errors.Errorf("sentence: checksum %s, want %s", sum, want)
	}

	fields := strings.Split(body, ",")
	if fields[0] != sentenceType {
		return imu.Sample{}, errors.Errorf("sentence: unexpected type %q", fields[0])
	}
	if len(fields) != 8 {
		return imu.Sample{}, errors.Errorf("sentence: %d fields, want 8", len(fields))
	}
	var v [7]int
	for i := range v {
		n, err := strconv.Atoi(fields[i+1])
		if err != nil {
			return imu.Sample{}, errors.Wrapf(err, "sentence: field %d", i+1)
		}
		v[i] = n
	}
	return imu.Sample{Ax: v[0], Ay: v[1], Az: v[2], Temp: v[3], Gx: v[4], Gy: v[5], Gz: v[6]}, nil
}
