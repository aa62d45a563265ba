package app

import (
	"fmt"
	"strings"
	"testing"

	"github.com/relabs-tech/imu_driver/internal/imu"
)

// xor of the body bytes, computed independently of the library
func xorSum(body string) byte {
	var c byte
	for i := 0; i < len(body); i++ {
		c ^= body[i]
	}
	return c
}

func TestEncodeSentence(t *testing.T) {
	s := imu.Sample{Ax: -12, Ay: 0, Az: 1003, Temp: 2101, Gx: 1000, Gy: -8, Gz: 0}
	got := EncodeSentence(s)
	body := "PIMU,-12,0,1003,2101,1000,-8,0"
	if !strings.HasPrefix(got, "$"+body+"*") || !strings.HasSuffix(got, "\r\n") {
		t.Fatalf("EncodeSentence = %q", got)
	}
	sum := strings.TrimSuffix(got[len(body)+2:], "\r\n")
	if want := fmt.Sprintf("%02X", xorSum(body)); sum != want {
		t.Errorf("checksum = %s, want %s", sum, want)
	}
}

func TestDecodeSentence(t *testing.T) {
	in := imu.Sample{Ax: 1, Ay: -2, Az: 3, Temp: 2500, Gx: -1000, Gy: 2047937, Gz: 7}
	out, err := DecodeSentence(EncodeSentence(in))
	if err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("DecodeSentence = %+v, want %+v", out, in)
	}
}

func TestDecodeSentenceErrors(t *testing.T) {
	good := strings.TrimSpace(EncodeSentence(imu.Sample{Az: 1000, Temp: 2100}))
	flipped := fmt.Sprintf("%02X", xorSum("PIMU,0,0,1000,2100,0,0,0")^0xFF)
	cases := map[string]string{
		"no dollar":    good[1:],
		"no checksum":  good[:strings.IndexByte(good, '*')],
		"bad checksum": good[:len(good)-2] + flipped,
		"wrong type":   "$GPRMC,1,2*" + "00",
		"short":        "$PIMU,1,2,3*",
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeSentence(line); err == nil {
				t.Errorf("DecodeSentence(%q) succeeded", line)
			}
		})
	}
}
