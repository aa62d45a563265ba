package app

import (
	"fmt"
	"image"

	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/imu_driver/internal/imu"
)

const (
	displayW    = 128
	displayH    = 64
	lineSpacing = 12
)

// Screen is the part of an SSD1306 the display page needs.
type Screen interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// Display shows the latest sample on a 128x64 monochrome OLED.
type Display struct {
	screen Screen
}

// OpenDisplay initializes an SSD1306 at its default address on bus.
func OpenDisplay(bus i2c.Bus) (*Display, error) {
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return nil, errors.Wrap(err, "display: ssd1306 init")
	}
	return NewDisplay(dev), nil
}

func NewDisplay(s Screen) *Display {
	return &Display{screen: s}
}

// Splash shows two centered lines until the first sample arrives.
func (d *Display) Splash(title, subtitle string) error {
	img, dr := newCanvas()
	drawCentered(dr, title, 26)
	drawCentered(dr, subtitle, 43)
	return d.flush(img)
}

// Show renders one sample.
func (d *Display) Show(s imu.Sample) error {
	return d.flush(RenderSample(s))
}

// Waiting renders the placeholder shown while reads fail.
func (d *Display) Waiting(label string) error {
	img, dr := newCanvas()
	drawLine(dr, label, 26)
	drawLine(dr, "Waiting...", 39)
	return d.flush(img)
}

func (d *Display) flush(img image.Image) error {
	return d.screen.Draw(d.screen.Bounds(), img, image.Point{})
}

// Halt blanks the panel if the screen supports it.
func (d *Display) Halt() error {
	if h, ok := d.screen.(interface{ Halt() error }); ok {
		return h.Halt()
	}
	return nil
}

// RenderSample lays out accel in milli-g, temperature and gyro in °/s.
func RenderSample(s imu.Sample) *image1bit.VerticalLSB {
	img, dr := newCanvas()
	lines := []string{
		fmt.Sprintf("A:%6d %6d", s.Ax, s.Ay),
		fmt.Sprintf("  %6d mg", s.Az),
		fmt.Sprintf("T:%6.2f C", s.Celsius()),
		fmt.Sprintf("G:%6.1f %6.1f", dps(s.Gx), dps(s.Gy)),
		fmt.Sprintf("  %6.1f dps", dps(s.Gz)),
	}
	for i, l := range lines {
		drawLine(dr, l, lineSpacing*(i+1)-1)
	}
	return img
}

func dps(mdps int) float64 {
	return float64(mdps) / 1000
}

func newCanvas() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayW, displayH))
	dr := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, dr
}

func drawLine(dr *font.Drawer, text string, y int) {
	dr.Dot = fixed.P(0, y)
	dr.DrawString(text)
}

func drawCentered(dr *font.Drawer, text string, y int) {
	x := (displayW - dr.MeasureString(text).Ceil()) / 2
	if x < 0 {
		x = 0
	}
	dr.Dot = fixed.P(x, y)
	dr.DrawString(text)
}
