// Package viewer opens a desktop window showing a rendered plot.
package viewer

import (
	"errors"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// ErrEmptyImage is returned for an image with no pixels.
var ErrEmptyImage = errors.New("image has no pixels")

type window struct {
	src   image.Image
	img   *ebiten.Image
	w, h  int
	close func() bool
}

func newWindow(img image.Image) (*window, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, ErrEmptyImage
	}
	return &window{src: img, w: b.Dx(), h: b.Dy(), close: closeRequested}, nil
}

func closeRequested() bool {
	return ebiten.IsKeyPressed(ebiten.KeyEscape) || ebiten.IsKeyPressed(ebiten.KeyQ)
}

func (v *window) Update() error {
	if v.close() {
		return ebiten.Termination
	}
	return nil
}

func (v *window) Draw(screen *ebiten.Image) {
	if v.img == nil {
		v.img = ebiten.NewImageFromImage(v.src)
	}
	screen.DrawImage(v.img, nil)
}

func (v *window) Layout(outsideWidth, outsideHeight int) (int, int) {
	return v.w, v.h
}

// Show displays img and blocks until the window is closed or Esc/Q is
// pressed. Ebiten allows one game loop per process, so Show may only be
// called once.
func Show(img image.Image, title string) error {
	win, err := newWindow(img)
	if err != nil {
		return err
	}

	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(win.w, win.h)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(30)
	return ebiten.RunGame(win)
}
