package viz

import (
	"image"
	"image/color"
	"image/gif"
	"os"
)

const (
	dotW = 4
	dotH = 4
)

// CanvasImage rasterises the canvas, one dotW x dotH block per braille dot.
func CanvasImage(c *Canvas) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, c.SubWidth()*dotW, c.SubHeight()*dotH), color.Palette{color.Black, color.White})
	for y := 0; y < c.SubHeight(); y++ {
		for x := 0; x < c.SubWidth(); x++ {
			if !c.IsSet(x, y) {
				continue
			}
			for py := 0; py < dotH; py++ {
				for px := 0; px < dotW; px++ {
					img.SetColorIndex(x*dotW+px, y*dotH+py, 1)
				}
			}
		}
	}
	return img
}

// SaveGIF writes frames as a looping animation.
func SaveGIF(path string, frames []*image.Paletted) error {
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 2)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(f, &anim); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
