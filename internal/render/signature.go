package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
)

// RenderError — документ не удалось построить (подпись не декодируется
// ни как PNG, ни как JPEG, либо ошибка генератора PDF).
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return "render: " + e.Err.Error()
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

var (
	// ErrUndecodableSignature — подпись не является ни PNG, ни JPEG.
	ErrUndecodableSignature = errors.New("подпись не декодируется как PNG или JPEG")
	// ErrSignatureTooLarge — размеры подписи превышают MaxSignatureSide.
	ErrSignatureTooLarge = errors.New("размеры подписи превышают допустимые")
)

// MaxSignatureSide — максимальная сторона исходной подписи в пикселях.
const MaxSignatureSide = 4000

// signatureScale — кратность растра подписи относительно рамки (качество печати).
const signatureScale = 2

// DecodeSignature декодирует подпись: сначала как PNG, при неудаче как JPEG.
// Размеры проверяются по заголовку до декодирования растра.
func DecodeSignature(data []byte) (image.Image, error) {
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		if cfg.Width > MaxSignatureSide || cfg.Height > MaxSignatureSide {
			return nil, &RenderError{Err: fmt.Errorf("%w: %dx%d", ErrSignatureTooLarge, cfg.Width, cfg.Height)}
		}
	}

	img, pngErr := png.Decode(bytes.NewReader(data))
	if pngErr == nil {
		return img, nil
	}
	img, jpegErr := jpeg.Decode(bytes.NewReader(data))
	if jpegErr == nil {
		return img, nil
	}
	return nil, &RenderError{Err: fmt.Errorf("%w: png: %v, jpeg: %v", ErrUndecodableSignature, pngErr, jpegErr)}
}

// FitBox вписывает изображение w x h в рамку maxW x maxH с сохранением пропорций.
// Увеличение больше 1:1 не выполняется.
func FitBox(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	scale := math.Min(math.Min(maxW/w, maxH/h), 1)
	return w * scale, h * scale
}

// preparedSignature — подпись, готовая к встраиванию в PDF.
type preparedSignature struct {
	png    []byte
	width  float64
	height float64
}

// prepareSignature декодирует подпись, уменьшает растр до двойной рамки,
// накладывает его на белый фон, перекодирует в PNG и вписывает в рамку подписи.
func prepareSignature(data []byte) (*preparedSignature, error) {
	img, err := DecodeSignature(data)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	maxW, maxH := SignatureMaxWidth*signatureScale, SignatureMaxHeight*signatureScale
	if b.Dx() > maxW || b.Dy() > maxH {
		img = imaging.Fit(img, maxW, maxH, imaging.Lanczos)
	}
	fb := img.Bounds()
	flat := imaging.Overlay(imaging.New(fb.Dx(), fb.Dy(), color.White), img, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.PNG); err != nil {
		return nil, &RenderError{Err: fmt.Errorf("кодирование подписи: %w", err)}
	}

	w, h := FitBox(float64(b.Dx()), float64(b.Dy()), SignatureMaxWidth, SignatureMaxHeight)
	return &preparedSignature{png: buf.Bytes(), width: w, height: h}, nil
}
