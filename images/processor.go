package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/Dosada05/conference-tickets/storage"
)

// ErrInvalidImage — полезная нагрузка не декодируется как изображение.
var ErrInvalidImage = errors.New("invalid image data")

const (
	maxThumbnailSize = 200
	jpegQuality      = 85
)

// Processor нормализует загруженный аватар: декодирует base64-нагрузку,
// сводит к трёхканальному RGB, вписывает в 200x200 без увеличения и
// сохраняет как JPEG в область аватаров.
type Processor struct {
	files storage.FileStorage
}

func NewProcessor(files storage.FileStorage) *Processor {
	return &Processor{files: files}
}

// Process принимает сырую base64-строку или data-URI и возвращает имя
// сохранённого файла вида avatar_<8-hex>.jpg. При ошибке декодирования или
// кодирования файл не создаётся.
func (p *Processor) Process(ctx context.Context, data string) (string, error) {
	// data-URI приходит как "data:image/png;base64,<payload>" — берём
	// только полезную нагрузку после запятой.
	if i := strings.Index(data, ","); i >= 0 {
		data = data[i+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	img = flattenToRGB(img)

	// Fit сохраняет пропорции и не увеличивает изображения, которые уже
	// помещаются в 200x200.
	thumb := imaging.Fit(img, maxThumbnailSize, maxThumbnailSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	filename := fmt.Sprintf("avatar_%s.jpg", randomSuffix())
	if err := p.files.Save(ctx, storage.AreaAvatars, filename, "image/jpeg", buf.Bytes()); err != nil {
		return "", err
	}
	return filename, nil
}

// flattenToRGB сводит изображения с альфа-каналом или палитрой на белый фон.
func flattenToRGB(img image.Image) image.Image {
	switch img.(type) {
	case *image.NRGBA, *image.RGBA, *image.NYCbCrA, *image.Paletted:
		bounds := img.Bounds()
		flat := image.NewNRGBA(bounds)
		draw.Draw(flat, bounds, image.White, image.Point{}, draw.Src)
		draw.Draw(flat, bounds, img, bounds.Min, draw.Over)
		return flat
	default:
		return img
	}
}

func randomSuffix() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])[:8]
}
