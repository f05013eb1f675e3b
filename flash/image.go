package flash

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// Image is a raw firmware binary destined for FlashStartAddress
type Image struct {
	Data []byte
}

// LoadImageFile will read the binary at path
func LoadImageFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not open firmware")
	}
	defer f.Close()

	return LoadImage(f)
}

func LoadImage(r io.Reader) (*Image, error) {
	bs, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "could not read firmware")
	}
	if len(bs) == 0 {
		return nil, errors.New("firmware image is empty")
	}
	return &Image{Data: bs}, nil
}

// Chunks splits the image into ChunkSize pieces, the last one possibly
// shorter
func (img *Image) Chunks() [][]byte {
	return SplitChunks(img.Data, ChunkSize)
}

// SplitChunks slices bs into pieces of at most size bytes. The pieces share
// bs's backing array.
func SplitChunks(bs []byte, size int) [][]byte {
	if size <= 0 {
		panic("chunk size must be positive")
	}

	nseg := (len(bs) + size - 1) / size
	chunks := make([][]byte, 0, nseg)

	for offset := 0; offset < len(bs); offset += size {
		end := min(len(bs), offset+size)
		chunks = append(chunks, bs[offset:end:end])
	}

	return chunks
}
