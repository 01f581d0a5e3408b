package form

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"facilitydesk/shared/base64"
	"facilitydesk/shared/constant"

	"github.com/gabriel-vasile/mimetype"
)

var ErrEmptyImage = errors.New("image file is empty")

// ImageFile is a pending image. The payload is opened lazily so large files
// are only read while they are being uploaded.
type ImageFile struct {
	Name        string
	ContentType string
	Caption     string
	open        func() (io.ReadCloser, error)
}

// Open returns a fresh reader over the payload. Callers close it.
func (f ImageFile) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, ErrEmptyImage
	}

	return f.open()
}

func (f ImageFile) WithCaption(caption string) ImageFile {
	f.Caption = caption

	return f
}

// ImageFromBytes wraps an in-memory payload. An empty content type is sniffed.
func ImageFromBytes(name, contentType string, data []byte) (ImageFile, error) {
	if len(data) == 0 {
		return ImageFile{}, ErrEmptyImage
	}

	if contentType == constant.Empty || contentType == constant.ContentTypeOctetStream {
		contentType = mimetype.Detect(data).String()
	}

	return ImageFile{
		Name:        name,
		ContentType: contentType,
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}, nil
}

// ImageFromDataURL decodes a data:<mime>;base64,<payload> value.
func ImageFromDataURL(name, value string) (ImageFile, error) {
	contentType, data, err := base64.Decode(value)
	if err != nil {
		return ImageFile{}, fmt.Errorf("image %s: %w", name, err)
	}

	if name == constant.Empty {
		name = "image"
		if m := mimetype.Lookup(contentType); m != nil {
			name += m.Extension()
		}
	}

	return ImageFromBytes(name, contentType, data)
}

// ImageFromFileHeader wraps a part of a parsed multipart form.
func ImageFromFileHeader(fh *multipart.FileHeader) ImageFile {
	return ImageFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(constant.RequestHeaderContentType),
		open: func() (io.ReadCloser, error) {
			return fh.Open() //nolint:wrapcheck
		},
	}
}

// ImageFromPath wraps a local file; its content type is detected from the bytes.
func ImageFromPath(path string) (ImageFile, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return ImageFile{}, fmt.Errorf("failed to read image %s: %w", path, err)
	}

	return ImageFile{
		Name:        filepath.Base(path),
		ContentType: mtype.String(),
		open: func() (io.ReadCloser, error) {
			return os.Open(path) //nolint:wrapcheck
		},
	}, nil
}
