package download

import (
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// sniffChunkSize is how much of the body is read to identify extension-less
// image and video assets by signature.
const sniffChunkSize = 16 * 1024

// mimeToExtension maps detected media types to the extension used on disk.
// avif and jxl are not detected reliably and fall back to the defaults.
var mimeToExtension = map[string]string{
	"image/png":        "png",
	"image/jpeg":       "jpg",
	"image/bmp":        "bmp",
	"image/x-ms-bmp":   "bmp",
	"image/webp":       "webp",
	"image/svg+xml":    "svg",
	"video/webm":       "webm",
	"video/mp4":        "mp4",
	"video/x-matroska": "mkv",
	"video/x-msvideo":  "avi",
	"video/quicktime":  "mov",
	"audio/mpeg":       "mp3",
	"audio/wav":        "wav",
	"audio/x-wav":      "wav",
	"audio/flac":       "flac",
	"audio/x-flac":     "flac",
	"audio/x-m4a":      "m4a",
	"video/ogg":        "ogv",
	"audio/ogg":        "ogg",
	"audio/aac":        "aac",
}

// sniffBody reads up to sniffChunkSize bytes from body and infers the file
// extension from the binary signature, falling back to fallbackExt when the
// signature is unrecognized. The consumed bytes are returned so the caller
// can still write them out.
func sniffBody(body io.Reader, fallbackExt string) (chunk []byte, ext string, err error) {
	chunk = make([]byte, sniffChunkSize)
	n, err := io.ReadFull(body, chunk)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, "", err
	}
	chunk = chunk[:n]
	return chunk, detectExtension(chunk, fallbackExt), nil
}

func detectExtension(chunk []byte, fallbackExt string) string {
	mtype := mimetype.Detect(chunk)
	if ext, ok := mimeToExtension[mtype.String()]; ok {
		return ext
	}
	return fallbackExt
}
