package uploads

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

// ThumbDimension is the maximum width or height of generated thumbnails.
const ThumbDimension = 256

// JPEGQuality is the compression quality for re-encoded images.
const JPEGQuality = 85

var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Store keeps uploaded photos on a private disk directory and hands out
// HMAC-signed, time-limited download URLs.
type Store struct {
	Dir    string
	secret []byte
}

func NewStore(dir, secret string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &Store{Dir: dir, secret: []byte(secret)}, nil
}

// Save validates an uploaded image by sniffing bytes, stores the original
// re-encoded as JPEG under a random name, and writes a thumbnail next to
// it. It returns both file names.
func (s *Store) Save(r io.Reader) (fileName, thumbName string, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", "", fmt.Errorf("reading upload: %w", err)
	}

	// sniff the real type, the client header is not trusted
	detected := http.DetectContentType(data)
	if !allowedMIME[detected] {
		return "", "", fmt.Errorf("unsupported image format: %s", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", "", fmt.Errorf("decoding image: %w", err)
	}

	id := uuid.NewString()
	fileName = id + ".jpg"
	thumbName = id + "_thumb.jpg"

	if err := s.encodeTo(fileName, img); err != nil {
		return "", "", err
	}
	if err := s.encodeTo(thumbName, downscale(img, ThumbDimension)); err != nil {
		return "", "", err
	}

	return fileName, thumbName, nil
}

func (s *Store) encodeTo(name string, img image.Image) error {
	f, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return fmt.Errorf("encoding JPEG: %w", err)
	}
	return nil
}

// Open returns a reader for a stored file.
func (s *Store) Open(name string) (*os.File, error) {
	// stored names are uuid-derived, but refuse traversal anyway
	if filepath.Base(name) != name {
		return nil, fmt.Errorf("invalid file name")
	}
	return os.Open(filepath.Join(s.Dir, name))
}

// SignURL produces a signed, time-limited path for downloading a file.
func (s *Store) SignURL(name string, ttl time.Duration) string {
	expires := time.Now().Add(ttl).Unix()
	sig := s.signature(name, expires)
	return fmt.Sprintf("/api/v1/files/%s?expires=%d&signature=%s", name, expires, sig)
}

// VerifySignature checks a download signature and its expiry.
func (s *Store) VerifySignature(name, expiresStr, sig string) bool {
	expires, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return false
	}
	if time.Now().Unix() > expires {
		return false
	}
	expected := s.signature(name, expires)
	return hmac.Equal([]byte(expected), []byte(sig))
}

func (s *Store) signature(name string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s:%d", name, expires)
	return hex.EncodeToString(mac.Sum(nil))
}

// downscale resizes the image so neither dimension exceeds maxDim, using
// Catmull-Rom interpolation. Returns the original if already within bounds.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	scale := float64(maxDim) / float64(w)
	if h > w {
		scale = float64(maxDim) / float64(h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
